// Package main provides the entry point for the siteporter CLI.
//
// siteporter crawls a website and exports its pages and images for
// migration: a prioritized traversal with per-level budgets feeds a
// content-addressable asset downloader that stores every unique file once.
//
// Usage:
//
//	siteporter crawl <url>
//	siteporter crawl <url1> <url2> ...
//
// See --help for all available options.
package main

// main is the entry point for siteporter.
func main() {
	Execute()
}
