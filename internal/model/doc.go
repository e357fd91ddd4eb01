// Package model defines the data structures shared across siteporter.
//
// The types here are plain data carriers with no I/O. They flow from the
// crawler (Page, Link, Image) through the asset downloader (AssetRecord)
// into reports and the history database (CrawlResult, Stats).
//
// Design decision: We keep all cross-package types in a single model
// package rather than defining them next to their producers because:
//  1. The crawler, downloader, database, and report packages all consume
//     the same records; a shared leaf package avoids import cycles
//  2. JSON tags live in one place, so the manifest and report formats
//     stay consistent
//  3. It mirrors how the rest of the codebase separates data from behavior
package model
