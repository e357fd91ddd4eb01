// Package crawler implements the traversal core of siteporter.
//
// # Architecture
//
// Three pieces cooperate, each owning one concern:
//
//   - Scheduler: the URL frontier. Classifies discovered URLs into
//     traversal levels, enforces admission policy, and yields pending URLs
//     in priority order (legal pages, then shallow levels, then
//     navigation-sourced links).
//   - Fetcher: the page-rendering boundary. The default HTTPFetcher does a
//     plain GET with charset-aware decoding; a headless renderer can be
//     substituted behind the same interface.
//   - Spider: the orchestrator. Drains the scheduler through the fetcher
//     and extractor one page at a time until the frontier is empty or the
//     page budget is spent.
//
// # Traversal levels
//
// Every URL gets a level when it is registered: the seed is level 1,
// children are parent level plus one, and URLs matching a legal keyword
// (impressum, privacy, terms, ...) get the reserved level 0 regardless of
// where they were found. Levels are first-write-wins; rediscovering a page
// through a deeper path never reclassifies it. At the deepest configured
// level a per-category cap samples a bounded number of representative
// pages per category (first two URL path segments) instead of exploding
// on large catalog sites.
//
// # Concurrency
//
// The crawl loop is single-threaded by design: one fetch in flight, a
// fixed politeness delay after every request, no retries. The scheduler's
// maps are therefore unguarded; wrap them in a mutex or an owning
// goroutine before introducing any parallel fetching.
package crawler
