// Package config provides configuration management for siteporter.
//
// Configuration comes from three layers, in increasing precedence:
//
//  1. Compiled defaults (the Default* constants)
//  2. The optional .siteporter YAML file, searched in the current directory
//     and then the user's home directory
//  3. CLI flags
//
// The YAML file additionally carries per-site overrides keyed by hostname,
// merged over the file-level defaults via File.GetSiteConfig and applied to
// a job config with Config.Apply.
//
// Design decision: We use a single flat Config struct passed by injection
// rather than nested sub-configs or global state. The option count is
// manageable, flat structs keep flag binding simple, and explicit injection
// makes the scheduler and downloader testable in isolation.
package config
