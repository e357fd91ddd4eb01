package config

// SiteConfig holds per-site overrides for a single host.
// This allows tuning crawl behavior for sites with unusual structure
// (different navigation markup, additional legal keywords, tighter limits)
// without changing global flags.
type SiteConfig struct {
	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxPages overrides the global page budget. Zero means use the global.
	MaxPages int `yaml:"maxPages,omitempty"`

	// MaxLevel overrides the deepest traversal level. Zero means global.
	MaxLevel int `yaml:"maxLevel,omitempty"`

	// LevelLimits overrides per-level visit caps (-1 = unlimited).
	LevelLimits map[int]int `yaml:"levelLimits,omitempty"`

	// LegalKeywords replaces the global legal keyword set.
	LegalKeywords []string `yaml:"legalKeywords,omitempty"`

	// NavSelectors replaces the global navigation selector set.
	NavSelectors []string `yaml:"navSelectors,omitempty"`
}

// File represents the structure of the .siteporter configuration file.
type File struct {
	// Sites maps hostnames to their overrides (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to all sites unless a
	// site-specific entry replaces them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a hostname, merging the
// site-specific entry over the file defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if site, ok := cf.Sites[host]; ok {
		if site.MaxPages != 0 {
			result.MaxPages = site.MaxPages
		}
		if site.MaxLevel != 0 {
			result.MaxLevel = site.MaxLevel
		}
		if len(site.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range site.Headers {
				result.Headers[k] = v
			}
		}
		if len(site.LevelLimits) > 0 {
			result.LevelLimits = site.LevelLimits
		}
		if len(site.LegalKeywords) > 0 {
			result.LegalKeywords = site.LegalKeywords
		}
		if len(site.NavSelectors) > 0 {
			result.NavSelectors = site.NavSelectors
		}
	}

	return result
}

// Apply overlays the site overrides onto a job-level config copy.
// The receiver is not modified; callers get an adjusted clone.
func (c *Config) Apply(site SiteConfig) *Config {
	out := *c
	if site.MaxPages != 0 {
		out.MaxPages = site.MaxPages
	}
	if len(site.Headers) > 0 {
		merged := make(map[string]string, len(c.Headers)+len(site.Headers))
		for k, v := range c.Headers {
			merged[k] = v
		}
		for k, v := range site.Headers {
			merged[k] = v
		}
		out.Headers = merged
	}
	if site.MaxLevel != 0 {
		out.MaxLevel = site.MaxLevel
	}
	if len(site.LevelLimits) > 0 {
		out.LevelLimits = site.LevelLimits
	}
	if len(site.LegalKeywords) > 0 {
		out.LegalKeywords = site.LegalKeywords
	}
	if len(site.NavSelectors) > 0 {
		out.NavSelectors = site.NavSelectors
	}
	return &out
}
