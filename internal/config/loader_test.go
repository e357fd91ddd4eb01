package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads site overrides", func(t *testing.T) {
		t.Parallel()

		content := `
defaults:
  maxPages: 50
sites:
  example.com:
    maxLevel: 2
    legalKeywords:
      - impressum
      - mentions-legales
    levelLimits:
      2: 3
`
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		site := cf.GetSiteConfig("example.com")
		if site.MaxPages != 50 {
			t.Errorf("expected defaults to merge, MaxPages = %d", site.MaxPages)
		}
		if site.MaxLevel != 2 {
			t.Errorf("expected site MaxLevel 2, got %d", site.MaxLevel)
		}
		if len(site.LegalKeywords) != 2 {
			t.Errorf("expected 2 legal keywords, got %v", site.LegalKeywords)
		}
		if site.LevelLimits[2] != 3 {
			t.Errorf("expected level 2 limit 3, got %v", site.LevelLimits)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: [not a map"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})
}

func TestConfigApply(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Seeds = []string{"https://example.com/"}

	site := SiteConfig{
		MaxPages:      10,
		LegalKeywords: []string{"imprint"},
	}

	applied := cfg.Apply(site)

	if applied.MaxPages != 10 {
		t.Errorf("expected override MaxPages 10, got %d", applied.MaxPages)
	}
	if len(applied.LegalKeywords) != 1 || applied.LegalKeywords[0] != "imprint" {
		t.Errorf("expected override keywords, got %v", applied.LegalKeywords)
	}
	if cfg.MaxPages != DefaultMaxPages {
		t.Errorf("Apply must not mutate the receiver, MaxPages = %d", cfg.MaxPages)
	}
	if applied.MaxLevel != cfg.MaxLevel {
		t.Errorf("unset override should keep global value, got %d", applied.MaxLevel)
	}
}
