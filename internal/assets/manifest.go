package assets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/siteporter/siteporter/internal/model"
)

// Manifest is the durable record of a download job: enough to reconstruct
// which physical file backs any source URL without re-downloading anything.
// It is written once at the end of the job and read-only thereafter.
type Manifest struct {
	// GeneratedAt is the manifest creation time.
	GeneratedAt time.Time `json:"generated_at"`

	// BaseOutputDir is the root the image paths live under.
	BaseOutputDir string `json:"base_output_dir"`

	// Statistics aggregates the job outcome.
	Statistics ManifestStatistics `json:"statistics"`

	// Images holds one entry per attempted source URL, in attempt order.
	Images []ManifestImage `json:"images"`

	// HashMap lists every canonical file keyed by content hash, in
	// first-seen order.
	HashMap []ManifestHash `json:"hash_map"`
}

// ManifestStatistics aggregates counts and sizes for a download job.
type ManifestStatistics struct {
	// TotalURLs is the number of unique source URLs attempted.
	TotalURLs int `json:"total_urls"`

	// UniqueFiles is the number of canonical files written to disk.
	UniqueFiles int `json:"unique_files"`

	// Duplicates counts URLs whose content matched an earlier download.
	Duplicates int `json:"duplicates"`

	// Failed counts URLs that could not be downloaded.
	Failed int `json:"failed"`

	// TotalSizeBytes is the byte total of canonical files written.
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// ManifestImage describes the resolution of one source URL.
type ManifestImage struct {
	URL          string          `json:"url"`
	LocalPath    string          `json:"localPath,omitempty"`
	Hash         string          `json:"hash,omitempty"`
	Duplicate    bool            `json:"duplicate"`
	OriginalFile string          `json:"originalFile,omitempty"`
	FileName     string          `json:"fileName,omitempty"`
	Directory    string          `json:"directory,omitempty"`
	Failed       bool            `json:"failed,omitempty"`
	FailReason   string          `json:"failReason,omitempty"`
	EXIF         *model.EXIFInfo `json:"exif,omitempty"`
}

// ManifestHash maps a content hash to its canonical file.
type ManifestHash struct {
	Hash      string `json:"hash"`
	LocalPath string `json:"localPath"`
	FileName  string `json:"fileName"`
}

// Manifest builds the manifest snapshot from the current registry and
// record state.
func (d *Downloader) Manifest() *Manifest {
	m := &Manifest{
		GeneratedAt:   time.Now(),
		BaseOutputDir: d.outputRoot,
		Images:        make([]ManifestImage, 0, len(d.order)),
		HashMap:       make([]ManifestHash, 0, d.registry.UniqueFiles()),
	}

	m.Statistics.TotalURLs = len(d.order)
	m.Statistics.UniqueFiles = d.registry.UniqueFiles()

	for _, sourceURL := range d.order {
		record := d.records[sourceURL]
		entry := ManifestImage{
			URL:          record.SourceURL,
			LocalPath:    record.LocalPath,
			Hash:         record.ContentHash,
			Duplicate:    record.Duplicate,
			OriginalFile: record.OriginalFile,
			Failed:       record.Failed,
			FailReason:   record.FailReason,
			EXIF:         record.EXIF,
		}
		if record.LocalPath != "" {
			entry.FileName = filepath.Base(record.LocalPath)
			entry.Directory = filepath.Dir(record.LocalPath)
		}
		m.Images = append(m.Images, entry)

		switch {
		case record.Failed:
			m.Statistics.Failed++
		case record.Duplicate:
			m.Statistics.Duplicates++
		default:
			m.Statistics.TotalSizeBytes += record.SizeBytes
		}
	}

	for _, hash := range d.registry.Hashes() {
		localPath, _ := d.registry.PathForHash(hash)
		m.HashMap = append(m.HashMap, ManifestHash{
			Hash:      hash,
			LocalPath: localPath,
			FileName:  filepath.Base(localPath),
		})
	}

	return m
}

// WriteFile serializes the manifest as indented JSON to the given path,
// creating parent directories as needed.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
