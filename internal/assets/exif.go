package assets

import (
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/siteporter/siteporter/internal/model"
)

// InspectEXIF extracts a small summary of EXIF metadata from image bytes.
// Publishing pipelines use the summary to audit which assets carry camera
// or location metadata before re-hosting them.
//
// Inspection is best effort: bytes without EXIF data, non-image bytes, and
// parse errors all return nil. An asset download never fails because of
// its metadata.
func InspectEXIF(data []byte) *model.EXIFInfo {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil
	}

	info := &model.EXIFInfo{}
	found := false

	for _, entry := range entries {
		value := strings.TrimSpace(entry.Formatted)
		if value == "" {
			continue
		}

		switch entry.TagName {
		case "Make":
			info.CameraMake = value
			found = true
		case "Model":
			info.CameraModel = value
			found = true
		case "DateTimeOriginal":
			info.Timestamp = value
			found = true
		case "GPSLatitude", "GPSLongitude":
			info.HasGPS = true
			found = true
		}
	}

	if !found {
		return nil
	}
	return info
}
