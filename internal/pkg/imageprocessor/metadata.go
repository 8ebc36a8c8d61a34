package imageprocessor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"github.com/quietpage/quietpage/app/models"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// ExtractMetadata reads EXIF metadata from the encoded image bytes and maps
// it onto a metadata record. Images without an EXIF block (most PNG and GIF
// uploads) return nil with no error.
func ExtractMetadata(data []byte) (*models.ImageMetadata, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		log.Debugf("[Metadata] no EXIF data: %v", err)
		return nil, nil
	}

	meta := &models.ImageMetadata{}

	// Collect all readable tags into a map for JSON storage
	allTags := make(map[string]interface{})

	// Manually walk through common EXIF tags to avoid type issues
	for _, tag := range []exif.FieldName{
		exif.Model, exif.Make, exif.Software, exif.Artist,
		exif.Copyright, exif.ExposureTime, exif.FNumber, exif.ISOSpeedRatings,
		exif.FocalLength, exif.ExposureProgram, exif.MeteringMode,
		exif.Flash, exif.FocalLengthIn35mmFilm, exif.WhiteBalance,
		exif.SceneCaptureType, exif.GPSLatitude, exif.GPSLongitude,
		exif.GPSAltitude, exif.DateTime, exif.DateTimeOriginal,
		exif.DateTimeDigitized, exif.SubjectArea, exif.ExposureMode,
	} {
		if tagVal, err := x.Get(tag); err == nil {
			raw := tagVal.String()
			clean := strings.Trim(raw, `"`)
			allTags[string(tag)] = clean
		}
	}

	// 1. Camera Model (strip quotes)
	if m, err := x.Get(exif.Model); err == nil {
		s := strings.Trim(m.String(), `"`)
		trimmed := strings.TrimSpace(s)
		meta.CameraModel = &trimmed
	}

	// 2. Date and Time
	if dt, err := x.DateTime(); err == nil {
		meta.TakenAt = &dt
	}

	// 3. GPS Coordinates
	if lat, long, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &long
	}

	// 4. Exposure Time
	if expTag, err := x.Get(exif.ExposureTime); err == nil {
		raw := expTag.String()
		trimmed := strings.Trim(raw, `"`)
		meta.ExposureTime = &trimmed
	}

	// 5. Aperture (F-Number)
	if fTag, err := x.Get(exif.FNumber); err == nil {
		// F-number is typically stored as a rational
		floatVal, err := fTag.Float(0)
		if err == nil {
			apertureStr := fmt.Sprintf("f/%.1f", floatVal)
			meta.Aperture = &apertureStr
		} else {
			trimmed := strings.Trim(fTag.String(), `"`)
			meta.Aperture = &trimmed
		}
	}

	// 6. ISO
	if isoTag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		isoVal, err := isoTag.Int(0)
		if err == nil {
			iso := int(isoVal)
			meta.ISO = &iso
		}
	}

	// 7. Focal Length
	if flTag, err := x.Get(exif.FocalLength); err == nil {
		floatVal, err := flTag.Float(0)
		if err == nil {
			focalStr := fmt.Sprintf("%.1fmm", floatVal)
			meta.FocalLength = &focalStr
		} else {
			trimmed := strings.Trim(flTag.String(), `"`)
			meta.FocalLength = &trimmed
		}
	}

	tagsJSON, err := json.Marshal(allTags)
	if err != nil {
		log.Error(fmt.Sprintf("Error marshaling EXIF tags to JSON: %v", err))
		// Continue even if JSON marshaling fails
	} else {
		raw := models.JSON(tagsJSON)
		meta.RawTags = &raw
	}

	return meta, nil
}
