package images

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/app/models"
	"github.com/quietpage/quietpage/internal/pkg/cache"
	"github.com/quietpage/quietpage/internal/pkg/imageprocessor"
	metrics "github.com/quietpage/quietpage/internal/pkg/metrics/counter"
)

// Thumbnail existence entries expire after this horizon. The cache is never
// invalidated on delete, staleness stays bounded by the TTL.
const thumbnailCacheTTL = 72 * time.Hour

// Formats whose animation a resize would destroy.
var animatedExtensions = []string{".gif"}

// Seams for tests, production uses the shared cache client and counters.
var (
	cacheHas        = cache.Has
	cacheSet        = cache.Set
	addDerivedCount = metrics.AddThumbnailDerived
)

// ThumbnailPath derives the storage path of a resized variant from its
// source path and the requested box. The variant's identity is fully
// reconstructible from these inputs, no lookup table exists.
func ThumbnailPath(sourcePath string, width, height int, keepRatio bool) string {
	prefix := "thumbs-"
	if keepRatio {
		prefix = "scaled-"
	}
	return path.Join(path.Dir(sourcePath), fmt.Sprintf("%s%d-%d", prefix, width, height), path.Base(sourcePath))
}

// GetThumbnail returns the public URL of the resized variant, deriving and
// storing it on first request. Lookup short-circuits on the existence cache
// first, then on a storage probe; only a miss on both pays for source
// fetch, resize and write-back.
//
// Two concurrent callers may both derive the same missing variant. The
// write is a whole-object overwrite of identical bytes, so the race stays
// benign and is not locked against.
func (s *Service) GetThumbnail(image *models.Image, width, height int, keepRatio bool) (string, error) {
	if keepRatio && isAnimated(image.Path) {
		// Resizing would flatten the animation, serve the source instead.
		return s.resolver.ToPublicURL(image.Path), nil
	}

	thumbPath := ThumbnailPath(image.Path, width, height, keepRatio)
	cacheKey := fmt.Sprintf("image:thumbs:%d:%s", image.ID, thumbPath)

	if cacheHas(cacheKey) {
		return s.resolver.ToPublicURL(thumbPath), nil
	}

	gw := s.storage.ForType(image.Type)

	found, err := gw.Exists(thumbPath)
	if err != nil {
		return "", err
	}
	if found {
		s.rememberThumbnail(cacheKey, thumbPath)
		return s.resolver.ToPublicURL(thumbPath), nil
	}

	source, err := gw.Get(image.Path)
	if err != nil {
		return "", err
	}

	thumb, err := imageprocessor.Resize(source, width, height, keepRatio)
	if err != nil {
		if errors.Is(err, imageprocessor.ErrUnsupportedFormat) {
			return "", &DerivationError{Path: image.Path, Err: err}
		}
		return "", err
	}

	if err := gw.Put(thumbPath, thumb); err != nil {
		return "", &StorageWriteError{Path: thumbPath, Err: err}
	}
	if err := gw.SetPublic(thumbPath); err != nil {
		return "", &StorageWriteError{Path: thumbPath, Err: err}
	}

	s.rememberThumbnail(cacheKey, thumbPath)
	log.Debugf("[Images] derived thumbnail %s", thumbPath)

	// Derivation counter is buffered in Redis and flushed in batches
	_ = addDerivedCount(image.ID)

	return s.resolver.ToPublicURL(thumbPath), nil
}

// rememberThumbnail records a positive existence entry. Cache failures only
// cost the next caller a storage probe, they never fail the request.
func (s *Service) rememberThumbnail(cacheKey, thumbPath string) {
	if err := cacheSet(cacheKey, "1", thumbnailCacheTTL); err != nil {
		log.Warnf("[Images] could not cache thumbnail existence for %s: %v", thumbPath, err)
	}
}

func isAnimated(sourcePath string) bool {
	ext := strings.ToLower(path.Ext(sourcePath))
	for _, animated := range animatedExtensions {
		if ext == animated {
			return true
		}
	}
	return false
}
