package images

import (
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/quietpage/quietpage/internal/pkg/storage"
)

// Resolver maps storage paths to public URLs and back. The public base URL
// is computed once per process, backend configuration does not change at
// runtime.
type Resolver struct {
	cfg  *storage.Config
	once sync.Once
	base string
}

func NewResolver(cfg *storage.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// ToPublicURL returns the browser-facing URL for a storage path.
func (r *Resolver) ToPublicURL(storagePath string) string {
	return r.baseURL() + "/" + strings.TrimLeft(storagePath, "/")
}

// ToStoragePath resolves a user-supplied or embedded URL back to a storage
// path. It accepts absolute URLs under the application or public base URL
// and paths already rooted at the upload namespace; everything else reports
// false so arbitrary third-party URLs are never treated as local assets.
func (r *Resolver) ToStoragePath(rawURL string) (string, bool) {
	candidate := strings.TrimSpace(rawURL)
	if candidate == "" {
		return "", false
	}

	appBase := strings.TrimRight(r.cfg.AppURL, "/")
	if appBase != "" && strings.HasPrefix(candidate, appBase) {
		candidate = strings.TrimPrefix(candidate, appBase)
	} else if base := r.baseURL(); base != "" && strings.HasPrefix(candidate, base) {
		candidate = strings.TrimPrefix(candidate, base)
	}

	candidate = strings.TrimLeft(candidate, "/")

	// Collapse dot segments before the prefix check so traversal tricks
	// cannot escape the upload namespace.
	candidate = path.Clean(candidate)
	if !strings.HasPrefix(candidate, UploadBasePath+"/") {
		return "", false
	}
	return candidate, true
}

func (r *Resolver) baseURL() string {
	r.once.Do(func() {
		r.base = r.computeBaseURL()
	})
	return r.base
}

func (r *Resolver) computeBaseURL() string {
	if r.cfg.PublicURL != "" {
		return strings.TrimRight(r.cfg.PublicURL, "/")
	}
	if r.cfg.Backend == storage.BackendS3 {
		return s3BaseURL(r.cfg)
	}
	return strings.TrimRight(r.cfg.AppURL, "/")
}

// s3BaseURL synthesizes a public bucket URL. The short virtual-hosted form
// is preferred; bucket names containing a period break TLS hostname
// matching there, those fall back to the path-style region URL.
func s3BaseURL(cfg *storage.Config) string {
	if cfg.S3Endpoint != "" {
		if u, err := url.Parse(cfg.S3Endpoint); err == nil && u.Host != "" {
			if !strings.Contains(cfg.S3Bucket, ".") {
				return u.Scheme + "://" + cfg.S3Bucket + "." + u.Host
			}
			return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
		}
	}

	if !strings.Contains(cfg.S3Bucket, ".") {
		return "https://" + cfg.S3Bucket + ".s3.amazonaws.com"
	}
	return "https://s3-" + cfg.S3Region + ".amazonaws.com/" + cfg.S3Bucket
}
