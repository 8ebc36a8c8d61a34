package images

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quietpage/quietpage/internal/pkg/storage"
)

func TestToPublicURLPrefersConfiguredPublicURL(t *testing.T) {
	r := NewResolver(&storage.Config{
		Backend:   storage.BackendLocal,
		AppURL:    "http://localhost:4000",
		PublicURL: "https://cdn.example.com/",
	})

	assert.Equal(t,
		"https://cdn.example.com/uploads/images/gallery/2024-01/cat.png",
		r.ToPublicURL("uploads/images/gallery/2024-01/cat.png"))
}

func TestToPublicURLLocalBackendUsesAppURL(t *testing.T) {
	r := NewResolver(&storage.Config{
		Backend: storage.BackendLocal,
		AppURL:  "http://localhost:4000/",
	})

	assert.Equal(t,
		"http://localhost:4000/uploads/images/gallery/2024-01/cat.png",
		r.ToPublicURL("uploads/images/gallery/2024-01/cat.png"))
}

func TestToPublicURLS3VirtualHosted(t *testing.T) {
	r := NewResolver(&storage.Config{
		Backend:  storage.BackendS3,
		AppURL:   "http://localhost:4000",
		S3Bucket: "quietpage-assets",
		S3Region: "eu-central-1",
	})

	assert.Equal(t,
		"https://quietpage-assets.s3.amazonaws.com/uploads/images/gallery/2024-01/cat.png",
		r.ToPublicURL("uploads/images/gallery/2024-01/cat.png"))
}

func TestToPublicURLS3DottedBucketFallsBackToPathStyle(t *testing.T) {
	// A period in the bucket name breaks TLS matching for the
	// virtual-hosted form.
	r := NewResolver(&storage.Config{
		Backend:  storage.BackendS3,
		AppURL:   "http://localhost:4000",
		S3Bucket: "assets.quietpage.net",
		S3Region: "eu-central-1",
	})

	assert.Equal(t,
		"https://s3-eu-central-1.amazonaws.com/assets.quietpage.net/uploads/images/a/b/c.png",
		r.ToPublicURL("uploads/images/a/b/c.png"))
}

func TestToPublicURLS3CustomEndpoint(t *testing.T) {
	r := NewResolver(&storage.Config{
		Backend:    storage.BackendS3,
		AppURL:     "http://localhost:4000",
		S3Bucket:   "assets",
		S3Region:   "us-east-1",
		S3Endpoint: "http://localhost:9000",
	})

	assert.Equal(t,
		"http://assets.localhost:9000/uploads/images/a/b/c.png",
		r.ToPublicURL("uploads/images/a/b/c.png"))
}

func TestToStoragePath(t *testing.T) {
	r := NewResolver(&storage.Config{
		Backend:   storage.BackendLocal,
		AppURL:    "http://localhost:4000",
		PublicURL: "https://cdn.example.com",
	})

	cases := []struct {
		url  string
		want string
		ok   bool
	}{
		{"http://localhost:4000/uploads/images/gallery/2024-01/cat.png", "uploads/images/gallery/2024-01/cat.png", true},
		{"https://cdn.example.com/uploads/images/gallery/2024-01/cat.png", "uploads/images/gallery/2024-01/cat.png", true},
		{"/uploads/images/gallery/2024-01/cat.png", "uploads/images/gallery/2024-01/cat.png", true},
		{"uploads/images/gallery/2024-01/cat.png", "uploads/images/gallery/2024-01/cat.png", true},
		{"https://evil.example.net/uploads/images/cat.png", "", false},
		{"http://localhost:4000/theme/logo.png", "", false},
		{"/uploads/images/../../etc/passwd", "", false},
		{"../uploads/images/cat.png", "", false},
		{"", "", false},
	}

	for _, c := range cases {
		got, ok := r.ToStoragePath(c.url)
		assert.Equal(t, c.ok, ok, "ToStoragePath(%q) ok", c.url)
		assert.Equal(t, c.want, got, "ToStoragePath(%q) path", c.url)
	}
}

func TestToStoragePathRoundTrip(t *testing.T) {
	r := NewResolver(&storage.Config{
		Backend: storage.BackendLocal,
		AppURL:  "http://localhost:4000",
	})

	original := "uploads/images/drawing/2025-08/sketch.png"
	got, ok := r.ToStoragePath(r.ToPublicURL(original))
	assert.True(t, ok)
	assert.Equal(t, original, got)
}
