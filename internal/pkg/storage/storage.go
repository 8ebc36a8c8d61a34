package storage

import (
	"errors"
	"fmt"

	"github.com/quietpage/quietpage/app/models"
)

// Backend identifiers for the configured default and the override table.
const (
	BackendLocal       = "local"
	BackendLocalSecure = "local_secure"
	BackendS3          = "s3"
)

// ErrNotFound is returned by Get when no object lives at the given path.
var ErrNotFound = errors.New("storage: object not found")

// Gateway is the byte-oriented storage contract. Paths are logical,
// forward-slash separated and relative to the backend root
// (e.g. "uploads/images/gallery/2026-08/cat.png").
type Gateway interface {
	Exists(path string) (bool, error)
	Get(path string) ([]byte, error)
	Put(path string, data []byte) error
	SetPublic(path string) error
	Delete(paths ...string) error
	// Files and Directories list the direct children of dir.
	Files(dir string) ([]string, error)
	Directories(dir string) ([]string, error)
	// AllFiles lists every file below dir recursively.
	AllFiles(dir string) ([]string, error)
	DeleteDirectory(dir string) error
}

// Manager resolves which gateway serves a given image type. The default
// backend comes from config; a fixed override table reroutes the few types
// that must not land on the default (system images stay on the public local
// backend even when the default is secure or remote).
type Manager struct {
	cfg      *Config
	gateways map[string]Gateway
	override map[string]string
}

// NewManager builds all configured gateways once. Construction fails when
// the default backend cannot be initialized.
func NewManager(cfg *Config) (*Manager, error) {
	gateways := map[string]Gateway{
		BackendLocal:       NewLocalGateway(cfg.LocalPath, false),
		BackendLocalSecure: NewLocalGateway(cfg.SecurePath, true),
	}

	if cfg.Backend == BackendS3 {
		s3gw, err := NewS3Gateway(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize s3 backend: %w", err)
		}
		gateways[BackendS3] = s3gw
	}

	return &Manager{
		cfg:      cfg,
		gateways: gateways,
		override: map[string]string{
			models.ImageTypeSystem: BackendLocal,
		},
	}, nil
}

// ForType returns the gateway that stores images of the given type.
func (m *Manager) ForType(imageType string) Gateway {
	if backend, ok := m.override[imageType]; ok {
		return m.gateways[backend]
	}
	return m.gateways[m.cfg.Backend]
}

// Default returns the configured default gateway.
func (m *Manager) Default() Gateway {
	return m.gateways[m.cfg.Backend]
}

// Config returns the resolved storage configuration.
func (m *Manager) Config() *Config {
	return m.cfg
}
