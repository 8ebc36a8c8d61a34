package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

// LocalGateway stores objects as plain files below a root directory.
// The public variant lives under a statically served root, the secure
// variant under a root the web server never exposes.
type LocalGateway struct {
	root   string
	secure bool
}

// NewLocalGateway creates a local gateway rooted at root.
func NewLocalGateway(root string, secure bool) *LocalGateway {
	return &LocalGateway{root: root, secure: secure}
}

func (g *LocalGateway) fileMode() os.FileMode {
	if g.secure {
		return 0640
	}
	return 0644
}

// fullPath maps a logical storage path onto the filesystem. Logical paths
// must stay below the root; anything absolute or dot-dot escaping is
// rejected.
func (g *LocalGateway) fullPath(logical string) (string, error) {
	cleaned := path.Clean("/" + logical)
	if cleaned == "/" || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid storage path %q", logical)
	}
	return filepath.Join(g.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

func (g *LocalGateway) Exists(logical string) (bool, error) {
	full, err := g.fullPath(logical)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (g *LocalGateway) Get(logical string) ([]byte, error) {
	full, err := g.fullPath(logical)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, logical)
		}
		return nil, err
	}
	return data, nil
}

func (g *LocalGateway) Put(logical string, data []byte) error {
	full, err := g.fullPath(logical)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, data, g.fileMode()); err != nil {
		// Clean up partial file
		os.Remove(full)
		return fmt.Errorf("failed to write file %s: %w", logical, err)
	}
	return nil
}

func (g *LocalGateway) SetPublic(logical string) error {
	full, err := g.fullPath(logical)
	if err != nil {
		return err
	}
	return os.Chmod(full, 0644)
}

func (g *LocalGateway) Delete(logicals ...string) error {
	for _, logical := range logicals {
		full, err := g.fullPath(logical)
		if err != nil {
			return err
		}
		if err := os.Remove(full); err != nil {
			if os.IsNotExist(err) {
				// Already gone, fine
				continue
			}
			return fmt.Errorf("failed to delete file %s: %w", logical, err)
		}
	}
	return nil
}

func (g *LocalGateway) Files(dir string) ([]string, error) {
	entries, err := g.readDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func (g *LocalGateway) Directories(dir string) ([]string, error) {
	entries, err := g.readDir(dir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, path.Join(dir, entry.Name()))
		}
	}
	return dirs, nil
}

func (g *LocalGateway) readDir(dir string) ([]os.DirEntry, error) {
	full, err := g.fullPath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

func (g *LocalGateway) AllFiles(dir string) ([]string, error) {
	fullDir, err := g.fullPath(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	walkErr := filepath.WalkDir(fullDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(fullDir, p)
		if err != nil {
			return err
		}
		files = append(files, path.Join(dir, filepath.ToSlash(rel)))
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return files, nil
}

func (g *LocalGateway) DeleteDirectory(dir string) error {
	full, err := g.fullPath(dir)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("failed to delete directory %s: %w", dir, err)
	}
	log.Debugf("[Storage] Removed directory %s", dir)
	return nil
}
