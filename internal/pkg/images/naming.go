package images

import (
	"path"
	"strings"
	"time"
)

// UploadBasePath is the root of the image namespace on every backend.
// Year-month partitioning below it keeps directory sizes bounded.
const UploadBasePath = "uploads/images"

// BuildSourcePath picks the storage path for a new upload. The candidate
// name is probed against storage and gets a fresh random 3-character prefix
// until it is free. With secure uploads enabled a random 16-character token
// is prepended to the final name; that variant is not probed again, the
// token alone makes a collision negligible.
func BuildSourcePath(originalName, imageType string, secureUploads bool, exists func(string) (bool, error)) (string, error) {
	fileName, err := cleanFileName(originalName)
	if err != nil {
		return "", err
	}

	dir := path.Join(UploadBasePath, imageType, time.Now().Format("2006-01"))

	candidate := path.Join(dir, fileName)
	for {
		found, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !found {
			break
		}
		prefix, err := randomString(3)
		if err != nil {
			return "", err
		}
		candidate = path.Join(dir, prefix+fileName)
	}

	if secureUploads {
		token, err := randomString(16)
		if err != nil {
			return "", err
		}
		candidate = path.Join(dir, token+"-"+path.Base(candidate))
	}

	return candidate, nil
}

// cleanFileName slugifies the name stem and keeps the extension as given.
// Names that slugify to nothing get a random 10-character stem instead.
func cleanFileName(name string) (string, error) {
	ext := path.Ext(name)
	stem := slugify(strings.TrimSuffix(name, ext))
	if stem == "" {
		random, err := randomString(10)
		if err != nil {
			return "", err
		}
		stem = random
	}
	return stem + ext, nil
}

// slugify reduces a name to lower-case ASCII letters, digits and single
// hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // swallow leading separators
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
