package utils

import (
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/quietpage/quietpage/internal/pkg/env"
)

// GetGravatarURL generates an avatar URL for the given email address.
// Default size is 500px if not specified. The endpoint can be replaced via
// AVATAR_URL for installations that proxy or self-host avatars.
func GetGravatarURL(email string, size int) string {
	if size <= 0 {
		size = 500
	}

	// Gravatar hashes the trimmed, lowercased address
	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	hash := md5.Sum([]byte(email))
	hashString := fmt.Sprintf("%x", hash)

	base := strings.TrimRight(env.GetEnv("AVATAR_URL", "https://www.gravatar.com/avatar"), "/")
	return fmt.Sprintf("%s/%s?s=%d&d=identicon", base, hashString, size)
}
