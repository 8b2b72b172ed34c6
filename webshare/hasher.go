package webshare

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	_ "github.com/GehirnInc/crypt/md5_crypt"
	_ "github.com/GehirnInc/crypt/sha256_crypt"
	_ "github.com/GehirnInc/crypt/sha512_crypt"

	"wsfetch/internal"
)

// ErrUnsupportedSalt is returned for salts whose $id$ prefix names no known crypt scheme
var ErrUnsupportedSalt = errors.New("unsupported salt format")

const md5CryptPrefix = "$1$"

// HashPassword derives the value the service expects in place of a plaintext
// password: SHA-1 (hex) over the full crypt(3) string of secret under salt.
//
// The salt prefix picks the crypt scheme ($1$ MD5, $5$ SHA-256, $6$ SHA-512).
// Salts without a prefix, as returned by the API, are MD5-crypt salts.
func HashPassword(secret, salt string) (string, error) {
	if !strings.HasPrefix(salt, "$") {
		salt = md5CryptPrefix + salt
	}

	var scheme crypt.Crypt
	switch {
	case strings.HasPrefix(salt, md5CryptPrefix):
		scheme = crypt.MD5
	case strings.HasPrefix(salt, "$5$"):
		scheme = crypt.SHA256
	case strings.HasPrefix(salt, "$6$"):
		scheme = crypt.SHA512
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSalt, salt)
	}
	if !scheme.Available() {
		return "", fmt.Errorf("%w: crypt scheme for %q is not linked in", ErrUnsupportedSalt, salt)
	}

	crypted, err := scheme.New().Generate([]byte(secret), []byte(salt))
	if err != nil {
		return "", fmt.Errorf("crypt: %w", err)
	}

	sum := sha1.Sum([]byte(crypted))
	return hex.EncodeToString(sum[:]), nil
}

// hashForEndpoint hashes with a server-issued salt; a salt the hasher cannot
// use is the server's fault and is reported as an invalid response.
func hashForEndpoint(endpoint, secret, salt string) (string, error) {
	digest, err := HashPassword(secret, salt)
	if err != nil {
		return "", internal.NewInvalidResponseError(endpoint, "server issued an unusable salt", err)
	}
	return digest, nil
}
