package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/mindmaster/mindmapd/internal/common"
)

// PasswordIterations is the pbkdf2 iteration count. Existing hashes encode
// their own salt, so changing this only affects newly set passwords.
const PasswordIterations = 200_000

const (
	saltSize   = 16
	digestSize = sha256.Size
)

var errEmptyPassword = errors.New("empty password")

// HashPassword derives a verifier for the password: a fresh random salt and
// a pbkdf2-sha256 digest, hex-encoded as "salt$digest" so verification is
// self-contained.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errEmptyPassword
	}
	salt := common.GenerateRandByteArray(saltSize)
	digest := pbkdf2.Key([]byte(password), salt, PasswordIterations, digestSize, sha256.New)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(digest), nil
}

// VerifyPassword recomputes the digest with the stored salt and compares in
// constant time, so the comparison does not leak where a mismatch occurs.
func VerifyPassword(password, stored string) bool {
	saltHex, digestHex, ok := strings.Cut(stored, "$")
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(digestHex)
	if err != nil || len(expected) != digestSize {
		return false
	}
	candidate := pbkdf2.Key([]byte(password), salt, PasswordIterations, digestSize, sha256.New)
	return subtle.ConstantTimeCompare(candidate, expected) == 1
}
