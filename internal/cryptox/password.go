// Package cryptox implements the one-way password digest stored in the local
// user cache. The digest is argon2id with a per-user random salt; plaintext
// passwords are never persisted.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"profilekeeper/internal/common"
)

// argon2id parameters. Kept in one place so encoded digests stay verifiable
// if defaults change later (the encoding carries the parameters used).
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

var ErrMalformedDigest = errors.New("malformed password digest")

// HashPassword derives a salted argon2id digest of password and returns it in
// PHC string format: $argon2id$v=19$m=...,t=...,p=...$<salt>$<key>.
func HashPassword(password []byte) string {
	salt := common.GenerateRandByteArray(saltLen)
	key := argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		b64.EncodeToString(salt), b64.EncodeToString(key))
}

// VerifyPassword reports whether password matches the encoded digest.
// The comparison is constant-time.
func VerifyPassword(password []byte, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, ErrMalformedDigest
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported version %d", ErrMalformedDigest, version)
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrMalformedDigest
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return false, ErrMalformedDigest
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return false, ErrMalformedDigest
	}

	candidate := argon2.IDKey(password, salt, time, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}
