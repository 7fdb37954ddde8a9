// Package cryptox holds the password hashing primitives used by the server.
//
// Digests use the PHC string format so that parameters and salt travel with
// the hash:
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
//
// Salt and hash are unpadded standard base64.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

// Upper bounds accepted when parsing a stored digest. A digest claiming more
// than this is treated as malformed rather than allowed to allocate.
const (
	maxMemoryKiB = 1 << 21 // 2 GiB
	maxTime      = 64
	maxKeyLen    = 1024
)

var errMalformedDigest = errors.New("malformed digest")

// Params are the Argon2id cost parameters.
type Params struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultParams follows the RFC 9106 second recommended option.
var DefaultParams = Params{
	Memory:  64 * 1024,
	Time:    3,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

var b64 = base64.RawStdEncoding

// HashPassword hashes password with DefaultParams and a fresh random salt.
func HashPassword(password []byte) (string, error) {
	return HashPasswordWithParams(password, DefaultParams)
}

// HashPasswordWithParams is HashPassword with explicit cost parameters.
func HashPasswordWithParams(password []byte, p Params) (string, error) {
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 || p.SaltLen == 0 || p.KeyLen == 0 {
		return "", fmt.Errorf("invalid argon2 params: %+v", p)
	}

	salt := common.GenerateRandByteArray(int(p.SaltLen))
	key := deriveKey(password, salt, p)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version, p.Memory, p.Time, p.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword reports whether password matches encoded. A digest that
// cannot be parsed never matches.
func VerifyPassword(password []byte, encoded string) bool {
	p, salt, want, err := decodeDigest(encoded)
	if err != nil {
		return false
	}

	got := deriveKey(password, salt, p)
	defer common.WipeByteArray(got)

	return subtle.ConstantTimeCompare(got, want) == 1
}

// Argon2Hasher adapts the package functions to the hasher interface the
// auth service consumes.
type Argon2Hasher struct {
	Params Params
}

// NewArgon2Hasher returns a hasher using DefaultParams.
func NewArgon2Hasher() Argon2Hasher {
	return Argon2Hasher{Params: DefaultParams}
}

func (h Argon2Hasher) Hash(password string) (string, error) {
	return HashPasswordWithParams([]byte(password), h.Params)
}

func (h Argon2Hasher) Verify(password, digest string) bool {
	return VerifyPassword([]byte(password), digest)
}

func deriveKey(password, salt []byte, p Params) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// decodeDigest splits "$argon2id$v=19$m=..,t=..,p=..$salt$hash".
func decodeDigest(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, errMalformedDigest
	}
	if parts[1] != algorithmID {
		return p, nil, nil, errMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedDigest
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &threads); err != nil {
		return p, nil, nil, errMalformedDigest
	}
	if p.Memory == 0 || p.Memory > maxMemoryKiB || p.Time == 0 || p.Time > maxTime || threads == 0 || threads > 255 {
		return p, nil, nil, errMalformedDigest
	}
	p.Threads = uint8(threads)

	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errMalformedDigest
	}
	hash, err := b64.DecodeString(parts[5])
	if err != nil || len(hash) == 0 || len(hash) > maxKeyLen {
		return p, nil, nil, errMalformedDigest
	}

	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(hash))

	return p, salt, hash, nil
}
