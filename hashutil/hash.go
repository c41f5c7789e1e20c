// Package hashutil provides the hashing and address-derivation
// primitives. Every other package reaches for this instead of calling
// crypto/sha256 directly, keeping a single hashing surface.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

// Sha256Hex concatenates the UTF-8 encoding of each string part and
// returns the lowercase hex SHA-256 digest.
func Sha256Hex(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Sha256Bytes hashes raw bytes and returns the lowercase hex digest.
func Sha256Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func toBase36(n int) byte {
	if n < 0 || n >= len(base36Alphabet) {
		n = 0
	}
	return base36Alphabet[n]
}

// MakeV2Address derives the 10-character v2 address from a private key.
// The algorithm is bit-stable: the same key always yields the same
// address.
func MakeV2Address(privateKey string) string {
	h := Sha256Hex(Sha256Hex(privateKey))

	var c [9]string
	for i := 0; i < 9; i++ {
		c[i] = h[0:2]
		h = Sha256Hex(Sha256Hex(h))
	}

	out := []byte{'t'}
	j := 0
	for len(out) < 10 {
		idxHex := h[2*j : 2*j+2]
		idx := hexByteToInt(idxHex) % 9

		if c[idx] == "" {
			h = Sha256Hex(h)
			continue
		}

		v := hexByteToInt(c[idx]) % 36
		out = append(out, toBase36(v))
		c[idx] = ""
		j++
	}

	return string(out)
}

func hexByteToInt(s string) int {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) == 0 {
		return 0
	}
	return int(b[0])
}

var (
	reV2Only   = regexp.MustCompile(`^t[a-z0-9]{9}$`)
	reAnyAddr  = regexp.MustCompile(`^(t[a-z0-9]{9}|[a-f0-9]{10})$`)
	reName     = regexp.MustCompile(`^[a-z0-9]{1,64}$`)
	reNameFetch = regexp.MustCompile(`^(xn--)?[a-z0-9]{1,64}$`)
	reMetadata = regexp.MustCompile(`^[\x20-\x7F\n]{1,255}$`)
	reARecord  = regexp.MustCompile(`^[^\s.?#].[^\s]*$`)
)

func IsV2Address(s string) bool  { return reV2Only.MatchString(s) }
func IsAnyAddress(s string) bool { return reAnyAddr.MatchString(s) }
func IsValidName(s string) bool  { return reName.MatchString(s) }
func IsValidNameForFetch(s string) bool { return reNameFetch.MatchString(s) }
func IsValidMetadata(s string) bool { return len(s) <= 255 && reMetadata.MatchString(s) }
func IsValidARecord(s string) bool  { return len(s) <= 255 && reARecord.MatchString(s) }
