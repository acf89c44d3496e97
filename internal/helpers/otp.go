package helpers

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strconv"
)

const (
	codeFloor = 100000
	codeSpan  = 900000
)

// GenerateCode returns a uniformly random six digit code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(codeFloor+n.Int64(), 10), nil
}

// DigestCode returns the lowercase hex SHA-256 of the code.
func DigestCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// CodeMatches compares the digest of code with the stored digest in constant time.
func CodeMatches(code string, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(DigestCode(code)), []byte(digest)) == 1
}
