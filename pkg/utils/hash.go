// pkg/utils/hash.go - utility functions for hashing files.

package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
)

// FileSHA256 returns the SHA256 sum of a file.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return ReaderSHA256(f)
}

// ReaderSHA256 returns the SHA256 sum of everything read from r.
func ReaderSHA256(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify checks if a file's hash matches the expected hash.
func Verify(file string, expectedHash string) bool {
	actual, err := FileSHA256(file)
	if err != nil {
		return false
	}
	return strings.EqualFold(actual, expectedHash)
}
