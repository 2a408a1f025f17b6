package utils

import (
	"crypto/md5"
	"fmt"
)

// HashString produces a short stable key for cache lookups. Not for security.
func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}
