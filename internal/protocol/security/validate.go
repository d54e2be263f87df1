// Package security holds the checks that gate every filename, declared size
// and credential before storage or session state is touched.
package security

import "strings"

const (
	// MaxFilenameLength is the longest filename accepted, in bytes.
	MaxFilenameLength = 255

	// MaxFileSize is the largest declared upload size accepted (1 GiB).
	MaxFileSize uint64 = 1 << 30
)

// IsSafeFilename reports whether name may be used as a storage path
// component. It rejects the empty string, names longer than
// MaxFilenameLength, any occurrence of "..", either path separator and NUL.
//
// No filename reaches the storage layer without passing this check.
func IsSafeFilename(name string) bool {
	if name == "" || len(name) > MaxFilenameLength {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

// IsAcceptableSize reports whether n is a valid declared upload size.
func IsAcceptableSize(n uint64) bool {
	return n > 0 && n <= MaxFileSize
}
