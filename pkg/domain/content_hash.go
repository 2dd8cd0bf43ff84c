package domain

import dErrors "attestry/pkg/domain-errors"

// ContentHash is an opaque pointer to off-registry descriptive content (for
// example an IPFS CID). The registry treats it as an uninterpreted value.
type ContentHash string

// maxContentHashLen bounds the stored pointer; real content-addressing schemes
// stay well under this.
const maxContentHashLen = 256

// ParseContentHash constructs a ContentHash from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or oversized.
func ParseContentHash(s string) (ContentHash, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content hash cannot be empty")
	}
	if len(s) > maxContentHashLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content hash exceeds maximum length")
	}
	return ContentHash(s), nil
}

// String returns the string representation of the pointer.
func (h ContentHash) String() string {
	return string(h)
}
