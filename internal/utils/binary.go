package utils

import (
	"net/http"
	"unicode/utf8"
)

// sniffLength bounds the bytes considered when classifying content.
const sniffLength = 8000

// IsBinary reports whether the provided byte slice appears to contain binary data.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	sample := data
	if len(sample) > sniffLength {
		sample = sample[:sniffLength]
	}
	if !utf8.Valid(sample) {
		return true
	}
	for _, byteValue := range sample {
		if byteValue == 0 {
			return true
		}
	}
	return false
}

// DetectMimeType sniffs the MIME type of already-read content.
func DetectMimeType(data []byte) string {
	sample := data
	if len(sample) > sniffLength {
		sample = sample[:sniffLength]
	}
	return http.DetectContentType(sample)
}
