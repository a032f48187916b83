// Package datauri provides RFC 2397 data URI encoding and decoding, used to
// embed header images directly in an email document.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"
)

const scheme = "data:"

// defaultMediaType applies when a data URI omits its media type.
const defaultMediaType = "text/plain;charset=US-ASCII"

var ErrMalformed = errors.New("malformed data URI")

// Encode returns a base64 data URI for content of the given media type.
func Encode(mediaType string, content []byte) string {
	var b strings.Builder
	b.Grow(len(scheme) + len(mediaType) + len(";base64,") + base64.StdEncoding.EncodedLen(len(content)))
	b.WriteString(scheme)
	b.WriteString(mediaType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(content))
	return b.String()
}

// IsDataURI reports whether s uses the data: scheme.
func IsDataURI(s string) bool {
	return len(s) >= len(scheme) && strings.EqualFold(s[:len(scheme)], scheme)
}

// Decode parses a data URI and returns its media type (without parameters)
// and decoded content. Base64 payloads may contain line breaks and may omit
// padding; other payloads are percent-decoded.
func Decode(uri string) (string, []byte, error) {
	if !IsDataURI(uri) {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrMalformed)
	}

	header, payload, ok := strings.Cut(uri[len(scheme):], ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing comma", ErrMalformed)
	}

	isBase64 := false
	if h, found := strings.CutSuffix(header, ";base64"); found {
		header = h
		isBase64 = true
	}
	switch {
	case header == "":
		header = defaultMediaType
	case strings.HasPrefix(header, ";"):
		header = "text/plain" + header
	}

	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if !isBase64 {
		content, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return mediaType, []byte(content), nil
	}

	cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(payload)
	content, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		// Unpadded payloads are common in hand-written URIs.
		content, err = base64.RawStdEncoding.DecodeString(cleaned)
		if err != nil {
			return "", nil, fmt.Errorf("%w: failed to decode base64 content: %v", ErrMalformed, err)
		}
	}

	return mediaType, content, nil
}
