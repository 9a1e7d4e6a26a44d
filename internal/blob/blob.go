// Package blob defines the blob store capability used to publish captured images.
package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrRejected marks errors where the remote store refused the request, as
// opposed to failing to reach it.
var ErrRejected = errors.New("blob: rejected by store")

// Encoding describes how data passed to Put is encoded.
type Encoding int

const (
	// EncodingRaw means data is the object payload as-is.
	EncodingRaw Encoding = iota
	// EncodingDataURL means data is a "data:<mime>;base64,<payload>" string.
	EncodingDataURL
)

func (e Encoding) String() string {
	switch e {
	case EncodingRaw:
		return "raw"
	case EncodingDataURL:
		return "data_url"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// Handle identifies a stored object.
type Handle struct {
	Key      string
	Location string
}

// Store is an external blob store.
type Store interface {
	// Put writes data under key and returns a handle to the stored object.
	Put(ctx context.Context, key string, data []byte, encoding Encoding) (Handle, error)

	// ResolveURL returns a retrievable URL for the stored object.
	ResolveURL(ctx context.Context, h Handle) (string, error)
}

// Deleter is implemented by stores that can remove objects.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Decode returns the payload and content type described by data.
func Decode(data []byte, encoding Encoding) ([]byte, string, error) {
	switch encoding {
	case EncodingRaw:
		return data, "application/octet-stream", nil
	case EncodingDataURL:
		return decodeDataURL(string(data))
	default:
		return nil, "", fmt.Errorf("%w: unsupported encoding %s", ErrRejected, encoding)
	}
}

func decodeDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", fmt.Errorf("%w: not a data URL", ErrRejected)
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: data URL has no payload", ErrRejected)
	}

	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if contentType == "" {
		contentType = "text/plain"
	}

	if !isBase64 {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrRejected, err)
		}
		return []byte(unescaped), contentType, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid base64 payload: %v", ErrRejected, err)
	}
	return decoded, contentType, nil
}

// ValidateKey rejects empty keys and keys that escape the store root.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: invalid key %q", ErrRejected, key)
	}
	if cleaned := path.Clean(key); cleaned != key || strings.HasPrefix(cleaned, "..") {
		return fmt.Errorf("%w: invalid key %q", ErrRejected, key)
	}
	return nil
}
