// Package publisher uploads captured stills to a blob store and returns a
// durable reference to them.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventorycam/internal/blob"
	"inventorycam/internal/camera"
	"inventorycam/internal/logger"
)

// KeyPrefix is the directory captured images are stored under.
const KeyPrefix = "images/"

// Kind classifies publish failures.
type Kind int

const (
	// NetworkError means the store could not be reached or did not answer.
	NetworkError Kind = iota + 1
	// RemoteRejected means the store answered and refused the request.
	RemoteRejected
)

func (k Kind) String() string {
	switch k {
	case NetworkError:
		return "network error"
	case RemoteRejected:
		return "remote rejected"
	default:
		return "unknown"
	}
}

// Error is returned when either step of a publish fails.
type Error struct {
	Kind Kind
	Step string // "put" or "resolve"
	Key  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("publisher: %s %s: %s: %v", e.Step, e.Key, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRejected reports whether err is a publish failure refused by the store.
func IsRejected(err error) bool {
	var pubErr *Error
	return errors.As(err, &pubErr) && pubErr.Kind == RemoteRejected
}

// Artifact is the durable reference to a published still.
type Artifact struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// Publisher hands stills to a blob store. It never retries.
type Publisher struct {
	store  blob.Store
	logger *logger.Logger
	now    func() time.Time
}

// New creates a publisher writing to store.
func New(store blob.Store, logger *logger.Logger) *Publisher {
	return &Publisher{store: store, logger: logger, now: time.Now}
}

// Publish uploads the still under a timestamp-derived key and resolves its URL.
// Keys produced within the same clock tick collide and the last write wins.
func (p *Publisher) Publish(ctx context.Context, still camera.StillImage) (Artifact, error) {
	key := p.Key()

	handle, err := p.store.Put(ctx, key, []byte(still.DataURL()), blob.EncodingDataURL)
	if err != nil {
		return Artifact{}, wrap("put", key, err)
	}

	url, err := p.store.ResolveURL(ctx, handle)
	if err != nil {
		return Artifact{}, wrap("resolve", key, err)
	}

	p.logger.Info("Image uploaded to %s", url)
	return Artifact{Key: handle.Key, URL: url, PublishedAt: p.now()}, nil
}

// Key returns the object key for a publish happening now.
func (p *Publisher) Key() string {
	return KeyPrefix + p.now().UTC().Format(time.RFC3339Nano) + ".png"
}

func wrap(step, key string, err error) error {
	kind := NetworkError
	if errors.Is(err, blob.ErrRejected) {
		kind = RemoteRejected
	}
	return &Error{Kind: kind, Step: step, Key: key, Err: err}
}
