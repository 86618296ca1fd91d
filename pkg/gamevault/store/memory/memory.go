package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/canvasforge/gamevault/pkg/gamevault"
)

// Store is an in-memory implementation of the gamevault.ContentStore
// interface, intended for tests and development.
type Store struct {
	mu          sync.RWMutex
	payloads    map[string][]byte
	contentType map[string]string
	labels      map[string]map[string]string
	maxSize     int64
}

// Option configures the in-memory store.
type Option func(*Store)

// WithMaxSize overrides the payload size ceiling.
func WithMaxSize(n int64) Option {
	return func(s *Store) {
		s.maxSize = n
	}
}

// New creates a new in-memory content store
func New(opts ...Option) *Store {
	s := &Store{
		payloads:    make(map[string][]byte),
		contentType: make(map[string]string),
		labels:      make(map[string]map[string]string),
		maxSize:     gamevault.DefaultMaxContentSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores a payload keyed by the hex SHA-256 of its bytes, so identical
// payloads share one entry and the handle is stable.
func (s *Store) Put(ctx context.Context, req gamevault.PutRequest) (*gamevault.ContentRef, error) {
	if len(req.Data) == 0 {
		return nil, &gamevault.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if int64(len(req.Data)) > s.maxSize {
		return nil, &gamevault.ValidationError{
			Field:  "content",
			Reason: fmt.Sprintf("exceeds maximum size of %d bytes", s.maxSize),
		}
	}

	sum := sha256.Sum256(req.Data)
	id := hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()

	data := append([]byte(nil), req.Data...)
	s.payloads[id] = data
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	s.contentType[id] = contentType
	if len(req.Labels) > 0 {
		labels := make(map[string]string, len(req.Labels))
		for k, v := range req.Labels {
			labels[k] = v
		}
		s.labels[id] = labels
	}

	return &gamevault.ContentRef{
		ID:        id,
		URL:       "memory://" + id,
		SizeBytes: int64(len(data)),
	}, nil
}

// Get retrieves a stored payload by its reference ID.
func (s *Store) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.payloads[id]
	if !exists {
		return nil, gamevault.ErrContentNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes a stored payload.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payloads[id]; !exists {
		return gamevault.ErrContentNotFound
	}

	delete(s.payloads, id)
	delete(s.contentType, id)
	delete(s.labels, id)
	return nil
}

// Labels returns the label metadata recorded with a stored payload. Test
// helper; the production store keeps labels on the backing objects.
func (s *Store) Labels(id string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.labels[id]
}
