package server

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// stubStore is an in-memory recordStore for handler tests.
type stubStore struct {
	mu      sync.Mutex
	records map[string]*FileRecord
	created []*FileRecord

	createErr error
	findErr   error

	increments chan string
}

func newStubStore() *stubStore {
	return &stubStore{
		records:    make(map[string]*FileRecord),
		increments: make(chan string, 16),
	}
}

func (s *stubStore) add(rec *FileRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.OriginalName] = rec
}

func (s *stubStore) Create(ctx context.Context, storagePath, originalName string, passwordHash *string) (uuid.UUID, error) {
	if s.createErr != nil {
		return uuid.Nil, s.createErr
	}
	rec := &FileRecord{
		ID:           uuid.New(),
		StoragePath:  storagePath,
		OriginalName: originalName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[originalName] = rec
	s.created = append(s.created, rec)
	return rec.ID, nil
}

func (s *stubStore) FindByName(ctx context.Context, name string) (*FileRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[name]
	if !ok {
		return nil, ErrFileNotFound
	}
	return rec, nil
}

func (s *stubStore) IncrementDownloadCount(ctx context.Context, name string) error {
	s.mu.Lock()
	if rec, ok := s.records[name]; ok {
		rec.DownloadCount++
	}
	s.mu.Unlock()
	s.increments <- name
	return nil
}

// waitIncrement blocks until the fire-and-forget counter write lands.
func (s *stubStore) waitIncrement(t *testing.T) string {
	t.Helper()
	select {
	case name := <-s.increments:
		return name
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for download count increment")
		return ""
	}
}

// assertNoIncrement verifies no counter write was issued.
func (s *stubStore) assertNoIncrement(t *testing.T) {
	t.Helper()
	select {
	case name := <-s.increments:
		t.Fatalf("unexpected download count increment for %q", name)
	case <-time.After(50 * time.Millisecond):
	}
}

// stubBlobs is an in-memory blobStorage for handler tests.
type stubBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	putErr error
	getErr error
}

func newStubBlobs() *stubBlobs {
	return &stubBlobs{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (b *stubBlobs) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	if b.putErr != nil {
		return b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	b.types[key] = contentType
	return nil
}

func (b *stubBlobs) Get(ctx context.Context, key string) (io.ReadCloser, BlobInfo, error) {
	if b.getErr != nil {
		return nil, BlobInfo{}, b.getErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, BlobInfo{}, ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), BlobInfo{ContentType: b.types[key], Size: int64(len(data))}, nil
}

func (b *stubBlobs) Ping(ctx context.Context) error {
	return nil
}

// newTestServer builds a Server around stubs, skipping the database pool.
func newTestServer(store recordStore, blobs blobStorage) *Server {
	return &Server{cfg: Config{}, store: store, blobs: blobs}
}
