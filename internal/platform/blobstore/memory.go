package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	DriverMemory = "memory"
	DriverS3     = "s3"
)

type memoryObject struct {
	info    Info
	content []byte
}

// MemoryStore keeps objects in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

func (s *MemoryStore) Driver() string { return DriverMemory }

func (s *MemoryStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Info{}, fmt.Errorf("read content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; ok {
		return Info{}, ErrBlobExists
	}
	info := Info{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  contentType,
		LastModified: s.now().UTC(),
	}
	s.objects[key] = memoryObject{info: info, content: data}
	return info, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()

	if !ok {
		return Info{}, nil, ErrBlobNotFound
	}
	return obj.info, io.NopCloser(bytes.NewReader(obj.content)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return ErrBlobNotFound
	}
	delete(s.objects, key)
	return nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
