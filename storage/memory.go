package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/tournament-finder/models"
)

type memoryObject struct {
	contentType string
	body        []byte
	createdAt   time.Time
}

// MemoryStorage keeps uploads in process. It backs local runs without a
// bucket and the handler tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	base    *url.URL
	now     func() time.Time
}

func NewMemoryStorage(publicBaseURL string) (*MemoryStorage, error) {
	base, err := url.Parse(publicBaseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: public base url %q", ErrInvalidConfig, publicBaseURL)
	}
	return &MemoryStorage{
		objects: make(map[string]memoryObject),
		base:    base,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (m *MemoryStorage) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, fmt.Errorf("failed to read upload (key: %s): %w", key, err)
	}
	m.mu.Lock()
	m.objects[key] = memoryObject{contentType: contentType, body: buf.Bytes(), createdAt: m.now()}
	m.mu.Unlock()
	return &UploadResult{Key: key, Location: m.GetPublicURL(key)}, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) GetPublicURL(key string) string {
	return publicURL(m.base, key)
}

func (m *MemoryStorage) Resolve(ctx context.Context, handles []string) ([]models.Image, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	images := make([]models.Image, 0, len(handles))
	for _, key := range handles {
		obj, ok := m.objects[key]
		if !ok {
			continue
		}
		images = append(images, *imageRecord(m.base, key, obj.createdAt))
	}
	return images, nil
}

// ServeHTTP serves stored objects by key, so public URLs work in local runs.
// Mount it with the public base path stripped.
func (m *MemoryStorage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", obj.contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.body)))
	_, _ = w.Write(obj.body)
}
