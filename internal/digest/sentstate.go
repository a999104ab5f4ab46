package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/decoders-hk/centre-assistant-go/internal/objstore"
)

// SentState remembers which days already had their digest delivered.
type SentState interface {
	WasSent(ctx context.Context, day string) (bool, error)
	// MarkSent records day as done and keeps body for audit. It returns
	// false when day was already marked.
	MarkSent(ctx context.Context, day string, items int, body string) (bool, error)
	// Lock guards one digest run across replicas. ok is false when another
	// holder has it; unlock is always safe to call.
	Lock(ctx context.Context) (unlock func(), ok bool, err error)
}

// MemorySentState is a single-process SentState.
type MemorySentState struct {
	mu   sync.Mutex
	run  sync.Mutex
	sent map[string]string
}

// NewMemorySentState returns an empty MemorySentState.
func NewMemorySentState() *MemorySentState {
	return &MemorySentState{sent: make(map[string]string)}
}

func (m *MemorySentState) WasSent(_ context.Context, day string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sent[day]
	return ok, nil
}

func (m *MemorySentState) MarkSent(_ context.Context, day string, _ int, body string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sent[day]; ok {
		return false, nil
	}
	m.sent[day] = body
	return true, nil
}

func (m *MemorySentState) Lock(context.Context) (func(), bool, error) {
	if !m.run.TryLock() {
		return func() {}, false, nil
	}
	return m.run.Unlock, true, nil
}

// Body returns the recorded body for day.
func (m *MemorySentState) Body(day string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.sent[day]
	return b, ok
}

type sentMarker struct {
	Day    string `json:"day"`
	Items  int    `json:"items"`
	SentAt int64  `json:"sent_at"`
}

// S3SentState keeps one marker object per day plus a zstd copy of the
// delivered body, so every replica agrees on what went out.
type S3SentState struct {
	client  *objstore.Client
	prefix  string
	lockTTL time.Duration
	now     func() time.Time
}

// NewS3SentState stores markers under prefix in the client's bucket.
func NewS3SentState(client *objstore.Client, prefix string) *S3SentState {
	return &S3SentState{
		client:  client,
		prefix:  prefix,
		lockTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

func (s *S3SentState) markerKey(day string) string { return s.prefix + day + "/sent.json" }

func (s *S3SentState) bodyKey(day string) string { return s.prefix + day + "/digest.txt.zst" }

func (s *S3SentState) WasSent(ctx context.Context, day string) (bool, error) {
	ok, err := s.client.Exists(ctx, s.markerKey(day))
	if err != nil {
		return false, fmt.Errorf("digest: check sent marker: %w", err)
	}
	return ok, nil
}

func (s *S3SentState) MarkSent(ctx context.Context, day string, items int, body string) (bool, error) {
	data, err := json.Marshal(sentMarker{Day: day, Items: items, SentAt: s.now().Unix()})
	if err != nil {
		return false, fmt.Errorf("digest: marshal sent marker: %w", err)
	}

	created, _, err := s.client.PutObjectIfNotExists(ctx, s.markerKey(day), bytes.NewReader(data), "application/json")
	if err != nil {
		return false, fmt.Errorf("digest: write sent marker: %w", err)
	}
	if !created || body == "" {
		return created, nil
	}

	if _, err := s.client.UploadCompressed(ctx, s.bodyKey(day), []byte(body)); err != nil {
		return true, fmt.Errorf("digest: archive body: %w", err)
	}
	return true, nil
}

func (s *S3SentState) Lock(ctx context.Context) (func(), bool, error) {
	lock := objstore.NewLock(s.client, s.prefix+"run.lock", s.lockTTL)
	ok, err := lock.Acquire(ctx)
	if err != nil || !ok {
		return func() {}, false, err
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		_ = lock.Release(releaseCtx)
	}, true, nil
}
