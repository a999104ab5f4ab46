package objstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// LockInfo is the JSON body of a lock object.
type LockInfo struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Lock is a lease held by creating an object with a conditional write.
// An expired lease may be taken over by another owner.
type Lock struct {
	client  *Client
	key     string
	ttl     time.Duration
	ownerID string
	etag    string
	now     func() time.Time
}

// NewLock returns an unheld lock on key.
func NewLock(client *Client, key string, ttl time.Duration) *Lock {
	return &Lock{
		client:  client,
		key:     key,
		ttl:     ttl,
		ownerID: uuid.New().String(),
		now:     time.Now,
	}
}

// OwnerID identifies this lock instance.
func (l *Lock) OwnerID() string { return l.ownerID }

// Acquire returns true if the lease is now held by this instance.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	data, err := l.body()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}

	created, etag, err := l.client.PutObjectIfNotExists(ctx, l.key, bytes.NewReader(data), "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if created {
		l.etag = etag
		return true, nil
	}

	expired, oldEtag, err := l.checkExpired(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire lock: check expired: %w", err)
	}
	if !expired {
		return false, nil
	}

	if oldEtag == "" {
		// Released between our put and read; try a fresh create once.
		created, etag, err = l.client.PutObjectIfNotExists(ctx, l.key, bytes.NewReader(data), "application/json")
		if err != nil {
			return false, fmt.Errorf("acquire lock: %w", err)
		}
		if created {
			l.etag = etag
		}
		return created, nil
	}

	stolen, newEtag, err := l.client.PutObjectIfMatch(ctx, l.key, bytes.NewReader(data), oldEtag, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: steal: %w", err)
	}
	if stolen {
		l.etag = newEtag
	}
	return stolen, nil
}

// Release deletes the lock object if this instance still owns it.
func (l *Lock) Release(ctx context.Context) error {
	body, _, err := l.client.Download(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("release lock: verify: %w", err)
	}
	data, err := io.ReadAll(body)
	_ = body.Close()
	if err != nil {
		return fmt.Errorf("release lock: read: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err == nil && info.Owner != l.ownerID {
		return nil
	}
	l.etag = ""
	return l.client.DeleteObject(ctx, l.key)
}

func (l *Lock) body() ([]byte, error) {
	return json.Marshal(LockInfo{Owner: l.ownerID, ExpiresAt: l.now().Add(l.ttl)})
}

// checkExpired returns the current ETag when the held lease has expired,
// or "" if the object disappeared.
func (l *Lock) checkExpired(ctx context.Context) (bool, string, error) {
	body, etag, err := l.client.Download(ctx, l.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return true, "", nil
		}
		return false, "", err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return false, "", fmt.Errorf("read lock: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return true, etag, nil
	}
	return l.now().After(info.ExpiresAt), etag, nil
}
