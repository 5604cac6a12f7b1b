package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"

	"github.com/urbanfrill/storefront/pkg/e"
)

var ErrBackupNotFound = errors.New("backup not found")

// BackupStore keeps best-effort copies of orders written before the
// authoritative save is attempted.
type BackupStore struct {
	client *Client
	ttl    time.Duration
}

func NewBackupStore(client *Client, ttl time.Duration) *BackupStore {
	return &BackupStore{client: client, ttl: ttl}
}

func (s *BackupStore) Backup(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := s.client.Client.Set(ctx, backupKey(key), data, s.ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	return nil
}

// Restore decodes a backup into dst.
func (s *BackupStore) Restore(ctx context.Context, key string, dst any) error {
	data, err := s.client.Client.Get(ctx, backupKey(key)).Bytes()
	if errors.Is(err, r.Nil) {
		return ErrBackupNotFound
	}
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	return json.Unmarshal(data, dst)
}

func backupKey(key string) string {
	return "uf:" + key
}
