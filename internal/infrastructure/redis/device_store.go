package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"

	"github.com/urbanfrill/storefront/pkg/e"
)

// DeviceStore keeps per-device key/value data, the server-side stand-in for
// a browser's local storage. Values are JSON.
type DeviceStore struct {
	client *Client
	ttl    time.Duration
}

// NewDeviceStore creates a DeviceStore. A zero ttl keeps keys forever.
func NewDeviceStore(client *Client, ttl time.Duration) *DeviceStore {
	return &DeviceStore{client: client, ttl: ttl}
}

// Get decodes the value into dst. It reports false when the key is absent.
func (s *DeviceStore) Get(ctx context.Context, device, key string, dst any) (bool, error) {
	data, err := s.client.Client.Get(ctx, deviceKey(device, key)).Bytes()
	if errors.Is(err, r.Nil) {
		return false, nil
	}
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}
	return true, nil
}

func (s *DeviceStore) Set(ctx context.Context, device, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := s.client.Client.Set(ctx, deviceKey(device, key), data, s.ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	return nil
}

func (s *DeviceStore) Delete(ctx context.Context, device, key string) error {
	if err := s.client.Client.Del(ctx, deviceKey(device, key)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	return nil
}

func deviceKey(device, key string) string {
	return fmt.Sprintf("uf:device:%s:%s", device, key)
}
