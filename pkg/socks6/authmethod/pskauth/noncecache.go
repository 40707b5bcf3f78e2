package pskauth

import (
	"context"
	"sync"
	"time"
)

// nonceCache tracks recently seen AEAD nonces so a captured
// AuthenticationData option cannot be replayed within its expiry
// window.
type nonceCache struct {
	storage    sync.Map
	expiryTime time.Duration
}

func newNonceCache(expiryTime time.Duration) *nonceCache {
	return &nonceCache{expiryTime: expiryTime}
}

func (nc *nonceCache) Exists(nonce []byte) bool {
	_, exists := nc.storage.Load(string(nonce))
	return exists
}

func (nc *nonceCache) Store(nonce []byte) {
	nc.storage.Store(string(nonce), time.Now().Unix())
}

func (nc *nonceCache) cleanupExpired() {
	now := time.Now().Unix()
	expirySeconds := int64(nc.expiryTime.Seconds())
	nc.storage.Range(func(key, value any) bool {
		if now-value.(int64) > expirySeconds {
			nc.storage.Delete(key)
		}
		return true
	})
}

// startCleanupRoutine runs cleanupExpired on every tick of interval
// until ctx is cancelled.
func (nc *nonceCache) startCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				nc.cleanupExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}
