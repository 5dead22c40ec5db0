package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix    = "entangledu:slot:"
	redisValueField   = "value"
	redisVersionField = "version"
)

// Redis keeps each slot in a hash {value, version}. Writes bump the version
// inside MULTI and publish it on the slot's channel.
type Redis struct {
	client redis.UniversalClient

	mu     sync.Mutex
	subs   map[*redis.PubSub]struct{}
	closed bool
}

// NewRedis wraps client. The caller keeps ownership of the client.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client, subs: make(map[*redis.PubSub]struct{})}
}

func hashKey(key string) string {
	return redisKeyPrefix + key
}

func channelKey(key string) string {
	return redisKeyPrefix + key + ":changes"
}

func (r *Redis) Get(ctx context.Context, key string) (Entry, error) {
	fields, err := r.client.HGetAll(ctx, hashKey(key)).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("read slot %s: %w", key, err)
	}
	value, ok := fields[redisValueField]
	if !ok {
		return Entry{}, ErrNotFound
	}
	version, err := strconv.ParseInt(fields[redisVersionField], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("read slot %s: bad version: %w", key, err)
	}
	return Entry{Value: []byte(value), Version: version}, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) (int64, error) {
	return r.write(ctx, key, func(p redis.Pipeliner) {
		p.HSet(ctx, hashKey(key), redisValueField, value)
	})
}

func (r *Redis) Delete(ctx context.Context, key string) (int64, error) {
	return r.write(ctx, key, func(p redis.Pipeliner) {
		p.HDel(ctx, hashKey(key), redisValueField)
	})
}

func (r *Redis) write(ctx context.Context, key string, mutate func(redis.Pipeliner)) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.HIncrBy(ctx, hashKey(key), redisVersionField, 1)
		mutate(p)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("write slot %s: %w", key, err)
	}
	version := incr.Val()
	if err := r.client.Publish(ctx, channelKey(key), version).Err(); err != nil {
		return 0, fmt.Errorf("publish slot %s: %w", key, err)
	}
	return version, nil
}

func (r *Redis) Subscribe(ctx context.Context, key string) (<-chan Change, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.mu.Unlock()

	ps := r.client.Subscribe(ctx, channelKey(key))
	// Wait for the confirmation so writes after Subscribe returns are seen.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe slot %s: %w", key, err)
	}

	r.mu.Lock()
	r.subs[ps] = struct{}{}
	r.mu.Unlock()

	f := newFeed()
	go r.relay(ctx, key, ps, f)
	return f.ch, nil
}

func (r *Redis) relay(ctx context.Context, key string, ps *redis.PubSub, f *feed) {
	defer func() {
		r.mu.Lock()
		delete(r.subs, ps)
		r.mu.Unlock()
		_ = ps.Close()
		f.close()
	}()

	messages := ps.Channel()
	var since int64
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			announced, err := strconv.ParseInt(msg.Payload, 10, 64)
			if err != nil || announced <= since {
				continue
			}
			entry, err := r.Get(ctx, key)
			switch {
			case errors.Is(err, ErrNotFound):
				since = announced
				f.offer(Change{Key: key, Deleted: true, Version: announced})
			case err != nil:
				continue
			default:
				// A later write may already be visible; report what was read.
				if entry.Version < announced {
					entry.Version = announced
				}
				since = entry.Version
				f.offer(Change{Key: key, Value: entry.Value, Version: entry.Version})
			}
		}
	}
}

// Close ends every subscription. The client is left open.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	for ps := range r.subs {
		_ = ps.Close()
	}
	return nil
}
