package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Port keeping each logical store in one hash.
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects using a redis:// URL, or a bare host:port address.
func OpenRedis(ctx context.Context, dsn, password string) (*Redis, error) {
	var opts *redis.Options
	if strings.Contains(dsn, "://") {
		var err error
		opts, err = redis.ParseURL(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
	} else {
		opts = &redis.Options{Addr: dsn}
	}
	if password != "" {
		opts.Password = password
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisWithClient(client), nil
}

// NewRedisWithClient creates a store from an existing Redis client.
func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "nestboard:"}
}

func (r *Redis) key(store Store) string {
	return r.prefix + string(store)
}

func (r *Redis) Get(ctx context.Context, store Store, id string) (Record, bool, error) {
	if err := validStore(store); err != nil {
		return Record{}, false, err
	}
	data, err := r.client.HGet(ctx, r.key(store), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get %s/%s: %w", store, id, err)
	}
	return Record{ID: id, Data: data}, true, nil
}

func (r *Redis) Put(ctx context.Context, store Store, rec Record) error {
	if err := validStore(store); err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.key(store), rec.ID, rec.Data).Err(); err != nil {
		return fmt.Errorf("put %s/%s: %w", store, rec.ID, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, store Store, id string) error {
	if err := validStore(store); err != nil {
		return err
	}
	if err := r.client.HDel(ctx, r.key(store), id).Err(); err != nil {
		return fmt.Errorf("delete %s/%s: %w", store, id, err)
	}
	return nil
}

func (r *Redis) ListKeys(ctx context.Context, store Store) ([]string, error) {
	if err := validStore(store); err != nil {
		return nil, err
	}
	keys, err := r.client.HKeys(ctx, r.key(store)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", store, err)
	}
	slices.Sort(keys)
	return keys, nil
}

func (r *Redis) Clear(ctx context.Context, store Store) error {
	if err := validStore(store); err != nil {
		return err
	}
	return r.client.Del(ctx, r.key(store)).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
