package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisStore keeps each collection as a hash of id -> document plus a list
// of ids in insertion order.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(ctx context.Context, opts *redis.Options, prefix string) (*RedisStore, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("error while pinging redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
	}, nil
}

func (r *RedisStore) docsKey(collection string) string {
	return r.prefix + collection + ":docs"
}

func (r *RedisStore) orderKey(collection string) string {
	return r.prefix + collection + ":order"
}

func (r *RedisStore) List(ctx context.Context, collection string) ([]Document, error) {
	ids, err := r.client.LRange(ctx, r.orderKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("error listing document ids: %w", err)
	}

	docs := make([]Document, 0, len(ids))
	if len(ids) == 0 {
		return docs, nil
	}

	values, err := r.client.HMGet(ctx, r.docsKey(collection), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("error fetching documents: %w", err)
	}

	for i, v := range values {
		data, ok := v.(string)
		if !ok {
			// id left behind by a partially applied delete
			continue
		}
		docs = append(docs, Document{ID: ids[i], Data: json.RawMessage(data)})
	}

	return docs, nil
}

func (r *RedisStore) Add(ctx context.Context, collection string, data json.RawMessage) (string, error) {
	body, err := normalize(data)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.docsKey(collection), id, string(body))
		pipe.RPush(ctx, r.orderKey(collection), id)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("error adding document: %w", err)
	}

	return id, nil
}

func (r *RedisStore) Delete(ctx context.Context, collection, id string) error {
	var deleted *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.HDel(ctx, r.docsKey(collection), id)
		pipe.LRem(ctx, r.orderKey(collection), 0, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error deleting document: %w", err)
	}
	if deleted.Val() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
