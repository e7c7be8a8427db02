package repository

import "context"

// RedisKV Redis 键值操作子集（由 pkg/redis.Client 实现）
type RedisKV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error
}

type redisKVRepo struct {
	client RedisKV
	prefix string
}

// NewRedisKVRepo 创建基于 Redis 的 KVRepository，所有键加 prefix 前缀
func NewRedisKVRepo(client RedisKV, prefix string) KVRepository {
	return &redisKVRepo{client: client, prefix: prefix}
}

func (r *redisKVRepo) Get(ctx context.Context, key string) (string, bool, error) {
	return r.client.Get(ctx, r.prefix+key)
}

func (r *redisKVRepo) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value)
}

func (r *redisKVRepo) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key)
}
