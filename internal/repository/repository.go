package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	KV KVRepository
}

// NewRepository 基于 PostgreSQL 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		KV: NewKVRepo(db),
	}
}

// NewRedisRepository 基于 Redis 创建 Repository 聚合
func NewRedisRepository(client RedisKV, prefix string) *Repository {
	return &Repository{
		KV: NewRedisKVRepo(client, prefix),
	}
}

// NewMemoryRepository 创建进程内 Repository 聚合（重启后丢失）
func NewMemoryRepository() *Repository {
	return &Repository{
		KV: NewMemoryKVRepo(),
	}
}
