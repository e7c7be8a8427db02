package repository

import (
	"context"
	"testing"
)

// ── fake Redis ──

type fakeRedis struct {
	data map[string]string
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := f.data[key]
	return v, ok, nil
}
func (f *fakeRedis) Set(_ context.Context, key, value string) error {
	f.data[key] = value
	return nil
}
func (f *fakeRedis) Del(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func TestMemoryKVRepo(t *testing.T) {
	exerciseKV(t, NewMemoryKVRepo())
}

func TestRedisKVRepo_Prefix(t *testing.T) {
	fr := &fakeRedis{data: make(map[string]string)}
	repo := NewRedisKVRepo(fr, "schedule:")
	exerciseKV(t, repo)

	if err := repo.Set(context.Background(), "api_key", "k"); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if _, ok := fr.data["schedule:api_key"]; !ok {
		t.Errorf("键应带前缀，实际 %v", fr.data)
	}
}

func exerciseKV(t *testing.T, repo KVRepository) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := repo.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("缺失键应为空状态，found=%v err=%v", found, err)
	}
	if err := repo.Set(ctx, "schedule_data", `{"courses":[]}`); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if err := repo.Set(ctx, "schedule_data", `{"courses":[{}]}`); err != nil {
		t.Fatalf("覆盖写失败: %v", err)
	}
	v, found, err := repo.Get(ctx, "schedule_data")
	if err != nil || !found || v != `{"courses":[{}]}` {
		t.Fatalf("Get 结果错误: %q %v %v", v, found, err)
	}
	if err := repo.Delete(ctx, "schedule_data"); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if err := repo.Delete(ctx, "schedule_data"); err != nil {
		t.Fatalf("重复删除不应报错: %v", err)
	}
	if _, found, _ := repo.Get(ctx, "schedule_data"); found {
		t.Error("删除后不应再读到")
	}
}
