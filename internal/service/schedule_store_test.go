package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"smart-schedule/internal/model"
	apperrors "smart-schedule/pkg/errors"
)

func TestScheduleStore_EmptyStoreMutationsAreNoOps(t *testing.T) {
	store, kv := setupTestStore()
	ctx := context.Background()

	if _, applied, err := store.AddCourse(ctx, model.Course{Subject: "语文", Day: model.Monday, StartPeriod: 1, EndPeriod: 1}); err != nil || applied {
		t.Errorf("空课表添加应为 no-op，applied=%v err=%v", applied, err)
	}
	if _, applied, err := store.UpdateCourse(ctx, model.Course{ID: "x", Subject: "语文", Day: model.Monday, StartPeriod: 1, EndPeriod: 1}); err != nil || applied {
		t.Errorf("空课表更新应为 no-op，applied=%v err=%v", applied, err)
	}
	if applied, err := store.DeleteCourse(ctx, "x"); err != nil || applied {
		t.Errorf("空课表删除应为 no-op，applied=%v err=%v", applied, err)
	}
	if _, ok := store.Current(); ok {
		t.Error("空课表 Current 应返回 false")
	}
	if kv.sets != 0 {
		t.Errorf("no-op 不应写持久化，实际写入 %d 次", kv.sets)
	}
}

func TestScheduleStore_AddAssignsFreshID(t *testing.T) {
	store, _ := setupTestStore()
	ctx := context.Background()
	_ = store.Load(ctx, sampleSchedule())

	added, applied, err := store.AddCourse(ctx, model.Course{ID: "c1", Subject: "体育", Day: model.Monday, StartPeriod: 1, EndPeriod: 2})
	if err != nil || !applied {
		t.Fatalf("添加失败: applied=%v err=%v", applied, err)
	}
	if added.ID == "" || added.ID == "c1" {
		t.Errorf("重复 ID 应重新生成，实际 %q", added.ID)
	}

	data, _ := store.Current()
	if len(data.Courses) != 3 {
		t.Fatalf("期望 3 门课程，实际 %d", len(data.Courses))
	}
	// 与高等数学重叠也允许
	if data.Courses[2].Subject != "体育" {
		t.Errorf("新课程应追加在末尾")
	}
}

func TestScheduleStore_AddRejectsInvalidCourse(t *testing.T) {
	store, _ := setupTestStore()
	ctx := context.Background()
	_ = store.Load(ctx, sampleSchedule())

	_, _, err := store.AddCourse(ctx, model.Course{Subject: "  ", Day: model.Monday, StartPeriod: 1, EndPeriod: 1})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("期望 ErrValidation，实际 %v", err)
	}
	_, _, err = store.AddCourse(ctx, model.Course{Subject: "化学", Day: model.Monday, StartPeriod: 3, EndPeriod: 2})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("结束节次小于开始节次应校验失败，实际 %v", err)
	}
}

func TestScheduleStore_UpdateIsIdempotent(t *testing.T) {
	store, _ := setupTestStore()
	ctx := context.Background()
	_ = store.Load(ctx, sampleSchedule())

	edited := model.Course{ID: "c1", Subject: "线性代数", Day: model.Tuesday, StartPeriod: 5, EndPeriod: 6}
	for i := 0; i < 2; i++ {
		_, applied, err := store.UpdateCourse(ctx, edited)
		if err != nil || !applied {
			t.Fatalf("第 %d 次更新失败: applied=%v err=%v", i+1, applied, err)
		}
	}

	data, _ := store.Current()
	if len(data.Courses) != 2 || data.Courses[0] != edited {
		t.Errorf("更新结果不符: %+v", data.Courses)
	}
}

func TestScheduleStore_UpdateReturnsStoredCourse(t *testing.T) {
	store, _ := setupTestStore()
	ctx := context.Background()
	_ = store.Load(ctx, sampleSchedule())

	updated, applied, err := store.UpdateCourse(ctx, model.Course{
		ID: " c1 ", Subject: "  线性代数 ", Day: model.Tuesday, StartPeriod: 5, EndPeriod: 6, Location: " B202 ",
	})
	if err != nil || !applied {
		t.Fatalf("更新失败: applied=%v err=%v", applied, err)
	}
	data, _ := store.Current()
	if updated != data.Courses[0] {
		t.Errorf("返回值应与保存的课程一致: 返回 %+v，保存 %+v", updated, data.Courses[0])
	}
	if updated.ID != "c1" || updated.Subject != "线性代数" || updated.Location != "B202" {
		t.Errorf("返回的课程应已去除空白: %+v", updated)
	}
}

func TestScheduleStore_UpdateUnknownIDIsNoOp(t *testing.T) {
	store, _ := setupTestStore()
	ctx := context.Background()
	_ = store.Load(ctx, sampleSchedule())
	before, _ := store.Current()

	_, applied, err := store.UpdateCourse(ctx, model.Course{ID: "gone", Subject: "物理", Day: model.Friday, StartPeriod: 1, EndPeriod: 1})
	if err != nil || applied {
		t.Fatalf("未命中的更新应为 no-op，applied=%v err=%v", applied, err)
	}
	after, _ := store.Current()
	if len(after.Courses) != len(before.Courses) || after.Courses[0] != before.Courses[0] {
		t.Error("未命中的更新不应改变课表")
	}
}

func TestScheduleStore_DeleteTwice(t *testing.T) {
	store, _ := setupTestStore()
	ctx := context.Background()
	_ = store.Load(ctx, sampleSchedule())

	if applied, _ := store.DeleteCourse(ctx, "c1"); !applied {
		t.Fatal("首次删除应命中")
	}
	if applied, err := store.DeleteCourse(ctx, "c1"); applied || err != nil {
		t.Errorf("重复删除应为 no-op，applied=%v err=%v", applied, err)
	}
	data, _ := store.Current()
	if len(data.Courses) != 1 || data.Courses[0].ID != "c2" {
		t.Errorf("删除后课表不符: %+v", data.Courses)
	}
}

func TestScheduleStore_LoadCurrentRoundTrip(t *testing.T) {
	store, _ := setupTestStore()
	ctx := context.Background()
	_ = store.Load(ctx, sampleSchedule())

	first, _ := store.Current()
	if err := store.Load(ctx, first); err != nil {
		t.Fatalf("重新加载失败: %v", err)
	}
	second, _ := store.Current()

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("load(current()) 应保持不变\n%s\n%s", a, b)
	}
}

func TestScheduleStore_CurrentReturnsCopy(t *testing.T) {
	store, _ := setupTestStore()
	_ = store.Load(context.Background(), sampleSchedule())

	data, _ := store.Current()
	data.Courses[0].Subject = "被篡改"

	again, _ := store.Current()
	if again.Courses[0].Subject != "高等数学" {
		t.Error("修改副本不应影响 Store")
	}
}

func TestScheduleStore_WriteThroughAndRehydrate(t *testing.T) {
	store, kv := setupTestStore()
	ctx := context.Background()
	_ = store.Load(ctx, sampleSchedule())
	_, _ = store.DeleteCourse(ctx, "c2")

	raw, ok := kv.value(KeyScheduleData)
	if !ok {
		t.Fatal("变更后应写入持久化")
	}
	var persisted model.ScheduleData
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil || len(persisted.Courses) != 1 {
		t.Fatalf("持久化内容不符: %s", raw)
	}

	restored := NewScheduleStore(storeRepo(kv), nopLogger())
	if err := restored.Rehydrate(ctx); err != nil {
		t.Fatalf("Rehydrate 失败: %v", err)
	}
	data, ok := restored.Current()
	if !ok || len(data.Courses) != 1 || data.Courses[0].ID != "c1" {
		t.Errorf("恢复结果不符: %+v", data)
	}
}

func TestScheduleStore_RehydrateCorrupted(t *testing.T) {
	store, kv := setupTestStore()
	kv.data[KeyScheduleData] = "{not json"

	err := store.Rehydrate(context.Background())
	if !errors.Is(err, apperrors.ErrPersistenceRead) {
		t.Errorf("期望 ErrPersistenceRead，实际 %v", err)
	}
	if _, ok := store.Current(); ok {
		t.Error("损坏数据应回退为空课表")
	}
}

func TestScheduleStore_RehydrateReadError(t *testing.T) {
	store, kv := setupTestStore()
	kv.getErr = errors.New("connection refused")

	if err := store.Rehydrate(context.Background()); !errors.Is(err, apperrors.ErrPersistenceRead) {
		t.Errorf("期望 ErrPersistenceRead，实际 %v", err)
	}
	if _, ok := store.Current(); ok {
		t.Error("读取失败应保持空课表")
	}
}

func TestScheduleStore_PersistFailureKeepsState(t *testing.T) {
	store, kv := setupTestStore()
	ctx := context.Background()
	_ = store.Load(ctx, sampleSchedule())

	kv.setErr = errors.New("disk full")
	if _, err := store.DeleteCourse(ctx, "c1"); err == nil {
		t.Fatal("持久化失败应返回错误")
	}
	data, _ := store.Current()
	if len(data.Courses) != 2 {
		t.Error("持久化失败时内存状态不应改变")
	}
}

func TestScheduleStore_Clear(t *testing.T) {
	store, kv := setupTestStore()
	ctx := context.Background()
	_ = store.Load(ctx, sampleSchedule())

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear 失败: %v", err)
	}
	if _, ok := store.Current(); ok {
		t.Error("Clear 后应无课表")
	}
	if _, ok := kv.value(KeyScheduleData); ok {
		t.Error("Clear 应删除持久化数据")
	}
}

func TestScheduleStore_LoadDeduplicatesIDs(t *testing.T) {
	store, _ := setupTestStore()
	data := sampleSchedule()
	data.Courses[1].ID = "c1"
	data.Courses = append(data.Courses, model.Course{Subject: "体育", Day: model.Friday, StartPeriod: 7, EndPeriod: 8})

	if err := store.Load(context.Background(), data); err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	got, _ := store.Current()
	seen := map[string]bool{}
	for _, c := range got.Courses {
		if c.ID == "" || seen[c.ID] {
			t.Fatalf("课程 ID 应非空且唯一: %+v", got.Courses)
		}
		seen[c.ID] = true
	}
	if got.Courses[0].ID != "c1" {
		t.Error("首个 ID 应保留")
	}
}

func TestScheduleStore_Credential(t *testing.T) {
	store, kv := setupTestStore()
	ctx := context.Background()

	if err := store.SaveCredential(ctx, Credential{APIKey: " key-1 ", BaseURL: "https://proxy.example.com"}); err != nil {
		t.Fatalf("SaveCredential 失败: %v", err)
	}
	if got := store.Credential(ctx); got.APIKey != "key-1" || got.BaseURL != "https://proxy.example.com" {
		t.Errorf("读取凭据不符: %+v", got)
	}

	_ = store.SaveCredential(ctx, Credential{APIKey: "key-2"})
	if _, ok := kv.value(KeyBaseURL); ok {
		t.Error("BaseURL 为空时应删除")
	}
}
