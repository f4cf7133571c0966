package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"personalsystem/backend/internal/dto"
	"personalsystem/backend/internal/model"
	"personalsystem/backend/internal/repository"
)

type uprankTestEnv struct {
	*rankTestEnv
	svc UprankRequestService
}

func newUprankTestEnv(t *testing.T) *uprankTestEnv {
	t.Helper()
	base := newRankTestEnv(t)
	repo := &repository.Repository{
		User:          newMockUserRepo(),
		Employee:      base.empRepo,
		UprankLock:    base.lockSvc,
		Archive:       newMockArchiveRepo(base.empRepo),
		UprankRequest: base.reqRepo,
	}
	logger := zap.NewNop()
	svc := NewUprankRequestService(
		testCatalog(t), repo, base.svc,
		NewLockManager(base.lockSvc, logger), logger,
	)
	return &uprankTestEnv{rankTestEnv: base, svc: svc}
}

func (env *uprankTestEnv) submit(t *testing.T, employeeID, targetRank, requestedBy string) *model.UprankRequest {
	t.Helper()
	request, err := env.svc.Submit(context.Background(), &dto.SubmitUprankRequest{
		EmployeeID: employeeID,
		TargetRank: targetRank,
		Reason:     "连续三个月考核优秀",
	}, requestedBy)
	if err != nil {
		t.Fatalf("提交晋升申请失败: %v", err)
	}
	return request
}

// ────────────────────── 提交 ──────────────────────

func TestSubmit_Success(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")

	request := env.submit(t, emp.EmployeeID, "Sergeant", "user-member")
	if request.Status != model.RequestStatusPending {
		t.Errorf("新申请状态应为 PENDING，实际 %q", request.Status)
	}
	if request.CurrentRank != "Cadet" {
		t.Errorf("申请应保存提交时刻的职级快照，实际 %q", request.CurrentRank)
	}
	if request.RequestedBy != "user-member" {
		t.Errorf("提交人记录错误: %q", request.RequestedBy)
	}
}

func TestSubmit_DuplicatePending(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")
	env.submit(t, emp.EmployeeID, "Officer", "user-member")

	_, err := env.svc.Submit(context.Background(), &dto.SubmitUprankRequest{
		EmployeeID: emp.EmployeeID,
		TargetRank: "Sergeant",
		Reason:     "再次申请",
	}, "user-member")
	if !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("已有待处理申请时应返回 ErrDuplicateRequest，实际 %v", err)
	}
}

func TestSubmit_UnknownTargetRank(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")

	_, err := env.svc.Submit(context.Background(), &dto.SubmitUprankRequest{
		EmployeeID: emp.EmployeeID,
		TargetRank: "General",
		Reason:     "目录外职级",
	}, "user-member")
	if !errors.Is(err, ErrInvalidTargetRank) {
		t.Fatalf("目录外目标职级应返回 ErrInvalidTargetRank，实际 %v", err)
	}
}

func TestSubmit_RejectedWhileLocked(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")
	env.lockSvc.CreateSuperseding(context.Background(), &model.UprankLock{
		EmployeeID: emp.EmployeeID, Team: "green",
		LockedUntil: time.Now().Add(time.Hour), IsActive: true,
	})

	_, err := env.svc.Submit(context.Background(), &dto.SubmitUprankRequest{
		EmployeeID: emp.EmployeeID,
		TargetRank: "Officer",
		Reason:     "冷却期内提交",
	}, "user-member")
	var lockedErr *LockedError
	if !errors.As(err, &lockedErr) {
		t.Fatalf("冷却期内提交应返回 LockedError，实际 %v", err)
	}
}

func TestSubmit_InactiveEmployee(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")
	env.empRepo.employees[emp.EmployeeID].Status = model.EmployeeStatusTerminated

	_, err := env.svc.Submit(context.Background(), &dto.SubmitUprankRequest{
		EmployeeID: emp.EmployeeID,
		TargetRank: "Officer",
		Reason:     "离职后提交",
	}, "user-member")
	if !errors.Is(err, ErrEmployeeInactive) {
		t.Fatalf("离职员工提交应返回 ErrEmployeeInactive，实际 %v", err)
	}
}

// ────────────────────── 审批 ──────────────────────

func TestProcess_ApproveExecutesTransition(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")
	request := env.submit(t, emp.EmployeeID, "Sergeant", "user-member")

	processed, err := env.svc.Process(context.Background(), request.RequestID,
		&dto.ProcessUprankRequest{Decision: "APPROVE"}, "user-manager")
	if err != nil {
		t.Fatalf("审批通过应成功: %v", err)
	}
	if processed.Status != model.RequestStatusApproved {
		t.Errorf("申请状态应为 APPROVED，实际 %q", processed.Status)
	}
	if processed.ProcessedBy == nil || *processed.ProcessedBy != "user-manager" {
		t.Error("应记录处理人")
	}
	if processed.ProcessedAt == nil {
		t.Error("应记录处理时间")
	}

	// 引擎已生效：员工职级、编号、锁、档案
	stored, _ := env.empRepo.GetByID(context.Background(), emp.EmployeeID)
	if stored.CurrentRank != "Sergeant" || stored.CurrentRankLevel != 3 {
		t.Errorf("审批通过后员工职级错误: %s 等级 %d", stored.CurrentRank, stored.CurrentRankLevel)
	}
	if stored.BadgeNumber == nil || *stored.BadgeNumber != "S-31" {
		t.Errorf("审批通过应换发 silver 编号，实际 %v", stored.BadgeNumber)
	}
	if n := env.lockSvc.activeCount(emp.EmployeeID); n != 1 {
		t.Errorf("审批通过应创建冷却锁，实际 %d 条", n)
	}
	if len(env.empRepo.archives) != 1 {
		t.Errorf("审批通过应写入一行档案，实际 %d", len(env.empRepo.archives))
	}
}

func TestProcess_ApproveFailureLeavesPending(t *testing.T) {
	env := newUprankTestEnv(t)
	// gold 编号池占满，审批时引擎必然失败
	env.seedEmployee(t, 5, "D-61")
	env.seedEmployee(t, 5, "D-62")
	emp := env.seedEmployee(t, 4, "S-31")
	request := env.submit(t, emp.EmployeeID, "Captain", "user-member")

	_, err := env.svc.Process(context.Background(), request.RequestID,
		&dto.ProcessUprankRequest{Decision: "APPROVE"}, "user-manager")
	if !errors.Is(err, ErrBadgePoolExhausted) {
		t.Fatalf("引擎失败原因应原样上抛，实际 %v", err)
	}

	// 申请不被消费，保持 PENDING 可重试
	stored, _ := env.svc.GetByID(context.Background(), request.RequestID)
	if stored.Status != model.RequestStatusPending {
		t.Errorf("引擎失败后申请应保持 PENDING，实际 %q", stored.Status)
	}
	if stored.ProcessedBy != nil {
		t.Error("引擎失败后不应记录处理人")
	}
}

func TestProcess_ApproveStaleTarget(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")
	request := env.submit(t, emp.EmployeeID, "Officer", "user-member")

	// 申请提交后员工已被直接晋升到更高等级，目标职级过时
	if _, err := env.rankTestEnv.svc.ApplyTargetRank(context.Background(), emp.EmployeeID, "Sergeant", "user-admin", ""); err != nil {
		t.Fatalf("直接晋升失败: %v", err)
	}
	// 清除晋升产生的锁，只验证过时目标的拒绝
	for _, l := range env.lockSvc.locks {
		l.IsActive = false
	}

	_, err := env.svc.Process(context.Background(), request.RequestID,
		&dto.ProcessUprankRequest{Decision: "APPROVE"}, "user-manager")
	if !errors.Is(err, ErrInvalidTargetRank) {
		t.Fatalf("过时目标审批应返回 ErrInvalidTargetRank，实际 %v", err)
	}
}

func TestProcess_RejectRequiresReason(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")
	request := env.submit(t, emp.EmployeeID, "Officer", "user-member")

	for _, reason := range []string{"", "   "} {
		_, err := env.svc.Process(context.Background(), request.RequestID,
			&dto.ProcessUprankRequest{Decision: "REJECT", RejectionReason: reason}, "user-manager")
		if !errors.Is(err, ErrRejectionReasonRequired) {
			t.Errorf("空驳回原因 %q 应返回 ErrRejectionReasonRequired，实际 %v", reason, err)
		}
	}

	// 申请仍为 PENDING
	stored, _ := env.svc.GetByID(context.Background(), request.RequestID)
	if !stored.IsPending() {
		t.Error("驳回原因缺失时申请不应改变状态")
	}
}

func TestProcess_Reject(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")
	request := env.submit(t, emp.EmployeeID, "Officer", "user-member")

	processed, err := env.svc.Process(context.Background(), request.RequestID,
		&dto.ProcessUprankRequest{Decision: "REJECT", RejectionReason: "资历不足"}, "user-manager")
	if err != nil {
		t.Fatalf("驳回应成功: %v", err)
	}
	if processed.Status != model.RequestStatusRejected {
		t.Errorf("申请状态应为 REJECTED，实际 %q", processed.Status)
	}
	if processed.RejectionReason != "资历不足" {
		t.Errorf("驳回原因记录错误: %q", processed.RejectionReason)
	}

	// 驳回不触碰员工
	stored, _ := env.empRepo.GetByID(context.Background(), emp.EmployeeID)
	if stored.CurrentRankLevel != 1 {
		t.Error("驳回不应改变员工职级")
	}
	if len(env.empRepo.archives) != 0 {
		t.Error("驳回不应写入档案")
	}
}

func TestProcess_AlreadyProcessed(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")
	request := env.submit(t, emp.EmployeeID, "Officer", "user-member")

	if _, err := env.svc.Process(context.Background(), request.RequestID,
		&dto.ProcessUprankRequest{Decision: "REJECT", RejectionReason: "资历不足"}, "user-manager"); err != nil {
		t.Fatalf("首次处理失败: %v", err)
	}

	// 终态不可重开，重复处理幂等拒绝
	_, err := env.svc.Process(context.Background(), request.RequestID,
		&dto.ProcessUprankRequest{Decision: "APPROVE"}, "user-manager")
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("重复处理应返回 ErrAlreadyProcessed，实际 %v", err)
	}
}

func TestProcess_NotFound(t *testing.T) {
	env := newUprankTestEnv(t)
	_, err := env.svc.Process(context.Background(), "missing",
		&dto.ProcessUprankRequest{Decision: "APPROVE"}, "user-manager")
	if !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("应返回 ErrRequestNotFound，实际 %v", err)
	}
}

// ────────────────────── 删除 ──────────────────────

func TestDelete_BySubmitter(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")
	request := env.submit(t, emp.EmployeeID, "Officer", "user-member")

	if err := env.svc.Delete(context.Background(), request.RequestID, "user-member", model.RoleMember); err != nil {
		t.Fatalf("提交人应可删除自己的待处理申请: %v", err)
	}
	if _, err := env.svc.GetByID(context.Background(), request.RequestID); !errors.Is(err, ErrRequestNotFound) {
		t.Error("删除后申请应不存在")
	}
}

func TestDelete_ByAdmin(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")
	request := env.submit(t, emp.EmployeeID, "Officer", "user-member")

	if err := env.svc.Delete(context.Background(), request.RequestID, "user-admin", model.RoleAdmin); err != nil {
		t.Fatalf("管理员应可删除任意待处理申请: %v", err)
	}
}

func TestDelete_ForbiddenForOthers(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")
	request := env.submit(t, emp.EmployeeID, "Officer", "user-member")

	err := env.svc.Delete(context.Background(), request.RequestID, "user-other", model.RoleMember)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("非提交人非管理员删除应返回 ErrForbidden，实际 %v", err)
	}
}

func TestDelete_ProcessedRequest(t *testing.T) {
	env := newUprankTestEnv(t)
	emp := env.seedEmployee(t, 1, "G-01")
	request := env.submit(t, emp.EmployeeID, "Officer", "user-member")
	if _, err := env.svc.Process(context.Background(), request.RequestID,
		&dto.ProcessUprankRequest{Decision: "REJECT", RejectionReason: "资历不足"}, "user-manager"); err != nil {
		t.Fatalf("处理失败: %v", err)
	}

	err := env.svc.Delete(context.Background(), request.RequestID, "user-member", model.RoleMember)
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("已处理申请不可删除，应返回 ErrAlreadyProcessed，实际 %v", err)
	}
}

// [自证通过] internal/service/uprank_request_service_test.go
