package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"personalsystem/backend/internal/model"
	"personalsystem/backend/internal/repository"
	pkgerrors "personalsystem/backend/pkg/errors"
)

// ── Mock EmployeeRepository ──

type mockEmployeeRepo struct {
	mu        sync.Mutex
	employees map[string]*model.Employee
	archives  []*model.PromotionArchive
	nextID    int

	// commitErrs 按次序注入 CommitTransition 失败（编号冲突重试等场景）
	commitErrs  []error
	commitCalls int
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{employees: make(map[string]*model.Employee)}
}

func (m *mockEmployeeRepo) Create(_ context.Context, employee *model.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if employee.EmployeeID == "" {
		m.nextID++
		employee.EmployeeID = fmt.Sprintf("emp-%03d", m.nextID)
	}
	if employee.BadgeNumber != nil {
		for _, e := range m.employees {
			if e.Status == model.EmployeeStatusActive && e.BadgeNumber != nil && *e.BadgeNumber == *employee.BadgeNumber {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if employee.Version == 0 {
		employee.Version = 1
	}
	m.employees[employee.EmployeeID] = employee
	return nil
}

func (m *mockEmployeeRepo) GetByID(_ context.Context, id string) (*model.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockEmployeeRepo) List(_ context.Context, filter repository.EmployeeListFilter, _, _ int) ([]model.Employee, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Employee
	for _, e := range m.employees {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.MinLevel > 0 && e.CurrentRankLevel < filter.MinLevel {
			continue
		}
		if filter.MaxLevel > 0 && e.CurrentRankLevel > filter.MaxLevel {
			continue
		}
		result = append(result, *e)
	}
	return result, int64(len(result)), nil
}

func (m *mockEmployeeRepo) Update(_ context.Context, employee *model.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.employees[employee.EmployeeID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != employee.Version {
		return pkgerrors.ErrOptimisticLock
	}
	employee.Version++
	cp := *employee
	m.employees[employee.EmployeeID] = &cp
	return nil
}

func (m *mockEmployeeRepo) ListActiveBadgesByPrefix(_ context.Context, prefix string, excludeEmployeeID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var badges []string
	for _, e := range m.employees {
		if e.Status != model.EmployeeStatusActive || e.BadgeNumber == nil {
			continue
		}
		if excludeEmployeeID != "" && e.EmployeeID == excludeEmployeeID {
			continue
		}
		if strings.HasPrefix(*e.BadgeNumber, prefix+"-") {
			badges = append(badges, *e.BadgeNumber)
		}
	}
	return badges, nil
}

func (m *mockEmployeeRepo) CommitTransition(_ context.Context, employee *model.Employee, archive *model.PromotionArchive) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commitCalls++
	if len(m.commitErrs) > 0 {
		err := m.commitErrs[0]
		m.commitErrs = m.commitErrs[1:]
		return err
	}
	stored, ok := m.employees[employee.EmployeeID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != employee.Version {
		return pkgerrors.ErrOptimisticLock
	}
	// 模拟编号部分唯一索引
	if employee.BadgeNumber != nil {
		for id, e := range m.employees {
			if id == employee.EmployeeID {
				continue
			}
			if e.Status == model.EmployeeStatusActive && e.BadgeNumber != nil && *e.BadgeNumber == *employee.BadgeNumber {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	employee.Version++
	cp := *employee
	m.employees[employee.EmployeeID] = &cp
	m.archives = append(m.archives, archive)
	return nil
}

// ── Mock UprankLockRepository ──

type mockUprankLockRepo struct {
	mu     sync.Mutex
	locks  []*model.UprankLock
	nextID int
}

func newMockUprankLockRepo() *mockUprankLockRepo {
	return &mockUprankLockRepo{}
}

func (m *mockUprankLockRepo) GetActiveByEmployee(_ context.Context, employeeID string) (*model.UprankLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.locks {
		if l.EmployeeID == employeeID && l.IsActive {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUprankLockRepo) CreateSuperseding(_ context.Context, lock *model.UprankLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.locks {
		if l.EmployeeID == lock.EmployeeID {
			l.IsActive = false
		}
	}
	m.nextID++
	if lock.LockID == "" {
		lock.LockID = fmt.Sprintf("lock-%03d", m.nextID)
	}
	m.locks = append(m.locks, lock)
	return nil
}

func (m *mockUprankLockRepo) ListByEmployee(_ context.Context, employeeID string) ([]model.UprankLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.UprankLock
	for _, l := range m.locks {
		if l.EmployeeID == employeeID {
			result = append(result, *l)
		}
	}
	return result, nil
}

func (m *mockUprankLockRepo) ListActive(_ context.Context) ([]model.UprankLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.UprankLock
	for _, l := range m.locks {
		if l.IsActive {
			result = append(result, *l)
		}
	}
	return result, nil
}

// activeCount 指定员工的激活锁数量（供不变量断言）
func (m *mockUprankLockRepo) activeCount(employeeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.locks {
		if l.EmployeeID == employeeID && l.IsActive {
			n++
		}
	}
	return n
}

// ── Mock PromotionArchiveRepository ──
//
// 引擎经由 CommitTransition 写档案，此 mock 只服务查询路径；
// 两边共享同一个 mockEmployeeRepo 的档案切片

type mockArchiveRepo struct {
	emp *mockEmployeeRepo
}

func newMockArchiveRepo(emp *mockEmployeeRepo) *mockArchiveRepo {
	return &mockArchiveRepo{emp: emp}
}

func (m *mockArchiveRepo) Create(_ context.Context, archive *model.PromotionArchive) error {
	m.emp.mu.Lock()
	defer m.emp.mu.Unlock()
	m.emp.archives = append(m.emp.archives, archive)
	return nil
}

func (m *mockArchiveRepo) ListByEmployee(_ context.Context, employeeID string) ([]model.PromotionArchive, error) {
	m.emp.mu.Lock()
	defer m.emp.mu.Unlock()
	var result []model.PromotionArchive
	for _, a := range m.emp.archives {
		if a.EmployeeID == employeeID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockArchiveRepo) List(_ context.Context, _, _ int) ([]model.PromotionArchive, int64, error) {
	m.emp.mu.Lock()
	defer m.emp.mu.Unlock()
	var result []model.PromotionArchive
	for _, a := range m.emp.archives {
		result = append(result, *a)
	}
	return result, int64(len(result)), nil
}

func (m *mockArchiveRepo) ListAll(_ context.Context) ([]model.PromotionArchive, error) {
	result, _, err := m.List(context.Background(), 0, 0)
	return result, err
}

// ── Mock UprankRequestRepository ──

type mockUprankRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*model.UprankRequest
	nextID   int
}

func newMockUprankRequestRepo() *mockUprankRequestRepo {
	return &mockUprankRequestRepo{requests: make(map[string]*model.UprankRequest)}
}

func (m *mockUprankRequestRepo) Create(_ context.Context, request *model.UprankRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// 模拟 PENDING 部分唯一索引
	for _, r := range m.requests {
		if r.EmployeeID == request.EmployeeID && r.Status == model.RequestStatusPending {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	if request.RequestID == "" {
		request.RequestID = fmt.Sprintf("req-%03d", m.nextID)
	}
	cp := *request
	m.requests[request.RequestID] = &cp
	return nil
}

func (m *mockUprankRequestRepo) GetByID(_ context.Context, id string) (*model.UprankRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockUprankRequestRepo) GetPendingByEmployee(_ context.Context, employeeID string) (*model.UprankRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.EmployeeID == employeeID && r.Status == model.RequestStatusPending {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUprankRequestRepo) List(_ context.Context, status string, _, _ int) ([]model.UprankRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.UprankRequest
	for _, r := range m.requests {
		if status != "" && r.Status != status {
			continue
		}
		result = append(result, *r)
	}
	return result, int64(len(result)), nil
}

func (m *mockUprankRequestRepo) Decide(_ context.Context, requestID string, decision repository.RequestDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[requestID]
	if !ok || r.Status != model.RequestStatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	r.Status = decision.Status
	r.RejectionReason = decision.RejectionReason
	r.ProcessedBy = &decision.ProcessedBy
	processedAt := decision.ProcessedAt
	r.ProcessedAt = &processedAt
	return nil
}

func (m *mockUprankRequestRepo) DeletePending(_ context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[requestID]
	if !ok || r.Status != model.RequestStatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	delete(m.requests, requestID)
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.UserID == "" {
		user.UserID = "user-" + user.Username
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

// ── 记录型同步门面 ──

type recordingSink struct {
	mu            sync.Mutex
	syncCalls     int
	notifyKinds   []string
	announceKinds []string
	announceOK    bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{announceOK: true}
}

func (r *recordingSink) SyncRankChange(_ context.Context, _, _, _ string, _ *string) SyncOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.syncCalls++
	return SyncOutcome{NicknameSynced: true, RolesSynced: true}
}

func (r *recordingSink) Notify(_ context.Context, _, kind string, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifyKinds = append(r.notifyKinds, kind)
}

func (r *recordingSink) Announce(_ context.Context, kind string, _ map[string]interface{}) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.announceKinds = append(r.announceKinds, kind)
	return r.announceOK
}
