package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"classpilot/backend/internal/model"
	"classpilot/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock DirectoryRepository ──

type mockDirectoryRepo struct {
	classes     map[string]*model.Class
	subjects    map[string]*model.Subject
	assignments map[string]*model.TeacherAssignment
	rosters     map[string][]string // class_id -> student user ids
}

func newMockDirectoryRepo() *mockDirectoryRepo {
	return &mockDirectoryRepo{
		classes:     make(map[string]*model.Class),
		subjects:    make(map[string]*model.Subject),
		assignments: make(map[string]*model.TeacherAssignment),
		rosters:     make(map[string][]string),
	}
}

func (m *mockDirectoryRepo) GetClass(_ context.Context, id string) (*model.Class, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDirectoryRepo) GetSubject(_ context.Context, id string) (*model.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDirectoryRepo) GetTeacherAssignment(_ context.Context, id string) (*model.TeacherAssignment, error) {
	if a, ok := m.assignments[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDirectoryRepo) AssignmentExists(_ context.Context, classID, subjectID, teacherUserID string) (bool, error) {
	for _, a := range m.assignments {
		if a.ClassID == classID && a.SubjectID == subjectID && a.TeacherUserID == teacherUserID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDirectoryRepo) ClassStudentIDs(_ context.Context, classID string) ([]string, error) {
	if _, ok := m.classes[classID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.rosters[classID], nil
}

// ── Mock PlanRepository ──

type mockPlanRepo struct {
	plans map[string]*model.Plan
	seq   int
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{plans: make(map[string]*model.Plan)}
}

func (m *mockPlanRepo) Create(_ context.Context, plan *model.Plan) error {
	if plan.PlanID == "" {
		m.seq++
		plan.PlanID = fmt.Sprintf("plan-%d", m.seq)
	}
	plan.UpdatedAt = time.Now()
	m.plans[plan.PlanID] = plan
	return nil
}

func (m *mockPlanRepo) Update(_ context.Context, planID string, updates map[string]interface{}) error {
	plan, ok := m.plans[planID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "single_date":
			plan.SingleDate, _ = value.(*time.Time)
		case "range_start":
			plan.RangeStart, _ = value.(*time.Time)
		case "range_end":
			plan.RangeEnd, _ = value.(*time.Time)
		case "frequency":
			plan.Frequency = value.(string)
		case "status":
			plan.Status = value.(string)
		case "academic_term_label":
			label := value.(string)
			plan.AcademicTermLabel = &label
		case "teacher_assignment_id":
			plan.TeacherAssignmentID, _ = value.(*string)
		case "teacher_user_id":
			plan.TeacherUserID, _ = value.(*string)
		case "updated_at":
			plan.UpdatedAt = value.(time.Time)
		}
	}
	return nil
}

func (m *mockPlanRepo) GetByID(_ context.Context, id string) (*model.Plan, error) {
	if p, ok := m.plans[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlanRepo) GetByScope(_ context.Context, classID, subjectID string, teacherAssignmentID *string) (*model.Plan, error) {
	var candidates []*model.Plan
	for _, p := range m.plans {
		if p.ClassID != classID || p.SubjectID != subjectID {
			continue
		}
		if teacherAssignmentID != nil {
			if p.TeacherAssignmentID == nil || *p.TeacherAssignmentID != *teacherAssignmentID {
				continue
			}
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		activeI := candidates[i].Status == model.PlanStatusActive
		activeJ := candidates[j].Status == model.PlanStatusActive
		if activeI != activeJ {
			return activeI
		}
		return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
	})
	return candidates[0], nil
}

// ── Mock PlanItemRepository ──

type mockPlanItemRepo struct {
	items    map[string]*model.PlanItem
	sessions *mockPlanSessionRepo
	seq      int
}

func newMockPlanItemRepo(sessions *mockPlanSessionRepo) *mockPlanItemRepo {
	return &mockPlanItemRepo{items: make(map[string]*model.PlanItem), sessions: sessions}
}

func (m *mockPlanItemRepo) Create(_ context.Context, item *model.PlanItem) error {
	if item.ItemID == "" {
		m.seq++
		item.ItemID = fmt.Sprintf("item-%d", m.seq)
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	m.items[item.ItemID] = item
	return nil
}

func (m *mockPlanItemRepo) Update(_ context.Context, itemID string, updates map[string]interface{}) error {
	item, ok := m.items[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "item_type":
			item.ItemType = value.(string)
		case "title":
			item.Title, _ = value.(*string)
		case "topic":
			item.Topic, _ = value.(*string)
		case "description":
			item.Description, _ = value.(*string)
		case "scheduled_for":
			item.ScheduledFor, _ = value.(*time.Time)
		case "scheduled_until":
			item.ScheduledUntil, _ = value.(*time.Time)
		case "status":
			item.Status = value.(string)
		case "status_changed_at":
			if t, ok := value.(*time.Time); ok {
				item.StatusChangedAt = t
			} else if t, ok := value.(time.Time); ok {
				item.StatusChangedAt = &t
			}
		case "verification_notes":
			item.VerificationNotes, _ = value.(*string)
		case "deferred_to":
			item.DeferredTo, _ = value.(*time.Time)
		case "updated_at":
			item.UpdatedAt = value.(time.Time)
		}
	}
	return nil
}

func (m *mockPlanItemRepo) Delete(_ context.Context, itemID string) error {
	delete(m.items, itemID)
	delete(m.sessions.byItem, itemID)
	return nil
}

func (m *mockPlanItemRepo) GetByID(_ context.Context, id string) (*model.PlanItem, error) {
	if i, ok := m.items[id]; ok {
		return i, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlanItemRepo) ListByPlan(_ context.Context, planID string) ([]model.PlanItem, error) {
	var result []model.PlanItem
	for _, item := range m.items {
		if item.PlanID != planID {
			continue
		}
		copied := *item
		copied.Sessions, _ = m.sessions.ListByItem(context.Background(), item.ItemID)
		result = append(result, copied)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if (a.ScheduledFor == nil) != (b.ScheduledFor == nil) {
			return a.ScheduledFor != nil
		}
		if a.ScheduledFor != nil && !a.ScheduledFor.Equal(*b.ScheduledFor) {
			return a.ScheduledFor.Before(*b.ScheduledFor)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return result, nil
}

func (m *mockPlanItemRepo) AdvanceDue(_ context.Context, planID string, now time.Time) (int64, error) {
	var count int64
	for _, item := range m.items {
		if item.PlanID != planID || item.Status != model.ItemStatusScheduled {
			continue
		}
		if item.ScheduledFor == nil || item.ScheduledFor.After(now) {
			continue
		}
		item.Status = model.ItemStatusReadyVerify
		changed := now
		item.StatusChangedAt = &changed
		count++
	}
	return count, nil
}

// ── Mock PlanSessionRepository ──

type mockPlanSessionRepo struct {
	byItem map[string]map[time.Time]*model.PlanSession
	seq    int
}

func newMockPlanSessionRepo() *mockPlanSessionRepo {
	return &mockPlanSessionRepo{byItem: make(map[string]map[time.Time]*model.PlanSession)}
}

func (m *mockPlanSessionRepo) ListByItem(_ context.Context, itemID string) ([]model.PlanSession, error) {
	var result []model.PlanSession
	for _, s := range m.byItem[itemID] {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SessionDate.Before(result[j].SessionDate)
	})
	return result, nil
}

func (m *mockPlanSessionRepo) Upsert(_ context.Context, session *model.PlanSession) error {
	group, ok := m.byItem[session.PlanItemID]
	if !ok {
		group = make(map[time.Time]*model.PlanSession)
		m.byItem[session.PlanItemID] = group
	}
	if existing, ok := group[session.SessionDate]; ok {
		existing.Notes = session.Notes
		existing.Status = session.Status
		return nil
	}
	m.seq++
	session.SessionID = fmt.Sprintf("sess-%d", m.seq)
	copied := *session
	group[session.SessionDate] = &copied
	return nil
}

func (m *mockPlanSessionRepo) DeleteExcept(_ context.Context, itemID string, keep []time.Time) error {
	keepSet := make(map[time.Time]bool, len(keep))
	for _, d := range keep {
		keepSet[d] = true
	}
	for date := range m.byItem[itemID] {
		if !keepSet[date] {
			delete(m.byItem[itemID], date)
		}
	}
	return nil
}

// ── Mock ClassAssessmentRepository ──

type mockClassAssessmentRepo struct {
	rows  map[model.AssessmentKind]map[string]*model.ClassAssessmentRow
	items *mockPlanItemRepo
	seq   int
}

func newMockClassAssessmentRepo(items *mockPlanItemRepo) *mockClassAssessmentRepo {
	return &mockClassAssessmentRepo{
		rows: map[model.AssessmentKind]map[string]*model.ClassAssessmentRow{
			model.KindAssignment: {},
			model.KindQuiz:       {},
		},
		items: items,
	}
}

func (m *mockClassAssessmentRepo) GetByID(_ context.Context, kind model.AssessmentKind, id, classID, subjectID string) (*model.ClassAssessmentRow, error) {
	if row, ok := m.rows[kind][id]; ok && row.ClassID == classID && row.SubjectID == subjectID {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassAssessmentRepo) GetByNumber(_ context.Context, kind model.AssessmentKind, classID, subjectID string, number int) (*model.ClassAssessmentRow, error) {
	for _, row := range m.rows[kind] {
		if row.ClassID == classID && row.SubjectID == subjectID && row.Number == number {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassAssessmentRepo) GetByPlanItem(_ context.Context, kind model.AssessmentKind, planItemID string) (*model.ClassAssessmentRow, error) {
	for _, row := range m.rows[kind] {
		if row.PlanItemID != nil && *row.PlanItemID == planItemID {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassAssessmentRepo) MaxNumber(_ context.Context, kind model.AssessmentKind, classID, subjectID string) (int, error) {
	max := 0
	for _, row := range m.rows[kind] {
		if row.ClassID == classID && row.SubjectID == subjectID && row.Number > max {
			max = row.Number
		}
	}
	return max, nil
}

func (m *mockClassAssessmentRepo) Create(_ context.Context, kind model.AssessmentKind, row *model.ClassAssessmentRow) error {
	m.seq++
	row.ID = fmt.Sprintf("%s-%d", kind, m.seq)
	row.UpdatedAt = time.Now()
	m.rows[kind][row.ID] = row
	return nil
}

func (m *mockClassAssessmentRepo) Update(_ context.Context, kind model.AssessmentKind, id string, updates map[string]interface{}) error {
	row, ok := m.rows[kind][id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "name":
			row.Name = value.(string)
		case "description":
			row.Description, _ = value.(*string)
		case "deadline":
			row.Deadline, _ = value.(*time.Time)
		case "status":
			row.Status = value.(string)
		case "completed_at":
			row.CompletedAt, _ = value.(*time.Time)
		case "plan_item_id":
			row.PlanItemID, _ = value.(*string)
		case "teacher_user_id":
			row.TeacherUserID, _ = value.(*string)
		}
	}
	row.UpdatedAt = time.Now()
	return nil
}

func (m *mockClassAssessmentRepo) ListForCoverage(_ context.Context, kind model.AssessmentKind, classID, subjectID string) ([]model.CoverageRow, error) {
	var result []model.CoverageRow
	for _, row := range m.rows[kind] {
		if row.ClassID != classID || row.SubjectID != subjectID {
			continue
		}
		coverage := model.CoverageRow{
			ID:          row.ID,
			Number:      row.Number,
			Name:        row.Name,
			Description: row.Description,
			Deadline:    row.Deadline,
			Status:      row.Status,
			PlanItemID:  row.PlanItemID,
			CompletedAt: row.CompletedAt,
		}
		if row.PlanItemID != nil {
			if item, ok := m.items.items[*row.PlanItemID]; ok {
				coverage.PlanTitle = item.Title
				coverage.PlanDescription = item.Description
				coverage.PlanTopic = item.Topic
				status := item.Status
				coverage.PlanStatus = &status
				coverage.ScheduledFor = item.ScheduledFor
				updated := item.UpdatedAt
				coverage.PlanUpdatedAt = &updated
			}
		}
		result = append(result, coverage)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if (a.Deadline == nil) != (b.Deadline == nil) {
			return a.Deadline != nil
		}
		if a.Deadline != nil && !a.Deadline.Equal(*b.Deadline) {
			return a.Deadline.Before(*b.Deadline)
		}
		return a.Number < b.Number
	})
	return result, nil
}

func (m *mockClassAssessmentRepo) DetachPlanItem(_ context.Context, kind model.AssessmentKind, planItemID string) error {
	for _, row := range m.rows[kind] {
		if row.PlanItemID != nil && *row.PlanItemID == planItemID {
			row.PlanItemID = nil
		}
	}
	return nil
}

// ── Mock StudentAssessmentRepository ──

type mockStudentAssessmentRepo struct {
	rows map[model.AssessmentKind]map[string]*model.StudentAssessmentRow
	seq  int
}

func newMockStudentAssessmentRepo() *mockStudentAssessmentRepo {
	return &mockStudentAssessmentRepo{
		rows: map[model.AssessmentKind]map[string]*model.StudentAssessmentRow{
			model.KindAssignment: {},
			model.KindQuiz:       {},
		},
	}
}

func (m *mockStudentAssessmentRepo) ListByPlanItem(_ context.Context, kind model.AssessmentKind, planItemID string) ([]model.StudentAssessmentRow, error) {
	var result []model.StudentAssessmentRow
	for _, row := range m.rows[kind] {
		if row.PlanItemID != nil && *row.PlanItemID == planItemID {
			result = append(result, *row)
		}
	}
	return result, nil
}

func (m *mockStudentAssessmentRepo) Insert(_ context.Context, kind model.AssessmentKind, rows []model.StudentAssessmentRow) error {
	for i := range rows {
		m.seq++
		rows[i].ID = fmt.Sprintf("s%s-%d", kind, m.seq)
		copied := rows[i]
		m.rows[kind][copied.ID] = &copied
	}
	return nil
}

func (m *mockStudentAssessmentRepo) UpdateMirror(_ context.Context, kind model.AssessmentKind, id string, row model.StudentAssessmentRow) error {
	existing, ok := m.rows[kind][id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	existing.Number = row.Number
	existing.Title = row.Title
	existing.Topic = row.Topic
	existing.Description = row.Description
	existing.Deadline = row.Deadline
	existing.CoverageStatus = row.CoverageStatus
	existing.TotalMarks = nil
	existing.ObtainedMarks = nil
	existing.GradedAt = nil
	return nil
}

func (m *mockStudentAssessmentRepo) Delete(_ context.Context, kind model.AssessmentKind, ids []string) error {
	for _, id := range ids {
		delete(m.rows[kind], id)
	}
	return nil
}

func (m *mockStudentAssessmentRepo) UpdateCoverageByPlanItem(_ context.Context, kind model.AssessmentKind, planItemID, status string) error {
	for _, row := range m.rows[kind] {
		if row.PlanItemID != nil && *row.PlanItemID == planItemID {
			row.CoverageStatus = status
		}
	}
	return nil
}

func (m *mockStudentAssessmentRepo) DetachPlanItem(_ context.Context, kind model.AssessmentKind, planItemID string) error {
	for _, row := range m.rows[kind] {
		if row.PlanItemID != nil && *row.PlanItemID == planItemID {
			row.PlanItemID = nil
			row.CoverageStatus = model.ItemStatusScheduled
		}
	}
	return nil
}

func (m *mockStudentAssessmentRepo) UpdateCompletionByNumber(_ context.Context, kind model.AssessmentKind, classID, subjectID string, number int, status string, gradedAt *time.Time) error {
	for _, row := range m.rows[kind] {
		if row.ClassID != classID || row.SubjectID != subjectID || row.Number != number {
			continue
		}
		row.CoverageStatus = status
		if gradedAt != nil && row.GradedAt == nil {
			row.GradedAt = gradedAt
		}
	}
	return nil
}

func (m *mockStudentAssessmentRepo) MarksSummaries(_ context.Context, kind model.AssessmentKind, classID, subjectID string) ([]model.MarksSummary, error) {
	byNumber := make(map[int]*model.MarksSummary)
	for _, row := range m.rows[kind] {
		if row.ClassID != classID || row.SubjectID != subjectID {
			continue
		}
		summary, ok := byNumber[row.Number]
		if !ok {
			summary = &model.MarksSummary{Number: row.Number}
			byNumber[row.Number] = summary
		}
		summary.StudentCount++
		if row.ObtainedMarks != nil {
			summary.GradedCount++
		}
		if row.TotalMarks != nil {
			summary.TotalMarks = row.TotalMarks
		}
	}
	var result []model.MarksSummary
	for _, s := range byNumber {
		result = append(result, *s)
	}
	return result, nil
}

// ── Mock Atomic（直通，测试不关心事务边界） ──

type passthroughAtomic struct {
	repo *repository.Repository
}

func (a *passthroughAtomic) Transact(_ context.Context, fn func(r *repository.Repository) error) error {
	return fn(a.repo)
}

// ── 组装 ──

type mockRepos struct {
	user              *mockUserRepo
	directory         *mockDirectoryRepo
	plan              *mockPlanRepo
	planItem          *mockPlanItemRepo
	planSession       *mockPlanSessionRepo
	classAssessment   *mockClassAssessmentRepo
	studentAssessment *mockStudentAssessmentRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	mocks := &mockRepos{
		user:        newMockUserRepo(),
		directory:   newMockDirectoryRepo(),
		plan:        newMockPlanRepo(),
		planSession: newMockPlanSessionRepo(),
	}
	mocks.planItem = newMockPlanItemRepo(mocks.planSession)
	mocks.classAssessment = newMockClassAssessmentRepo(mocks.planItem)
	mocks.studentAssessment = newMockStudentAssessmentRepo()

	repo := &repository.Repository{
		User:              mocks.user,
		Directory:         mocks.directory,
		Plan:              mocks.plan,
		PlanItem:          mocks.planItem,
		PlanSession:       mocks.planSession,
		ClassAssessment:   mocks.classAssessment,
		StudentAssessment: mocks.studentAssessment,
	}
	repo.Atomic = &passthroughAtomic{repo: repo}
	return repo, mocks
}

// [自证通过] internal/service/mock_repos_test.go
