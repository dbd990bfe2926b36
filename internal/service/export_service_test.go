package service

import (
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/AryanManu544/Presenze/internal/model"
	apperrors "github.com/AryanManu544/Presenze/pkg/errors"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, *testRepos) {
	repos := newTestRepos()
	svc := NewExportService(testAttendanceConfig(), repos.repo, newTestLogger())
	svc.(*exportService).now = fixedClock
	return svc, repos
}

// ── ExportAttendance 测试 ──

func TestExportService_ExportAttendance_Success(t *testing.T) {
	svc, repos := setupTestExportService()
	seedRecord(t, repos, ownerA, "Math", "2024-05-01", model.StatusPresent)
	seedRecord(t, repos, ownerA, "Math", "2024-05-08", model.StatusAbsent)
	seedRecord(t, repos, ownerA, "Art", "2024-05-02", model.StatusPresent)
	seedRecord(t, repos, ownerB, "Math", "2024-05-01", model.StatusPresent)

	buf, filename, err := svc.ExportAttendance(context.Background(), ownerA)
	if err != nil {
		t.Fatalf("ExportAttendance 应成功: %v", err)
	}
	if filename != "attendance_20240515.xlsx" {
		t.Errorf("文件名错误: %s", filename)
	}
	if !strings.HasSuffix(filename, ".xlsx") {
		t.Errorf("文件名应以 .xlsx 结尾: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("生成的文件应为合法 xlsx: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Summary" || sheets[1] != "Records" {
		t.Fatalf("Sheet 列表错误: %v", sheets)
	}

	rows, err := f.GetRows("Summary")
	if err != nil {
		t.Fatalf("读取 Summary 失败: %v", err)
	}
	// 表头 + Art + Math + Overall
	if len(rows) != 4 {
		t.Fatalf("Summary 期望 4 行，实际 %d: %v", len(rows), rows)
	}
	if rows[1][0] != "Art" || rows[1][5] != "good" {
		t.Errorf("Art 行错误: %v", rows[1])
	}
	if rows[2][0] != "Math" || rows[2][4] != "50.00%" || rows[2][5] != "critical" {
		t.Errorf("Math 行错误: %v", rows[2])
	}
	if rows[3][0] != "Overall" || rows[3][3] != "3" {
		t.Errorf("合计行错误: %v", rows[3])
	}

	records, _ := f.GetRows("Records")
	if len(records) != 4 {
		t.Errorf("Records 期望 1 行表头 + 3 行数据，实际 %d", len(records))
	}
}

func TestExportService_ExportAttendance_Empty(t *testing.T) {
	svc, _ := setupTestExportService()

	buf, _, err := svc.ExportAttendance(context.Background(), ownerA)
	if err != nil {
		t.Fatalf("无记录时也应生成文件: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("导出内容不应为空")
	}
}

func TestExportService_ExportAttendance_Unauthenticated(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportAttendance(context.Background(), "")
	if !apperrors.IsKind(err, apperrors.KindUnauthenticated) {
		t.Errorf("期望未认证错误，实际: %v", err)
	}
}
