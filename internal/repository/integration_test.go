//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"leave-tracker/internal/model"
	"leave-tracker/internal/repository"
	"leave-tracker/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=leave password=leave_password dbname=leave_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用正式迁移脚本建表，保证约束与索引和生产一致
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

func cleanLeaves(t *testing.T) {
	t.Helper()
	if err := testDB.Exec("TRUNCATE leaves RESTART IDENTITY").Error; err != nil {
		t.Fatalf("清理 leaves 失败: %v", err)
	}
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

// ═══════════════════════════════════════════════════════════
// Leave
// ═══════════════════════════════════════════════════════════

func TestIntegration_Leave_CreateGeneratesTimestamp(t *testing.T) {
	cleanLeaves(t)
	ctx := context.Background()
	repo := repository.NewLeaveRepo(testDB)

	before := time.Now().UTC().Add(-time.Minute)
	leave := &model.Leave{
		Name:      "สมชาย",
		LeaveType: "sick",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-02"),
		Code:      "c-1",
	}
	if err := repo.Create(ctx, leave); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}

	if leave.ID == 0 {
		t.Fatal("ID 应由数据库生成")
	}
	if leave.Timestamp.Before(before) {
		t.Errorf("timestamp 应为插入时刻，got %v", leave.Timestamp)
	}
	if leave.SheetSynced || leave.Notified {
		t.Error("投递状态默认应为 false")
	}
}

func TestIntegration_Leave_DateRangeConstraint(t *testing.T) {
	cleanLeaves(t)
	ctx := context.Background()
	repo := repository.NewLeaveRepo(testDB)

	err := repo.Create(ctx, &model.Leave{
		Name:      "a",
		LeaveType: "sick",
		StartDate: day("2025-06-05"),
		EndDate:   day("2025-06-01"),
	})
	if err == nil {
		t.Fatal("开始日期晚于结束日期时应被 CHECK 约束拒绝")
	}

	var count int64
	testDB.Model(&model.Leave{}).Count(&count)
	if count != 0 {
		t.Errorf("失败的插入不应留下记录，got %d", count)
	}
}

func TestIntegration_Leave_SameDayAllowed(t *testing.T) {
	cleanLeaves(t)
	repo := repository.NewLeaveRepo(testDB)

	err := repo.Create(context.Background(), &model.Leave{
		Name:      "a",
		LeaveType: "personal",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-01"),
	})
	if err != nil {
		t.Fatalf("单日请假应允许: %v", err)
	}
}

func TestIntegration_Leave_UnsyncedAndFlags(t *testing.T) {
	cleanLeaves(t)
	ctx := context.Background()
	repo := repository.NewLeaveRepo(testDB)

	for i := 0; i < 3; i++ {
		l := &model.Leave{
			Name:      fmt.Sprintf("p%d", i),
			LeaveType: "sick",
			StartDate: day("2025-06-01"),
			EndDate:   day("2025-06-03"),
		}
		if err := repo.Create(ctx, l); err != nil {
			t.Fatalf("Create 失败: %v", err)
		}
	}

	pending, err := repo.ListUnsynced(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnsynced 失败: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 unsynced, got %d", len(pending))
	}

	if err := repo.MarkSheetSynced(ctx, pending[0].ID); err != nil {
		t.Fatalf("MarkSheetSynced 失败: %v", err)
	}
	if err := repo.MarkNotified(ctx, pending[1].ID); err != nil {
		t.Fatalf("MarkNotified 失败: %v", err)
	}

	pending, _ = repo.ListUnsynced(ctx, 10)
	if len(pending) != 2 {
		t.Errorf("expected 2 unsynced, got %d", len(pending))
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	notified := 0
	for _, l := range all {
		if l.Notified {
			notified++
		}
	}
	if notified != 1 {
		t.Errorf("expected 1 notified, got %d", notified)
	}
}

// ═══════════════════════════════════════════════════════════
// User
// ═══════════════════════════════════════════════════════════

func TestIntegration_User_UniqueIndexes(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepo(testDB)
	suffix := time.Now().UnixNano()

	u := &model.User{
		Username:     fmt.Sprintf("alice%d", suffix),
		Email:        fmt.Sprintf("alice%d@example.com", suffix),
		PasswordHash: "hash",
	}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	t.Cleanup(func() { testDB.Delete(&model.User{}, "user_id = ?", u.UserID) })

	dup := &model.User{
		Username:     u.Username,
		Email:        fmt.Sprintf("other%d@example.com", suffix),
		PasswordHash: "hash",
	}
	if err := repo.Create(ctx, dup); err == nil {
		t.Error("重复用户名应被唯一索引拒绝")
	}

	got, err := repo.GetByEmail(ctx, u.Email)
	if err != nil {
		t.Fatalf("GetByEmail 失败: %v", err)
	}
	if got.UserID != u.UserID {
		t.Errorf("expected %s, got %s", u.UserID, got.UserID)
	}
}
