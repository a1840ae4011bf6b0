package repository

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"leave-tracker/internal/model"
)

func TestUserRepo_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	token := "verify-1"
	u := &model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "h", VerifyToken: &token}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	if u.UserID == "" {
		t.Fatal("BeforeCreate 应生成 UserID")
	}

	got, err := repo.GetByUsername(ctx, "alice")
	if err != nil || got.UserID != u.UserID {
		t.Fatalf("GetByUsername 失败: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "alice@example.com"); err != nil {
		t.Errorf("GetByEmail 失败: %v", err)
	}
	if _, err := repo.GetByVerifyToken(ctx, "verify-1"); err != nil {
		t.Errorf("GetByVerifyToken 失败: %v", err)
	}
	if _, err := repo.GetByResetToken(ctx, "nope"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("期望 ErrRecordNotFound，实际: %v", err)
	}

	got.IsVerified = true
	got.VerifyToken = nil
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	reloaded, _ := repo.GetByID(ctx, u.UserID)
	if !reloaded.IsVerified || reloaded.VerifyToken != nil {
		t.Errorf("更新未生效: %+v", reloaded)
	}

	users, total, err := repo.List(ctx, 0, 10)
	if err != nil || total != 1 || len(users) != 1 {
		t.Errorf("List 期望 1 条，实际 total=%d len=%d err=%v", total, len(users), err)
	}

	if err := repo.Delete(ctx, u.UserID); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if err := repo.Delete(ctx, u.UserID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("重复删除期望 ErrRecordNotFound，实际: %v", err)
	}
}

func TestUserRepo_UniqueUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	_ = repo.Create(ctx, &model.User{Username: "bob", Email: "b1@example.com", PasswordHash: "h"})
	err := repo.Create(ctx, &model.User{Username: "bob", Email: "b2@example.com", PasswordHash: "h"})
	if err == nil {
		t.Error("重复用户名应违反唯一索引")
	}
}
