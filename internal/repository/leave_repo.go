package repository

import (
	"context"

	"gorm.io/gorm"

	"leave-tracker/internal/model"
)

// LeaveRepository 请假记录（数据库）数据访问接口
//
// 只有插入与投递状态更新，记录本身创建后不再修改、不提供删除。
type LeaveRepository interface {
	// Create 插入一条记录，由数据库生成 id 与 timestamp；失败时整体回滚
	Create(ctx context.Context, leave *model.Leave) error
	List(ctx context.Context) ([]model.Leave, error)
	ListUnsynced(ctx context.Context, limit int) ([]model.Leave, error)
	MarkSheetSynced(ctx context.Context, id uint) error
	MarkNotified(ctx context.Context, id uint) error
}

type leaveRepo struct {
	db *gorm.DB
}

// NewLeaveRepo 创建 LeaveRepository 实例
func NewLeaveRepo(db *gorm.DB) LeaveRepository {
	return &leaveRepo{db: db}
}

func (r *leaveRepo) Create(ctx context.Context, leave *model.Leave) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(leave).Error; err != nil {
			return err
		}
		// 回读数据库生成的 timestamp
		return tx.First(leave, leave.ID).Error
	})
}

func (r *leaveRepo) List(ctx context.Context) ([]model.Leave, error) {
	var leaves []model.Leave
	err := r.db.WithContext(ctx).
		Order("timestamp DESC").
		Order("id DESC").
		Find(&leaves).Error
	return leaves, err
}

func (r *leaveRepo) ListUnsynced(ctx context.Context, limit int) ([]model.Leave, error) {
	var leaves []model.Leave
	err := r.db.WithContext(ctx).
		Where("sheet_synced = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&leaves).Error
	return leaves, err
}

func (r *leaveRepo) MarkSheetSynced(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&model.Leave{}).
		Where("id = ?", id).
		Update("sheet_synced", true).Error
}

func (r *leaveRepo) MarkNotified(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&model.Leave{}).
		Where("id = ?", id).
		Update("notified", true).Error
}
