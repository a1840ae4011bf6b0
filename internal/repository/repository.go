package repository

import (
	"gorm.io/gorm"

	"leave-tracker/pkg/sheet"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User       UserRepository
	Leave      LeaveRepository
	LeaveSheet LeaveSheetRepository
	Visit      VisitRepository // 未配置 HOSxP 时为 nil
}

// Options 构造 Repository 时的可选依赖
type Options struct {
	StrictSheetDelete bool
	HosXP             *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB, leaveSheet sheet.Backend, opts Options) *Repository {
	repo := &Repository{
		User:       NewUserRepo(db),
		Leave:      NewLeaveRepo(db),
		LeaveSheet: NewLeaveSheetRepo(leaveSheet, opts.StrictSheetDelete),
	}
	if opts.HosXP != nil {
		repo.Visit = NewVisitRepo(opts.HosXP)
	}
	return repo
}
