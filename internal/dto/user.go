package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
}

// CreateAdminRequest 命令行创建管理员
type CreateAdminRequest struct {
	Username string
	Email    string
	Password string
}
