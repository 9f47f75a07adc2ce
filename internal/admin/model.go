package admin

import "github.com/Zhouyi071021/campus-circle/internal/models"

// Actions recorded in the admin log.
const (
	ActionSetStatus = "user.status"
	ActionPromote   = "admin.promote"
	ActionDemote    = "admin.demote"
)

const targetUser = "user"

type StatusRequest struct {
	IsActive  *bool  `json:"is_active" validate:"required"`
	BanReason string `json:"ban_reason" validate:"max=255"`
}

type PromoteRequest struct {
	UserID int    `json:"userId" validate:"required,gt=0"`
	Role   string `json:"role" validate:"required"`
}

type UserPage struct {
	Users    []models.User `json:"users"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

type LogPage struct {
	Logs     []models.AdminLog `json:"logs"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}
