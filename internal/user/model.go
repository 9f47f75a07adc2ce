package user

import "github.com/Zhouyi071021/campus-circle/internal/models"

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=20,alphanumunder"`
	Password        string `json:"password" validate:"required,min=8,max=20"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=20"`
}

// LoginMeta is the client information written to the login history.
type LoginMeta struct {
	IP        string
	UserAgent string
}

type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}
