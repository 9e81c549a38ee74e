package auth

import "time"

type User struct {
	UserID       int64     `gorm:"column:user_id;primaryKey" json:"user_id"`
	Username     string    `gorm:"column:username;not null;unique" json:"username"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (User) TableName() string { return "users" }

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=30,usernamechars"`
	Password        string `json:"password" validate:"required,max=72,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileRequest carries the fields to change. Nil means leave as is.
type ProfileRequest struct {
	Username *string `json:"username" validate:"omitnil,min=3,max=30,usernamechars"`
	Password *string `json:"password" validate:"omitnil,max=72,password"`
}

type PasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"password" validate:"required,max=72,password"`
}

// Session is what register and login hand back to the client.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
