package user

import "time"

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

type User struct {
	ID        int       `json:"id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Password  string    `json:"-" db:"password"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"fullName" db:"full_name"`
	Role      Role      `json:"role" db:"role"`
	Avatar    *string   `json:"avatar" db:"avatar"`
	Bio       *string   `json:"bio" db:"bio"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// UserNew is the insertable projection of a User. Password is stored as
// given; callers hash it first.
type UserNew struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=6"`
	Email    string  `json:"email" validate:"required,email"`
	FullName string  `json:"fullName" validate:"required"`
	Role     Role    `json:"role" validate:"omitempty,oneof=student instructor admin"`
	Avatar   *string `json:"avatar" validate:"omitempty,url"`
	Bio      *string `json:"bio"`
}

// New builds the record stored for nu. Users start active, as students
// unless another role is given.
func New(nu UserNew, now time.Time) User {
	role := nu.Role
	if role == "" {
		role = RoleStudent
	}
	return User{
		Username:  nu.Username,
		Password:  nu.Password,
		Email:     nu.Email,
		FullName:  nu.FullName,
		Role:      role,
		Avatar:    nu.Avatar,
		Bio:       nu.Bio,
		IsActive:  true,
		CreatedAt: now,
	}
}

type StatusUp struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type Filter struct {
	Page     int
	Limit    int
	Search   string
	Role     Role
	IsActive *bool
}

type Page struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}
