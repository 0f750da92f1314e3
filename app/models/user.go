package models

import "time"

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleLibrarian  = "librarian"
	RoleTeacher    = "teacher"
)

var AllRoles = []string{RoleSuperAdmin, RoleAdmin, RoleAccountant, RoleLibrarian, RoleTeacher}

func ValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID          string     `json:"id" db:"id"`
	BranchID    *string    `json:"branch_id" db:"branch_id"`
	Name        string     `json:"name" db:"name"`
	Email       string     `json:"email" db:"email"`
	Password    string     `json:"-" db:"password"`
	Role        string     `json:"role" db:"role"`
	Status      string     `json:"status" db:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	BranchName *string `json:"branch_name,omitempty" db:"branch_name"`
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Principal is the authenticated caller, rebuilt from token claims on each request.
type Principal struct {
	UserID   string
	Name     string
	Email    string
	Role     string
	BranchID string
}

func (p *Principal) IsSuperAdmin() bool {
	return p.Role == RoleSuperAdmin
}
