package models

import "github.com/golang-jwt/jwt/v5"

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// StaffRole identifies who may trigger attendance calculations.
type StaffRole string

const (
	RoleLecturer StaffRole = "LECTURER"
	RoleAdmin    StaffRole = "ADMIN"
)

// Valid returns true when the role is a supported value.
func (r StaffRole) Valid() bool {
	switch r {
	case RoleLecturer, RoleAdmin:
		return true
	default:
		return false
	}
}

// JWTClaims represents the JWT payload for access tokens minted by the
// account system.
type JWTClaims struct {
	UserID   string    `json:"user_id"`
	Role     StaffRole `json:"role"`
	FullName string    `json:"full_name"`
	jwt.RegisteredClaims
}
