package models

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SeedRoles lists the roles every store starts with.
var SeedRoles = []Role{
	{ID: 1, Name: RoleAdmin, Description: "Quản trị viên"},
	{ID: 2, Name: RoleUser, Description: "Người dùng"},
}
