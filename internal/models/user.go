package models

import "time"

// User is a registered identity as stored in the credential store.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	RoleID       int64     `json:"roleId"`
	RoleName     string    `json:"roleName"`
	AvatarKey    string    `json:"-"`
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary is the identity returned alongside freshly minted tokens.
type UserSummary struct {
	ID        string  `json:"id"`
	FullName  string  `json:"fullName"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	AvatarURL *string `json:"avatarUrl"`
}

// Profile is the identity returned by the "who am I" endpoint.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone"`
	RoleID    int64     `json:"roleId"`
	RoleName  string    `json:"roleName"`
	AvatarURL *string   `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary projects u into a UserSummary with the resolved avatar URL.
func Summary(u User, avatarURL string) UserSummary {
	return UserSummary{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		AvatarURL: optional(avatarURL),
	}
}

// ProfileOf projects u into a Profile with the resolved avatar URL.
func ProfileOf(u User, avatarURL string) Profile {
	roleName := u.RoleName
	if roleName == "" {
		roleName = RoleUser
	}
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		RoleID:    u.RoleID,
		RoleName:  roleName,
		AvatarURL: optional(avatarURL),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
