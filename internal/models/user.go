package models

import (
	"strings"
	"time"
)

// Role is a global user rank. Declaration order is the rank order.
type Role string

const (
	RoleVolunteer   Role = "volunteer"
	RoleJuniorCore  Role = "junior_core"
	RoleSeniorCore  Role = "senior_core"
	RoleCoordinator Role = "coordinator"
	RoleAdmin       Role = "admin"
)

// Roles lists every role from lowest to highest rank.
var Roles = []Role{RoleVolunteer, RoleJuniorCore, RoleSeniorCore, RoleCoordinator, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleVolunteer, RoleJuniorCore, RoleSeniorCore, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

type Department string

const (
	DepartmentDesign      Department = "design"
	DepartmentVideo       Department = "video"
	DepartmentPhotography Department = "photography"
	DepartmentWeb         Department = "web"
	DepartmentSocialMedia Department = "social_media"
	DepartmentOthers      Department = "others"
)

func (d Department) Valid() bool {
	switch d {
	case DepartmentDesign, DepartmentVideo, DepartmentPhotography, DepartmentWeb, DepartmentSocialMedia, DepartmentOthers:
		return true
	}
	return false
}

type User struct {
	ID             string     `json:"id" bson:"_id"`
	Name           string     `json:"name" bson:"name"`
	Email          string     `json:"email" bson:"email"`
	PasswordHash   string     `json:"-" bson:"passwordHash"`
	Role           Role       `json:"role" bson:"role"`
	Department     Department `json:"department" bson:"department"`
	Phone          string     `json:"phone,omitempty" bson:"phone,omitempty"`
	IsActive       bool       `json:"isActive" bson:"isActive"`
	TelegramChatID int64      `json:"-" bson:"telegramChatId,omitempty"`
	JoinedAt       time.Time  `json:"joinedAt" bson:"joinedAt"`
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// UserSummary is the denormalized view of a user embedded in read models.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Summary() UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterRequest struct {
	Name       string     `json:"name" binding:"required"`
	Email      string     `json:"email" binding:"required"`
	Password   string     `json:"password" binding:"required"`
	Department Department `json:"department" binding:"required"`
	Phone      string     `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
