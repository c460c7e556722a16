package model

import (
	"gorm.io/datatypes"
)

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// swagger:model User
type User struct {
	UUIDBase
	Username  string                      `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email     *string                     `gorm:"size:255;uniqueIndex" json:"email"`
	Password  string                      `gorm:"size:100;not null" json:"-"`
	Roles     datatypes.JSONSlice[string] `json:"roles"`
	FirstName *string                     `gorm:"size:100" json:"firstName"`
	LastName  *string                     `gorm:"size:100" json:"lastName"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == string(role) {
			return true
		}
	}
	return false
}
