package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of actor roles. Adding a role means touching every
// switch over Role, including the weight resolver.
type Role string

const (
	RoleResident        Role = "resident"
	RoleStaff           Role = "staff"
	RoleCommunityLeader Role = "communityleader"
	RoleAdmin           Role = "admin"
)

// ParseRole accepts the stored spelling and the hyphenated form used by
// some clients. Unknown values return false.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "resident":
		return RoleResident, true
	case "staff":
		return RoleStaff, true
	case "communityleader", "community-leader", "community_leader":
		return RoleCommunityLeader, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

type User struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Token     string    `gorm:"uniqueIndex;size:36;not null" json:"token"`
	FirstName string    `gorm:"not null" json:"first_name"`
	LastName  string    `gorm:"not null" json:"last_name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Role      Role      `gorm:"type:varchar(20);not null" json:"role"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Token == "" {
		u.Token = uuid.NewString()
	}
	return nil
}

// Resident links a user to the ward they live in.
type Resident struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"-"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	WardID    uint      `gorm:"not null;index" json:"ward_id"`
	Ward      Ward      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// CommunityLeader marks the ward a community leader represents.
type CommunityLeader struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"-"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	WardID    uint      `gorm:"not null;index" json:"ward_id"`
	Ward      Ward      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
