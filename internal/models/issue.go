package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IssueStatus string

const (
	IssueStatusNew          IssueStatus = "NEW"
	IssueStatusAcknowledged IssueStatus = "ACKNOWLEDGED"
	IssueStatusInProgress   IssueStatus = "IN_PROGRESS"
	IssueStatusResolved     IssueStatus = "RESOLVED"
)

// Terminal reports whether the issue no longer accepts votes.
func (s IssueStatus) Terminal() bool {
	return s == IssueStatusResolved
}

type IssueReport struct {
	ID          uint        `gorm:"primaryKey" json:"-"`
	Token       string      `gorm:"uniqueIndex;size:36;not null" json:"token"`
	UserID      uint        `gorm:"not null;index" json:"-"`
	User        User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	WardID      *uint       `gorm:"index" json:"ward_id"`
	Title       string      `gorm:"not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Status      IssueStatus `gorm:"type:varchar(20);not null;default:'NEW'" json:"status"`
	// VotesCount is the rounded weighted aggregate. Only aggregate
	// recomputation writes it.
	VotesCount int       `gorm:"not null;default:0" json:"votes_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (i *IssueReport) BeforeCreate(tx *gorm.DB) error {
	if i.Token == "" {
		i.Token = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = IssueStatusNew
	}
	return nil
}
