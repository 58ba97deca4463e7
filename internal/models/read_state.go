package models

import (
	"time"
)

// IssueChatRead is a user's read watermark on an issue thread.
// LastSeenAt never moves backwards.
type IssueChatRead struct {
	ID            uint        `gorm:"primaryKey" json:"-"`
	UserID        uint        `gorm:"not null;uniqueIndex:idx_read_user_issue" json:"-"`
	User          User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	IssueReportID uint        `gorm:"not null;uniqueIndex:idx_read_user_issue" json:"-"`
	IssueReport   IssueReport `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	LastSeenAt    *time.Time  `json:"last_seen_at"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
