package models

import (
	"time"
)

// Vote is one weighted vote. The (user_id, issue_report_id) unique index is
// the storage-level guard against duplicate casts.
type Vote struct {
	ID            uint        `gorm:"primaryKey" json:"-"`
	UserID        uint        `gorm:"not null;uniqueIndex:idx_vote_user_issue" json:"-"`
	User          User        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	IssueReportID uint        `gorm:"not null;uniqueIndex:idx_vote_user_issue;index" json:"-"`
	IssueReport   IssueReport `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Weight        float64     `gorm:"not null;default:1" json:"weight"`
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`
}
