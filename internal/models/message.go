package models

import (
	"time"
)

type Message struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	IssueReportID uint        `gorm:"not null;index:idx_message_issue_created" json:"-"`
	IssueReport   IssueReport `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID        uint        `gorm:"not null;index" json:"-"`
	Author        User        `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Content       string      `gorm:"type:text;not null" json:"content"`
	CreatedAt     time.Time   `gorm:"index:idx_message_issue_created" json:"created_at"`
}
