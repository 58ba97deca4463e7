package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"wardwatch/internal/models"
	"wardwatch/internal/realtime"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReadStateService tracks how far each user has read an issue thread.
// last_seen_at only ever moves forward.
type ReadStateService struct {
	db     *gorm.DB
	dir    *Directory
	pub    realtime.Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewReadStateService(gdb *gorm.DB, dir *Directory, pub realtime.Publisher, logger *slog.Logger) *ReadStateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadStateService{
		db:     gdb,
		dir:    dir,
		pub:    pub,
		logger: logger.With("component", "readstate"),
		now:    time.Now,
	}
}

// MarkRead advances the caller's read marker to seenAt, or to now when
// seenAt is nil. An older value leaves the marker alone. The stored value
// is returned either way.
func (s *ReadStateService) MarkRead(ctx context.Context, caller Caller, issueToken string, seenAt *time.Time) (time.Time, error) {
	if caller.ID == 0 {
		return time.Time{}, ErrUnauthorized
	}

	issue, err := s.dir.IssueByToken(ctx, issueToken)
	if err != nil {
		return time.Time{}, err
	}

	seen := s.now()
	if seenAt != nil {
		seen = *seenAt
	}
	seen = seen.UTC().Truncate(time.Microsecond)

	var stored models.IssueChatRead
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.IssueChatRead{
			UserID:        caller.ID,
			IssueReportID: issue.ID,
			LastSeenAt:    &seen,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			if err := tx.Model(&models.IssueChatRead{}).
				Where("user_id = ? AND issue_report_id = ?", caller.ID, issue.ID).
				Where("(last_seen_at IS NULL OR last_seen_at < ?)", seen).
				Update("last_seen_at", seen).Error; err != nil {
				return err
			}
		}

		return tx.Where("user_id = ? AND issue_report_id = ?", caller.ID, issue.ID).
			First(&stored).Error
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("mark read: %w", err)
	}

	var result time.Time
	if stored.LastSeenAt != nil {
		result = stored.LastSeenAt.UTC()
	}

	s.publish(caller, issue, result)
	return result, nil
}

// LastSeen returns the caller's read marker, nil if they never opened the
// thread.
func (s *ReadStateService) LastSeen(ctx context.Context, caller Caller, issueToken string) (*time.Time, error) {
	if caller.ID == 0 {
		return nil, ErrUnauthorized
	}

	issue, err := s.dir.IssueByToken(ctx, issueToken)
	if err != nil {
		return nil, err
	}

	var rows []models.IssueChatRead
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND issue_report_id = ?", caller.ID, issue.ID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load read state: %w", err)
	}
	if len(rows) == 0 || rows[0].LastSeenAt == nil {
		return nil, nil
	}
	t := rows[0].LastSeenAt.UTC()
	return &t, nil
}

func (s *ReadStateService) publish(caller Caller, issue IssueRef, seen time.Time) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(realtime.NewEvent(realtime.EventMessageRead, realtime.MessageRead{
		IssueToken: issue.Token,
		UserToken:  caller.Token,
		LastSeenAt: seen,
	}, realtime.IssueTopic(issue.Token)))
	s.pub.Publish(realtime.NewEvent(realtime.EventUnreadInvalidate, realtime.UnreadInvalidate{
		IssueToken: issue.Token,
	}, realtime.UserTopic(caller.ID)))
}
