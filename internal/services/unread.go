package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// UnreadService counts thread messages the caller has not seen. A message
// counts when someone else wrote it after the caller's read marker, or at
// any time if there is no marker.
type UnreadService struct {
	db  *gorm.DB
	dir *Directory
}

func NewUnreadService(gdb *gorm.DB, dir *Directory) *UnreadService {
	return &UnreadService{db: gdb, dir: dir}
}

// UnreadCount counts unread messages on one issue.
func (s *UnreadService) UnreadCount(ctx context.Context, caller Caller, issueToken string) (int, error) {
	if caller.ID == 0 {
		return 0, ErrUnauthorized
	}

	issue, err := s.dir.IssueByToken(ctx, issueToken)
	if err != nil {
		return 0, err
	}

	counts, err := s.count(ctx, caller.ID, []uint{issue.ID})
	if err != nil {
		return 0, err
	}
	return counts[issue.ID], nil
}

// UnreadCounts counts unread messages for many issues in one query. Every
// requested token appears in the result; unknown ones count 0.
func (s *UnreadService) UnreadCounts(ctx context.Context, caller Caller, tokens []string) (map[string]int, error) {
	if caller.ID == 0 {
		return nil, ErrUnauthorized
	}

	ids, err := s.dir.IssueIDs(ctx, tokens)
	if err != nil {
		return nil, err
	}

	list := make([]uint, 0, len(ids))
	for _, id := range ids {
		list = append(list, id)
	}
	counts, err := s.count(ctx, caller.ID, list)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(tokens))
	for _, t := range tokens {
		out[t] = counts[ids[t]]
	}
	return out, nil
}

func (s *UnreadService) count(ctx context.Context, userID uint, issueIDs []uint) (map[uint]int, error) {
	out := make(map[uint]int, len(issueIDs))
	if len(issueIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		IssueReportID uint
		Unread        int
	}
	err := s.db.WithContext(ctx).
		Table("messages AS m").
		Select("m.issue_report_id AS issue_report_id, COUNT(*) AS unread").
		Joins("LEFT JOIN issue_chat_reads AS r ON r.issue_report_id = m.issue_report_id AND r.user_id = ?", userID).
		Where("m.issue_report_id IN ?", issueIDs).
		Where("m.user_id <> ?", userID).
		Where("(r.last_seen_at IS NULL OR m.created_at > r.last_seen_at)").
		Group("m.issue_report_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}

	for _, r := range rows {
		out[r.IssueReportID] = r.Unread
	}
	return out, nil
}
