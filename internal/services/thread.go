package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
	"wardwatch/internal/models"
	"wardwatch/internal/realtime"
	"wardwatch/internal/utils"

	"gorm.io/gorm"
)

// MaxMessageLength bounds a thread message in characters.
const MaxMessageLength = 5000

type MessageView struct {
	ID          uint        `json:"id"`
	AuthorToken string      `json:"author_token"`
	AuthorName  string      `json:"author_name"`
	AuthorRole  models.Role `json:"author_role"`
	Content     string      `json:"content"`
	ContentHTML string      `json:"content_html"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ThreadService is the per-issue discussion. The engine itself only reads
// messages; this is where they come from.
type ThreadService struct {
	db  *gorm.DB
	dir *Directory
	pub realtime.Publisher
}

func NewThreadService(gdb *gorm.DB, dir *Directory, pub realtime.Publisher) *ThreadService {
	return &ThreadService{db: gdb, dir: dir, pub: pub}
}

// List returns the thread oldest first.
func (s *ThreadService) List(ctx context.Context, caller Caller, issueToken string) ([]MessageView, error) {
	if caller.ID == 0 {
		return nil, ErrUnauthorized
	}

	issue, err := s.dir.IssueByToken(ctx, issueToken)
	if err != nil {
		return nil, err
	}

	var msgs []models.Message
	if err := s.db.WithContext(ctx).
		Preload("Author").
		Where("issue_report_id = ?", issue.ID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, toMessageView(m))
	}
	return views, nil
}

// Post appends a message to the thread.
func (s *ThreadService) Post(ctx context.Context, caller Caller, issueToken, content string) (MessageView, error) {
	if caller.ID == 0 {
		return MessageView{}, ErrUnauthorized
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return MessageView{}, NewValidationError("content", "is required")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return MessageView{}, NewValidationError("content", fmt.Sprintf("must be at most %d characters", MaxMessageLength))
	}

	issue, err := s.dir.IssueByToken(ctx, issueToken)
	if err != nil {
		return MessageView{}, err
	}

	msg := models.Message{
		IssueReportID: issue.ID,
		UserID:        caller.ID,
		Content:       content,
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return MessageView{}, fmt.Errorf("insert message: %w", err)
	}
	if err := s.db.WithContext(ctx).First(&msg.Author, caller.ID).Error; err != nil {
		return MessageView{}, fmt.Errorf("load author: %w", err)
	}

	if s.pub != nil {
		s.pub.Publish(realtime.NewEvent(realtime.EventMessageCreated, realtime.MessageCreated{
			IssueToken:  issue.Token,
			MessageID:   msg.ID,
			AuthorToken: msg.Author.Token,
			CreatedAt:   msg.CreatedAt,
		}, realtime.IssueTopic(issue.Token)))
	}

	return toMessageView(msg), nil
}

func toMessageView(m models.Message) MessageView {
	return MessageView{
		ID:          m.ID,
		AuthorToken: m.Author.Token,
		AuthorName:  strings.TrimSpace(m.Author.FirstName + " " + m.Author.LastName),
		AuthorRole:  m.Author.Role,
		Content:     m.Content,
		ContentHTML: utils.RenderMarkdown(m.Content),
		CreatedAt:   m.CreatedAt,
	}
}
