// Package realtime delivers state-change hints to live subscribers.
//
// Nothing here is a source of truth: events tell clients to refresh, they
// never carry state that is not already durable in the database.
package realtime

import (
	"fmt"
	"time"
)

// Topic names a delivery room.
type Topic string

// GlobalTopic reaches every connected stream (list and overview pages).
const GlobalTopic Topic = "global"

// IssueTopic is the room for clients viewing one issue.
func IssueTopic(issueToken string) Topic {
	return Topic("issue:" + issueToken)
}

// UserTopic is the personal channel every stream of a user joins.
func UserTopic(userID uint) Topic {
	return Topic(fmt.Sprintf("user:%d", userID))
}

// Event names as seen by clients.
const (
	EventVoteUpdated      = "vote:updated"
	EventMessageRead      = "message:read"
	EventUnreadInvalidate = "unread:invalidate"
	EventMessageCreated   = "message:created"
)

type Event struct {
	Name      string    `json:"event"`
	Topics    []Topic   `json:"topics"`
	Payload   any       `json:"payload"`
	Origin    string    `json:"origin,omitempty"`
	Timestamp time.Time `json:"ts"`
}

func NewEvent(name string, payload any, topics ...Topic) Event {
	return Event{
		Name:      name,
		Topics:    topics,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// VoteUpdated follows every successful vote.
type VoteUpdated struct {
	IssueToken string  `json:"issue_token"`
	Total      float64 `json:"total"`
	Threshold  float64 `json:"threshold"`
	Escalated  bool    `json:"escalated"`
}

// MessageRead tells other participants how far a user has read.
type MessageRead struct {
	IssueToken string    `json:"issue_token"`
	UserToken  string    `json:"user_token"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// UnreadInvalidate asks every session of a user to refetch unread counts.
type UnreadInvalidate struct {
	IssueToken string `json:"issue_token"`
}

type MessageCreated struct {
	IssueToken  string    `json:"issue_token"`
	MessageID   uint      `json:"message_id"`
	AuthorToken string    `json:"author_token"`
	CreatedAt   time.Time `json:"created_at"`
}
