package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"wardwatch/internal/config"
	"wardwatch/internal/db"
	"wardwatch/internal/metrics"
	"wardwatch/internal/models"
	"wardwatch/internal/realtime"

	"gorm.io/gorm"
)

// CastResult is what a vote attempt produced.
type CastResult struct {
	Aggregate
	Weight  float64 `json:"weight"`
	Created bool    `json:"created"`
}

// VoterView is one ledger row as shown in a summary.
type VoterView struct {
	UserToken string      `json:"user_token"`
	Role      models.Role `json:"role"`
	Weight    float64     `json:"weight"`
	CreatedAt time.Time   `json:"created_at"`
}

type VoteSummary struct {
	Aggregate
	Votes []VoterView `json:"votes"`
}

// VoteService owns the vote ledger: at most one row per (user, issue),
// never updated or deleted.
type VoteService struct {
	db              *gorm.DB
	dir             *Directory
	resolver        WeightResolver
	agg             *Aggregator
	pub             realtime.Publisher
	reconciler      *Reconciler
	allowDuplicates bool
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

func NewVoteService(gdb *gorm.DB, dir *Directory, agg *Aggregator, cfg config.VotingConfig, pub realtime.Publisher, logger *slog.Logger, m *metrics.Metrics) *VoteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoteService{
		db:              gdb,
		dir:             dir,
		resolver:        NewWeightResolver(cfg.Weights),
		agg:             agg,
		pub:             pub,
		allowDuplicates: cfg.AllowDuplicateVotes,
		logger:          logger.With("component", "votes"),
		metrics:         m,
	}
}

// WithReconciler makes failed recomputes retry in the background.
func (s *VoteService) WithReconciler(r *Reconciler) *VoteService {
	s.reconciler = r
	return s
}

// Cast records the caller's vote on an issue.
func (s *VoteService) Cast(ctx context.Context, caller Caller, issueToken string) (CastResult, error) {
	if caller.ID == 0 {
		return CastResult{}, ErrUnauthorized
	}

	issue, err := s.dir.IssueByToken(ctx, issueToken)
	if err != nil {
		return CastResult{}, err
	}
	if issue.Status.Terminal() {
		s.metrics.VoteCast(metrics.OutcomeClosed)
		return CastResult{}, ErrVotingClosed
	}

	existing, found, err := s.findVote(ctx, caller.ID, issue.ID)
	if err != nil {
		return CastResult{}, err
	}
	if found {
		return s.repeatOutcome(ctx, issue, existing)
	}

	actor, err := s.dir.Actor(ctx, caller.ID)
	if errors.Is(err, ErrNotFound) {
		return CastResult{}, ErrUnauthorized
	}
	if err != nil {
		return CastResult{}, err
	}

	vote := models.Vote{
		UserID:        caller.ID,
		IssueReportID: issue.ID,
		Weight:        s.resolver.Resolve(actor, issue.WardID),
	}
	if err := s.db.WithContext(ctx).Create(&vote).Error; err != nil {
		if !db.IsUniqueViolation(err) {
			return CastResult{}, fmt.Errorf("insert vote: %w", err)
		}
		// A concurrent cast for the same pair got there first.
		existing, found, ferr := s.findVote(ctx, caller.ID, issue.ID)
		if ferr != nil {
			return CastResult{}, ferr
		}
		if !found {
			return CastResult{}, fmt.Errorf("insert vote: %w", err)
		}
		return s.repeatOutcome(ctx, issue, existing)
	}
	s.metrics.VoteCast(metrics.OutcomeCreated)

	agg, err := s.agg.Recompute(ctx, issue.ID)
	if err != nil {
		s.logger.Error("recompute after vote failed", "issue_id", issue.ID, "error", err)
		if s.reconciler != nil {
			s.reconciler.Schedule(issue.ID)
		}
		return CastResult{}, err
	}

	s.publish(issue, agg)
	return CastResult{Aggregate: agg, Weight: vote.Weight, Created: true}, nil
}

// repeatOutcome handles a caller who already has a ledger row.
func (s *VoteService) repeatOutcome(ctx context.Context, issue IssueRef, existing models.Vote) (CastResult, error) {
	if !s.allowDuplicates {
		s.metrics.VoteCast(metrics.OutcomeDuplicate)
		return CastResult{}, &DuplicateVoteError{Weight: existing.Weight}
	}

	agg, err := s.agg.Current(ctx, issue.ID)
	if err != nil {
		return CastResult{}, err
	}
	s.metrics.VoteCast(metrics.OutcomeNoop)
	return CastResult{Aggregate: agg, Weight: existing.Weight, Created: false}, nil
}

func (s *VoteService) findVote(ctx context.Context, userID, issueID uint) (models.Vote, bool, error) {
	var votes []models.Vote
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND issue_report_id = ?", userID, issueID).
		Limit(1).
		Find(&votes).Error; err != nil {
		return models.Vote{}, false, fmt.Errorf("load vote: %w", err)
	}
	if len(votes) == 0 {
		return models.Vote{}, false, nil
	}
	return votes[0], true, nil
}

func (s *VoteService) publish(issue IssueRef, agg Aggregate) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(realtime.NewEvent(realtime.EventVoteUpdated, realtime.VoteUpdated{
		IssueToken: issue.Token,
		Total:      agg.Total,
		Threshold:  agg.Threshold,
		Escalated:  agg.Escalated,
	}, realtime.IssueTopic(issue.Token), realtime.GlobalTopic))
}

// Summary lists every vote on an issue together with the aggregate.
func (s *VoteService) Summary(ctx context.Context, caller Caller, issueToken string) (VoteSummary, error) {
	if caller.ID == 0 {
		return VoteSummary{}, ErrUnauthorized
	}

	issue, err := s.dir.IssueByToken(ctx, issueToken)
	if err != nil {
		return VoteSummary{}, err
	}

	var votes []models.Vote
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("issue_report_id = ?", issue.ID).
		Order("created_at ASC, id ASC").
		Find(&votes).Error; err != nil {
		return VoteSummary{}, fmt.Errorf("load votes: %w", err)
	}

	summary := VoteSummary{Votes: make([]VoterView, 0, len(votes))}
	for _, v := range votes {
		summary.Total += v.Weight
		summary.Votes = append(summary.Votes, VoterView{
			UserToken: v.User.Token,
			Role:      v.User.Role,
			Weight:    v.Weight,
			CreatedAt: v.CreatedAt,
		})
	}
	summary.Count = int64(len(votes))
	summary.Threshold = s.agg.Threshold()
	summary.Escalated = s.agg.Escalated(summary.Total)
	return summary, nil
}
