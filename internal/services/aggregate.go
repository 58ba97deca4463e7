package services

import (
	"context"
	"fmt"
	"math"
	"wardwatch/internal/metrics"
	"wardwatch/internal/models"

	"gorm.io/gorm"
)

// Aggregate is the weighted score of one issue.
type Aggregate struct {
	Total     float64 `json:"total"`
	Threshold float64 `json:"threshold"`
	Escalated bool    `json:"escalated"`
	Count     int64   `json:"count"`
}

// Aggregator derives issue scores from the vote ledger. It never adjusts a
// score incrementally: every recompute is a full sum, so concurrent or
// repeated recomputes converge on the same value.
type Aggregator struct {
	db        *gorm.DB
	threshold float64
	metrics   *metrics.Metrics
}

func NewAggregator(gdb *gorm.DB, threshold float64, m *metrics.Metrics) *Aggregator {
	return &Aggregator{db: gdb, threshold: threshold, metrics: m}
}

// Threshold is the escalation threshold in weight units.
func (a *Aggregator) Threshold() float64 {
	return a.threshold
}

// Escalated reports whether total crosses the threshold. Nothing about
// escalation is stored; each crossing vote re-announces it.
func (a *Aggregator) Escalated(total float64) bool {
	return total >= a.threshold
}

// Recompute sums the issue's votes and stores the rounded total in
// issue_reports.votes_count.
func (a *Aggregator) Recompute(ctx context.Context, issueID uint) (Aggregate, error) {
	agg, err := a.Current(ctx, issueID)
	if err != nil {
		return Aggregate{}, err
	}

	if err := a.db.WithContext(ctx).
		Model(&models.IssueReport{}).
		Where("id = ?", issueID).
		UpdateColumn("votes_count", int(math.Round(agg.Total))).Error; err != nil {
		return Aggregate{}, fmt.Errorf("store votes_count for issue %d: %w", issueID, err)
	}

	a.metrics.Recomputed(agg.Escalated)
	return agg, nil
}

// Current sums the votes without writing anything.
func (a *Aggregator) Current(ctx context.Context, issueID uint) (Aggregate, error) {
	var row struct {
		Total float64
		Count int64
	}
	if err := a.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("COALESCE(SUM(weight), 0) AS total, COUNT(*) AS count").
		Where("issue_report_id = ?", issueID).
		Scan(&row).Error; err != nil {
		return Aggregate{}, fmt.Errorf("sum votes for issue %d: %w", issueID, err)
	}

	return Aggregate{
		Total:     row.Total,
		Threshold: a.threshold,
		Escalated: a.Escalated(row.Total),
		Count:     row.Count,
	}, nil
}
