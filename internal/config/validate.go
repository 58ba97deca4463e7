package config

import (
	"errors"
	"fmt"
)

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Voting.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Realtime.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("realtime.queue_size must be positive, got %d", c.Realtime.QueueSize))
	}
	if c.Realtime.Workers <= 0 {
		errs = append(errs, fmt.Errorf("realtime.workers must be positive, got %d", c.Realtime.Workers))
	}
	if c.Realtime.SubscriberBuffer <= 0 {
		errs = append(errs, fmt.Errorf("realtime.subscriber_buffer must be positive, got %d", c.Realtime.SubscriberBuffer))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	return errors.Join(errs...)
}

// Validate rejects weight tables and thresholds that would make the
// aggregate meaningless.
func (v VotingConfig) Validate() error {
	weights := map[string]float64{
		"same_ward_resident":  v.Weights.SameWardResident,
		"other_ward_resident": v.Weights.OtherWardResident,
		"community_leader":    v.Weights.CommunityLeader,
		"staff":               v.Weights.Staff,
		"admin":               v.Weights.Admin,
		"default":             v.Weights.Default,
	}
	var errs []error
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Errorf("voting.weights.%s must not be negative, got %v", name, w))
		}
	}
	if v.EscalationThreshold <= 0 {
		errs = append(errs, fmt.Errorf("voting.escalation_threshold must be positive, got %v", v.EscalationThreshold))
	}
	if v.ReconcileInterval < 0 {
		errs = append(errs, fmt.Errorf("voting.reconcile_interval must not be negative, got %s", v.ReconcileInterval))
	}
	return errors.Join(errs...)
}
