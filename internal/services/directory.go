package services

import (
	"context"
	"fmt"
	"time"
	"wardwatch/internal/db"
	"wardwatch/internal/models"
	"wardwatch/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Caller is the authenticated actor behind a request. A zero ID means
// anonymous.
type Caller struct {
	ID    uint
	Token string
}

// CallerFromUser builds a Caller; nil yields the anonymous caller.
func CallerFromUser(u *models.User) Caller {
	if u == nil {
		return Caller{}
	}
	return Caller{ID: u.ID, Token: u.Token}
}

// Actor is what the weight resolver needs to know about a voter.
type Actor struct {
	ID     uint
	Role   models.Role
	WardID *uint
}

// IssueRef is the slice of an issue the engine reads.
type IssueRef struct {
	ID     uint
	Token  string
	WardID *uint
	Status models.IssueStatus
}

// Directory reads the collaborator-owned entities: issues, users and ward
// affiliations.
type Directory struct {
	db  *gorm.DB
	ids *utils.TTLCache[string, uint]
}

// NewDirectory builds a Directory. Token to id mappings never change, so
// they are cached; status and ward are always read fresh.
func NewDirectory(gdb *gorm.DB) *Directory {
	ids, err := utils.NewTTLCache[string, uint](4096, 10*time.Minute)
	if err != nil {
		// Only fails for a non-positive size.
		panic(err)
	}
	return &Directory{db: gdb, ids: ids}
}

// IssueByToken looks up an issue by its public token. Malformed tokens are
// reported as not found.
func (d *Directory) IssueByToken(ctx context.Context, token string) (IssueRef, error) {
	if _, err := uuid.Parse(token); err != nil {
		return IssueRef{}, fmt.Errorf("issue %q: %w", token, ErrNotFound)
	}

	var issue models.IssueReport
	err := d.db.WithContext(ctx).
		Select("id", "token", "ward_id", "status").
		Where("token = ?", token).
		First(&issue).Error
	if db.IsNotFound(err) {
		return IssueRef{}, fmt.Errorf("issue %q: %w", token, ErrNotFound)
	}
	if err != nil {
		return IssueRef{}, fmt.Errorf("load issue %q: %w", token, err)
	}

	d.ids.Set(issue.Token, issue.ID)
	return IssueRef{ID: issue.ID, Token: issue.Token, WardID: issue.WardID, Status: issue.Status}, nil
}

// IssueIDs resolves tokens to internal ids. Unknown and malformed tokens are
// left out of the result.
func (d *Directory) IssueIDs(ctx context.Context, tokens []string) (map[string]uint, error) {
	out := make(map[string]uint, len(tokens))
	var missing []string
	for _, t := range tokens {
		if id, ok := d.ids.Get(t); ok {
			out[t] = id
			continue
		}
		if _, err := uuid.Parse(t); err == nil {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	var issues []models.IssueReport
	if err := d.db.WithContext(ctx).
		Select("id", "token").
		Where("token IN ?", missing).
		Find(&issues).Error; err != nil {
		return nil, fmt.Errorf("load issue ids: %w", err)
	}
	for _, issue := range issues {
		d.ids.Set(issue.Token, issue.ID)
		out[issue.Token] = issue.ID
	}
	return out, nil
}

// Actor loads a user's role and ward. Community leaders are affiliated with
// the ward they lead, falling back to their residency; everyone else with
// their residency.
func (d *Directory) Actor(ctx context.Context, userID uint) (Actor, error) {
	var user models.User
	err := d.db.WithContext(ctx).Select("id", "role").First(&user, userID).Error
	if db.IsNotFound(err) {
		return Actor{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return Actor{}, fmt.Errorf("load user %d: %w", userID, err)
	}

	actor := Actor{ID: user.ID, Role: user.Role}
	if role, ok := models.ParseRole(string(user.Role)); ok {
		actor.Role = role
	}

	if actor.Role == models.RoleCommunityLeader {
		var leader models.CommunityLeader
		err := d.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&leader).Error
		if err != nil {
			return Actor{}, fmt.Errorf("load community leader %d: %w", userID, err)
		}
		if leader.ID != 0 {
			actor.WardID = &leader.WardID
			return actor, nil
		}
	}

	var resident models.Resident
	if err := d.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&resident).Error; err != nil {
		return Actor{}, fmt.Errorf("load residency %d: %w", userID, err)
	}
	if resident.ID != 0 {
		actor.WardID = &resident.WardID
	}
	return actor, nil
}
