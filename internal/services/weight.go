package services

import (
	"wardwatch/internal/config"
	"wardwatch/internal/models"
)

// WeightResolver turns an actor's relationship to an issue into a vote
// weight. Rules apply in order, first match wins:
//
//  1. community leader voting in their own ward
//  2. resident voting in their own ward
//  3. resident voting elsewhere, or with no ward
//  4. staff, whatever the ward
//  5. admin
//  6. anything else gets the default weight
type WeightResolver struct {
	weights config.WeightTable
}

func NewWeightResolver(weights config.WeightTable) WeightResolver {
	return WeightResolver{weights: weights}
}

// Resolve never fails.
func (r WeightResolver) Resolve(actor Actor, issueWardID *uint) float64 {
	sameWard := actor.WardID != nil && issueWardID != nil && *actor.WardID == *issueWardID

	switch actor.Role {
	case models.RoleCommunityLeader:
		if sameWard {
			return r.weights.CommunityLeader
		}
	case models.RoleResident:
		if sameWard {
			return r.weights.SameWardResident
		}
		return r.weights.OtherWardResident
	case models.RoleStaff:
		// Staff are never boosted by ward so they cannot dominate.
		return r.weights.Staff
	case models.RoleAdmin:
		return r.weights.Admin
	}
	return r.weights.Default
}
