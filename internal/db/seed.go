package db

import (
	"fmt"
	"log/slog"
	"wardwatch/internal/models"

	"gorm.io/gorm"
)

// Seed fills an empty database with wards, one user per role and a few
// issues so the engine can be exercised locally.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Ward{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count wards: %w", err)
	}
	if count > 0 {
		slog.Info("wards already seeded, skipping", "component", "db")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		wards := []models.Ward{{Name: "Ward 1"}, {Name: "Ward 2"}, {Name: "Ward 3"}}
		if err := tx.Create(&wards).Error; err != nil {
			return fmt.Errorf("create wards: %w", err)
		}

		users := []models.User{
			{FirstName: "Rita", LastName: "Resident", Email: "resident1@example.org", Role: models.RoleResident},
			{FirstName: "Ravi", LastName: "Resident", Email: "resident2@example.org", Role: models.RoleResident},
			{FirstName: "Lena", LastName: "Leader", Email: "leader@example.org", Role: models.RoleCommunityLeader},
			{FirstName: "Sam", LastName: "Staff", Email: "staff@example.org", Role: models.RoleStaff},
			{FirstName: "Ada", LastName: "Admin", Email: "admin@example.org", Role: models.RoleAdmin},
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("create users: %w", err)
		}

		residents := []models.Resident{
			{UserID: users[0].ID, WardID: wards[0].ID},
			{UserID: users[1].ID, WardID: wards[1].ID},
			{UserID: users[2].ID, WardID: wards[0].ID},
		}
		if err := tx.Create(&residents).Error; err != nil {
			return fmt.Errorf("create residents: %w", err)
		}
		leader := models.CommunityLeader{UserID: users[2].ID, WardID: wards[0].ID}
		if err := tx.Create(&leader).Error; err != nil {
			return fmt.Errorf("create community leader: %w", err)
		}

		issues := []models.IssueReport{
			{UserID: users[0].ID, WardID: &wards[0].ID, Title: "Pothole on Main Road", Description: "Deep pothole near the school gate."},
			{UserID: users[1].ID, WardID: &wards[1].ID, Title: "Streetlight out", Description: "Dark corner since last week.", Status: models.IssueStatusInProgress},
			{UserID: users[0].ID, WardID: &wards[0].ID, Title: "Water leak fixed", Description: "Burst pipe repaired.", Status: models.IssueStatusResolved},
		}
		if err := tx.Create(&issues).Error; err != nil {
			return fmt.Errorf("create issues: %w", err)
		}

		slog.Info("seed data created", "component", "db", "wards", len(wards), "users", len(users), "issues", len(issues))
		return nil
	})
}
