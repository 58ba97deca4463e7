// Package testdb opens throwaway in-memory databases and creates fixtures
// for package tests.
package testdb

import (
	"testing"
	"time"
	"wardwatch/internal/config"
	"wardwatch/internal/db"
	"wardwatch/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New returns a migrated in-memory SQLite database that lives for the test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(config.DatabaseConfig{DSN: "sqlite:file::memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func Ward(t testing.TB, gdb *gorm.DB, name string) models.Ward {
	t.Helper()
	w := models.Ward{Name: name}
	require.NoError(t, gdb.Create(&w).Error)
	return w
}

// User creates a user with role. A non-nil ward adds a residency, and for
// community leaders a leadership record in the same ward.
func User(t testing.TB, gdb *gorm.DB, role models.Role, ward *models.Ward) models.User {
	t.Helper()
	u := models.User{
		FirstName: "Test",
		LastName:  string(role),
		Email:     uuid.NewString() + "@example.org",
		Role:      role,
	}
	require.NoError(t, gdb.Create(&u).Error)
	if ward != nil {
		require.NoError(t, gdb.Create(&models.Resident{UserID: u.ID, WardID: ward.ID}).Error)
		if role == models.RoleCommunityLeader {
			require.NoError(t, gdb.Create(&models.CommunityLeader{UserID: u.ID, WardID: ward.ID}).Error)
		}
	}
	return u
}

func Issue(t testing.TB, gdb *gorm.DB, author models.User, ward *models.Ward, status models.IssueStatus) models.IssueReport {
	t.Helper()
	i := models.IssueReport{
		UserID: author.ID,
		Title:  "Issue " + uuid.NewString()[:8],
		Status: status,
	}
	if ward != nil {
		i.WardID = &ward.ID
	}
	require.NoError(t, gdb.Create(&i).Error)
	return i
}

func Message(t testing.TB, gdb *gorm.DB, issue models.IssueReport, author models.User, at time.Time) models.Message {
	t.Helper()
	m := models.Message{
		IssueReportID: issue.ID,
		UserID:        author.ID,
		Content:       "message at " + at.Format(time.RFC3339Nano),
		CreatedAt:     at.UTC(),
	}
	require.NoError(t, gdb.Create(&m).Error)
	return m
}
