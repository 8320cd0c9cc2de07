package database

import (
	"testing"

	"tukio/config"
	"tukio/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDBSQLiteMigrates(t *testing.T) {
	db, err := NewDB(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, m := range []interface{}{&models.Event{}, &models.Transaction{}, &models.Attendance{}, &models.Notification{}, &models.AuditLog{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Transaction{}, "CheckoutRequestID"))
	assert.True(t, db.Migrator().HasIndex(&models.Attendance{}, "PaymentID"))
}

func TestNewDBUnknownDriver(t *testing.T) {
	_, err := NewDB(&config.DatabaseConfig{Driver: "postgres", DSN: "x"})
	assert.Error(t, err)
}
