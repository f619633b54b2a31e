package services

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/paymybuddy/paymybuddy-be/internal/database"
	"github.com/paymybuddy/paymybuddy-be/internal/models"
)

var testDBCounter atomic.Int64

// newTestDB opens a fresh in-memory database with the full schema applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	// A single connection keeps the shared in-memory database alive.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// mustCreateUser registers a user and fills in profile fields directly.
func mustCreateUser(t *testing.T, svc *UserService, email, firstName, lastName string) models.User {
	t.Helper()

	user, err := svc.CreateUser(email, "CouldIBeAnyMoreBored")
	require.NoError(t, err)

	user.FirstName = firstName
	user.LastName = lastName
	user, err = svc.UpdateUser(user)
	require.NoError(t, err)
	return user
}
