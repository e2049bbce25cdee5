package repository

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/peerpresence/server-go/internal/database"
	"github.com/peerpresence/server-go/internal/model"
)

// setupTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// every table. Tests are skipped when the variable is unset.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Connect(url)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))

	_, err = db.ExecContext(ctx, `
		TRUNCATE persons, person_subjects, tutors, tutor_reviews, conversations, messages,
			bookings, posts, post_votes, post_favorites, courses, subjects, global_messages
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)

	return db
}

func createTestPerson(t *testing.T, repo PersonRepository, email string) *model.Person {
	t.Helper()
	person, err := repo.Create(context.Background(), model.CreatePersonParams{
		Name:         "Test " + email,
		Email:        email,
		PasswordHash: "hash",
		Role:         model.RoleStudent,
	})
	require.NoError(t, err)
	return person
}
