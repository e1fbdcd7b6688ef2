package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_EmbeddedInOrderWithUpAndDown(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.Len(t, names, 5)

	assert.Equal(t, "00001_content_items.sql", names[0])
	assert.Equal(t, "00005_delivery_events.sql", names[4])

	for _, n := range names {
		b, err := fs.ReadFile(Migrations, n)
		require.NoError(t, err)
		body := string(b)
		assert.True(t, strings.Contains(body, "-- +goose Up"), n)
		assert.True(t, strings.Contains(body, "-- +goose Down"), n)
	}
}

func TestMigrations_OwnershipUniqueness(t *testing.T) {
	b, err := fs.ReadFile(Migrations, "00003_ownerships.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "PRIMARY KEY (user_id, content_id)")
}
