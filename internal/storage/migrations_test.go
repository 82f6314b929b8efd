package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brieflyhq/briefly/internal/crypto"
)

func TestMigrate_Idempotent(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	// Already migrated by the helper; a second run is a no-op
	require.NoError(t, store.Migrate(ctx))

	var version int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrationVersionsAreSequential(t *testing.T) {
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "migration %q out of order", m.Description)
		assert.NotEmpty(t, m.Description)
		assert.NotNil(t, m.Up)
	}
	assert.Equal(t, ExpectedSchemaVersion, migrations[len(migrations)-1].Version)
}

func TestNewSQLiteStorage_Validation(t *testing.T) {
	cipher, err := crypto.NewCipher("k")
	require.NoError(t, err)

	_, err = NewSQLiteStorage("", cipher)
	assert.ErrorIs(t, err, ErrEmptyString)

	_, err = NewSQLiteStorage(":memory:", nil)
	assert.ErrorIs(t, err, ErrNilParameter)
}
