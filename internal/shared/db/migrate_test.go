package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNamesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/0002_b.sql":   {Data: []byte("SELECT 2;")},
		"migrations/0001_a.sql":   {Data: []byte("SELECT 1;")},
		"migrations/README.md":    {Data: []byte("notes")},
		"migrations/nested/x.sql": {Data: []byte("SELECT 3;")},
	}

	names, err := MigrationNames(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, names)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	names, err := MigrationNames(MigrationsFS)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_coverage_flags.sql", names[0])
}
