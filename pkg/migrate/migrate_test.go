package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, Validate())
}

func TestCoreMigrationCarriesIntegrityConstraints(t *testing.T) {
	data, err := embedded.ReadFile("migrations/20260301090000_create_marketplace_core.sql")
	require.NoError(t, err)
	content := string(data)

	for _, want := range []string{
		"CONSTRAINT memberships_seller_user_key UNIQUE (seller_org_id, user_id)",
		"ON memberships (seller_org_id) WHERE role = 'owner'",
		"checkout_ref text UNIQUE",
		"used_count integer NOT NULL DEFAULT 0 CHECK (used_count >= 0)",
		"stock integer NOT NULL DEFAULT 0 CHECK (stock >= 0)",
		"CHECK (scope = 'store' OR seller_org_id IS NOT NULL)",
		"DROP TABLE IF EXISTS orders",
	} {
		assert.True(t, strings.Contains(content, want), "missing %q", want)
	}
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	err := ValidateFS(fstest.MapFS{
		"m/20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
	}, "m")
	assert.ErrorContains(t, err, "duplicate migration version")

	err = ValidateFS(fstest.MapFS{"m/20260101000000_a.sql": {Data: []byte("-- +goose Up\n")}}, "m")
	assert.ErrorContains(t, err, "-- +goose Down")

	err = ValidateFS(fstest.MapFS{"m/add_orders.sql": {Data: []byte("")}}, "m")
	assert.ErrorContains(t, err, "invalid migration filename")
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Order Notes!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_order_notes.sql"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	require.NoError(t, ValidateFS(os.DirFS(filepath.Dir(path)), "."))
}

func TestCreateSQLMigrationRejectsDuplicateName(t *testing.T) {
	dir := t.TempDir()
	_, err := CreateSQLMigration(dir, "add_notes")
	require.NoError(t, err)

	_, err = CreateSQLMigration(dir, "Add Notes")
	assert.ErrorContains(t, err, "already exists")

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}
