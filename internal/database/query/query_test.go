package query_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"arkhive.dev/hearth/internal/database/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *sql.DB {
	t.Helper()
	gormDatabase, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gormDatabase.Exec(`CREATE TABLE service_games (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		service TEXT NOT NULL,
		appid TEXT NOT NULL,
		slug TEXT,
		name TEXT NOT NULL,
		details TEXT)`).Error)
	database, err := gormDatabase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func insertGame(t *testing.T, database *sql.DB, service, appid, slug, name string) {
	t.Helper()
	_, err := database.ExecContext(context.Background(),
		"INSERT INTO service_games (service, appid, slug, name, details) VALUES (?, ?, ?, ?, ?)",
		service, appid, slug, name, "{}")
	require.NoError(t, err)
}

func TestFilteredQueryWithoutCriteria(t *testing.T) {
	database := openTestDatabase(t)
	insertGame(t, database, "romm", "1", "foo", "Foo")
	insertGame(t, database, "gog", "2", "bar", "Bar")

	rows, err := query.FilteredQuery(context.Background(), database, "service_games", query.Criteria{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestFilteredQueryFiltersCombineWithAnd(t *testing.T) {
	database := openTestDatabase(t)
	insertGame(t, database, "romm", "1", "foo", "Foo")
	insertGame(t, database, "romm", "2", "bar", "Bar")
	insertGame(t, database, "gog", "3", "foo", "Foo")

	rows, err := query.FilteredQuery(context.Background(), database, "service_games", query.Criteria{
		Filters: map[string]interface{}{"service": "romm", "name": "Foo"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0]["appid"])
}

func TestFilteredQuerySearchMatchesSubstring(t *testing.T) {
	database := openTestDatabase(t)
	insertGame(t, database, "romm", "1", "super-game", "Super Game")
	insertGame(t, database, "romm", "2", "other", "Other")

	rows, err := query.FilteredQuery(context.Background(), database, "service_games", query.Criteria{
		Searches: map[string]string{"name": "per Ga"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Super Game", rows[0]["name"])
}

func TestFilteredQueryExcludes(t *testing.T) {
	database := openTestDatabase(t)
	insertGame(t, database, "romm", "1", "foo", "Foo")
	insertGame(t, database, "gog", "2", "bar", "Bar")

	rows, err := query.FilteredQuery(context.Background(), database, "service_games", query.Criteria{
		Excludes: map[string]interface{}{"service": "gog"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "romm", rows[0]["service"])
}

func TestFilteredQuerySortsRows(t *testing.T) {
	database := openTestDatabase(t)
	insertGame(t, database, "romm", "3", "charlie", "Charlie")
	insertGame(t, database, "romm", "1", "alpha", "Alpha")
	insertGame(t, database, "romm", "2", "bravo", "Bravo")

	rows, err := query.FilteredQuery(context.Background(), database, "service_games", query.Criteria{
		Sorts: []string{"name"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Alpha", rows[0]["name"])
	assert.Equal(t, "Bravo", rows[1]["name"])
	assert.Equal(t, "Charlie", rows[2]["name"])
}

func TestFilteredQueryCombinesEveryFacet(t *testing.T) {
	database := openTestDatabase(t)
	insertGame(t, database, "romm", "1", "metroid", "Metroid")
	insertGame(t, database, "romm", "2", "metroid-ii", "Metroid II")
	insertGame(t, database, "romm", "3", "zelda", "Zelda")
	insertGame(t, database, "gog", "4", "metroid-like", "Metroid Like")

	rows, err := query.FilteredQuery(context.Background(), database, "service_games", query.Criteria{
		Searches: map[string]string{"name": "Metroid"},
		Filters:  map[string]interface{}{"service": "romm"},
		Excludes: map[string]interface{}{"appid": "1"},
		Sorts:    []string{"name"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Metroid II", rows[0]["name"])
}

func TestFilteredQueryUnknownTable(t *testing.T) {
	database := openTestDatabase(t)

	_, err := query.FilteredQuery(context.Background(), database, "bogus_table", query.Criteria{})
	var invalidQueryError *query.InvalidQueryError
	require.ErrorAs(t, err, &invalidQueryError)
	assert.Equal(t, "bogus_table", invalidQueryError.Table)
	assert.Empty(t, invalidQueryError.Field)
}

func TestFilteredQueryUnknownField(t *testing.T) {
	database := openTestDatabase(t)
	insertGame(t, database, "romm", "1", "foo", "Foo")

	_, err := query.FilteredQuery(context.Background(), database, "service_games", query.Criteria{
		Filters: map[string]interface{}{"bogus": "value"},
	})
	var invalidQueryError *query.InvalidQueryError
	require.ErrorAs(t, err, &invalidQueryError)
	assert.Equal(t, "bogus", invalidQueryError.Field)
}

func TestFilteredQueryUnknownSortField(t *testing.T) {
	database := openTestDatabase(t)

	_, err := query.FilteredQuery(context.Background(), database, "service_games", query.Criteria{
		Sorts: []string{"bogus"},
	})
	var invalidQueryError *query.InvalidQueryError
	require.ErrorAs(t, err, &invalidQueryError)
	assert.Equal(t, "bogus", invalidQueryError.Field)
}

// Facet values must be bound as parameters: a value carrying query control
// characters matches nothing instead of changing the query semantics.
func TestFilteredQueryBindsValuesAsParameters(t *testing.T) {
	database := openTestDatabase(t)
	insertGame(t, database, "romm", "1", "foo", "Foo")
	insertGame(t, database, "gog", "2", "bar", "Bar")

	rows, err := query.FilteredQuery(context.Background(), database, "service_games", query.Criteria{
		Filters: map[string]interface{}{"service": "romm' OR '1'='1"},
	})
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = query.FilteredQuery(context.Background(), database, "service_games", query.Criteria{
		Searches: map[string]string{"name": "\"; DROP TABLE service_games; --"},
	})
	require.NoError(t, err)
	assert.Empty(t, rows)

	// The table must have survived the attempted injection.
	rows, err = query.FilteredQuery(context.Background(), database, "service_games", query.Criteria{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestFilteredQueryEmptyTableReturnsNoRows(t *testing.T) {
	database := openTestDatabase(t)

	rows, err := query.FilteredQuery(context.Background(), database, "service_games", query.Criteria{})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestFilteredQueryContextCancellation(t *testing.T) {
	database := openTestDatabase(t)
	insertGame(t, database, "romm", "1", "foo", "Foo")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := query.FilteredQuery(ctx, database, "service_games", query.Criteria{})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
