package importer

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edicola/pkg/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func countIssues(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM issues`).Scan(&n))
	return n
}

func TestReadCSV(t *testing.T) {
	src := strings.Join([]string{
		"magazine,year,number",
		"Linus,1990,12/13",
		"Linus,,7bis",
		",1990,1", // no magazine, skipped
		"Urania,2001,", // no number, skipped
	}, "\n")

	rows, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Linus", rows[0].Magazine)
	require.NotNil(t, rows[0].Year)
	assert.Equal(t, 1990, *rows[0].Year)
	assert.Equal(t, "12/13", rows[0].Number)
	assert.Nil(t, rows[1].Year)
}

func TestReadCSVHeaderOrderIndependent(t *testing.T) {
	src := "number,magazine,year\n5,Linus,1990\n"
	rows, err := ReadCSV(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Linus", rows[0].Magazine)
	assert.Equal(t, "5", rows[0].Number)
}

func TestReadCSVBadYear(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("magazine,year,number\nLinus,millenovecento,1\n"))
	require.Error(t, err)
}

func year(y int) *int { return &y }

func TestApplyFreshCatalog(t *testing.T) {
	db := openTestDB(t)

	sum, err := Apply(context.Background(), db, []Row{
		{Magazine: "Linus", Year: year(1990), Number: "1"},
		{Magazine: "Linus", Year: year(1990), Number: "2/3"},
		{Magazine: "Urania", Number: "1000"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.NewMagazines)
	assert.Equal(t, 3, sum.NewIssues)
	assert.Equal(t, 0, sum.UpdatedIssues)
	assert.Equal(t, 0, sum.DeletedIssues)
	assert.Equal(t, 3, countIssues(t, db))

	// imported issues carry the derived range
	var numMin, numMax sql.NullInt64
	require.NoError(t, db.QueryRow(`
		SELECT num_min, num_max FROM issues WHERE issue_number = '2/3'
	`).Scan(&numMin, &numMax))
	require.True(t, numMin.Valid)
	require.True(t, numMax.Valid)
	assert.EqualValues(t, 2, numMin.Int64)
	assert.EqualValues(t, 3, numMax.Int64)
}

func TestApplyDiffsAgainstExistingCatalog(t *testing.T) {
	db := openTestDB(t)

	_, err := Apply(context.Background(), db, []Row{
		{Magazine: "Linus", Year: year(1990), Number: "1"},
		{Magazine: "Linus", Year: year(1990), Number: "2"},
	})
	require.NoError(t, err)

	// flag one issue as a pending new arrival
	_, err = db.Exec(`UPDATE issues SET is_new = 1 WHERE issue_number = '1'`)
	require.NoError(t, err)

	// next snapshot: confirms 1, drops 2, adds 3
	sum, err := Apply(context.Background(), db, []Row{
		{Magazine: "Linus", Year: year(1990), Number: "1"},
		{Magazine: "Linus", Year: year(1990), Number: "3"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, sum.NewMagazines)
	assert.Equal(t, 1, sum.NewIssues)
	assert.Equal(t, 1, sum.UpdatedIssues) // is_new cleared on the confirmed issue
	assert.Equal(t, 1, sum.DeletedIssues)
	assert.Equal(t, 2, countIssues(t, db))

	var isNew bool
	require.NoError(t, db.QueryRow(`SELECT is_new FROM issues WHERE issue_number = '1'`).Scan(&isNew))
	assert.False(t, isNew)
}

func TestApplyDuplicateSnapshotRowsCountOnce(t *testing.T) {
	db := openTestDB(t)

	sum, err := Apply(context.Background(), db, []Row{
		{Magazine: "Linus", Year: year(1990), Number: "1"},
		{Magazine: "Linus", Year: year(1990), Number: "1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.NewIssues)
	assert.Equal(t, 1, countIssues(t, db))
}

func TestApplyIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	rows := []Row{
		{Magazine: "Linus", Year: year(1990), Number: "1"},
		{Magazine: "Linus", Number: "speciale"},
	}

	_, err := Apply(context.Background(), db, rows)
	require.NoError(t, err)

	sum, err := Apply(context.Background(), db, rows)
	require.NoError(t, err)

	assert.Equal(t, Summary{}, sum)
	assert.Equal(t, 2, countIssues(t, db))
}
