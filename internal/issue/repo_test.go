package issue

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edicola/pkg/database"
	"edicola/pkg/models"
)

func openTestRepo(t *testing.T) (*Repo, int64) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db))

	res, err := db.Exec(`INSERT INTO magazines (name) VALUES ('Linus')`)
	require.NoError(t, err)
	magazineID, err := res.LastInsertId()
	require.NoError(t, err)

	return NewRepo(db), magazineID
}

func TestInsertDerivesRange(t *testing.T) {
	repo, magazineID := openTestRepo(t)
	ctx := context.Background()

	year := 1990
	is := models.Issue{MagazineID: magazineID, Year: &year, Number: "12/13 bis"}
	require.NoError(t, repo.Insert(ctx, &is))
	require.NotZero(t, is.ID)

	got, err := repo.GetByID(ctx, is.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.NotNil(t, got.Range.Min)
	require.NotNil(t, got.Range.Max)
	assert.Equal(t, 12, *got.Range.Min)
	assert.Equal(t, 13, *got.Range.Max)
	assert.False(t, got.Range.Inverted)
	assert.Equal(t, "bis", got.Range.Suffix)
	assert.Equal(t, 1, got.Copies) // defaulted
}

func TestUpdateRederivesRange(t *testing.T) {
	repo, magazineID := openTestRepo(t)
	ctx := context.Background()

	is := models.Issue{MagazineID: magazineID, Number: "7", Copies: 1}
	require.NoError(t, repo.Insert(ctx, &is))

	is.Number = "21/19"
	ok, err := repo.Update(ctx, &is)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetByID(ctx, is.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 19, *got.Range.Min)
	assert.Equal(t, 21, *got.Range.Max)
	assert.True(t, got.Range.Inverted)
}

func TestInsertRejectsDuplicateIdentifier(t *testing.T) {
	repo, magazineID := openTestRepo(t)
	ctx := context.Background()

	year := 1990
	first := models.Issue{MagazineID: magazineID, Year: &year, Number: "1"}
	require.NoError(t, repo.Insert(ctx, &first))

	dup := models.Issue{MagazineID: magazineID, Year: &year, Number: "1"}
	assert.Error(t, repo.Insert(ctx, &dup))
}

func TestListFilters(t *testing.T) {
	repo, magazineID := openTestRepo(t)
	ctx := context.Background()

	year := 1990
	for _, is := range []models.Issue{
		{MagazineID: magazineID, Year: &year, Number: "1", Copies: 2},
		{MagazineID: magazineID, Year: &year, Number: "2", IsNew: true},
		{MagazineID: magazineID, Number: "speciale 3"},
	} {
		is := is
		require.NoError(t, repo.Insert(ctx, &is))
	}

	dupes, err := repo.List(ctx, ListQuery{OnlyDupes: true})
	require.NoError(t, err)
	require.Len(t, dupes, 1)
	assert.Equal(t, "1", dupes[0].Number)

	fresh, err := repo.List(ctx, ListQuery{OnlyNew: true})
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "2", fresh[0].Number)

	byNumber, err := repo.List(ctx, ListQuery{Number: "speciale"})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)

	byYear, err := repo.List(ctx, ListQuery{Year: &year})
	require.NoError(t, err)
	assert.Len(t, byYear, 2)

	total, err := repo.Count(ctx, ListQuery{MagazineID: magazineID})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestDeleteNew(t *testing.T) {
	repo, magazineID := openTestRepo(t)
	ctx := context.Background()

	for _, raw := range []string{"1", "2"} {
		is := models.Issue{MagazineID: magazineID, Number: raw, IsNew: true}
		require.NoError(t, repo.Insert(ctx, &is))
	}
	keep := models.Issue{MagazineID: magazineID, Number: "3"}
	require.NoError(t, repo.Insert(ctx, &keep))

	n, err := repo.DeleteNew(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := repo.ListForMagazine(ctx, magazineID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "3", left[0].Number)
}
