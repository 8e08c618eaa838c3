package simplemodel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-model/pkg/simplemodel"
)

func seedArticles(t *testing.T, store *simplemodel.Store[Article]) []*Article {
	t.Helper()
	ctx := context.Background()
	titles := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	articles := make([]*Article, 0, len(titles))
	for i, title := range titles {
		a := &Article{Title: title, Views: i * 10}
		require.NoError(t, store.Save(ctx, a))
		articles = append(articles, a)
	}
	return articles
}

func TestQueryFilters(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))
	seedArticles(t, store)

	t.Run("eq", func(t *testing.T) {
		got, err := store.Query().Filter("title", simplemodel.OpEq, "bravo").All(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "bravo", got[0].Title)
	})

	t.Run("ne", func(t *testing.T) {
		got, err := store.Query().Filter("title", simplemodel.OpNe, "bravo").All(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("gt", func(t *testing.T) {
		got, err := store.Query().Filter("views", simplemodel.OpGt, 20).All(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("gte and lte combined", func(t *testing.T) {
		got, err := store.Query().
			Filter("views", simplemodel.OpGte, 10).
			Filter("views", simplemodel.OpLte, 30).
			All(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("in", func(t *testing.T) {
		got, err := store.Query().
			Filter("title", simplemodel.OpIn, []string{"alpha", "echo", "missing"}).
			All(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("invalid op", func(t *testing.T) {
		_, err := store.Query().Filter("views", simplemodel.Op("like"), "x").All(ctx)
		assert.ErrorIs(t, err, simplemodel.ErrInvalidFilter)
	})
}

func TestQuerySortLimitOffset(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))
	seedArticles(t, store)

	got, err := store.Query().
		Sort("views", true).
		Limit(2).
		Offset(1).
		All(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "delta", got[0].Title)
	assert.Equal(t, "charlie", got[1].Title)
}

func TestQueryFirst(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))
	seedArticles(t, store)

	first, err := store.Query().Sort("views", false).First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alpha", first.Title)

	_, err = store.Query().Filter("title", simplemodel.OpEq, "nope").First(ctx)
	assert.ErrorIs(t, err, simplemodel.ErrRecordNotFound)
}

func TestQueryCountIgnoresPaging(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))
	seedArticles(t, store)

	count, err := store.Query().Limit(2).Offset(1).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestQueryExcludesSoftDeleted(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))
	articles := seedArticles(t, store)

	require.NoError(t, store.Delete(ctx, articles[0]))
	require.NoError(t, store.Delete(ctx, articles[1]))

	live, err := store.Query().All(ctx)
	require.NoError(t, err)
	assert.Len(t, live, 3)

	all, err := store.Query().WithDeleted().All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	deleted, err := store.Query().
		WithDeleted().
		Filter("deleted_at", simplemodel.OpNotNull, nil).
		All(ctx)
	require.NoError(t, err)
	assert.Len(t, deleted, 2)
}

func TestQueryChunkPages(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))
	seedArticles(t, store)

	var seen []string
	err := store.Query().Sort("views", false).Chunk(ctx, 2, func(batch []*Article) error {
		for _, a := range batch {
			seen = append(seen, a.Title)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta", "echo"}, seen)
}
