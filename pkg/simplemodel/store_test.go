package simplemodel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-model/pkg/simplemodel"
	"github.com/tendant/simple-model/pkg/simplemodel/driver/memory"
)

type Article struct {
	simplemodel.Model
	Title string
	Views int
}

func (Article) EntityName() string { return "articles" }

// Counter uses a driver-assigned serial identifier and has no soft-delete
// column.
type Counter struct {
	ID   int64
	Name string
}

func (Counter) EntityName() string { return "counters" }

func newTestDB(t *testing.T, opts ...simplemodel.Option) *simplemodel.Database {
	t.Helper()
	options := append([]simplemodel.Option{simplemodel.WithDriver(memory.New())}, opts...)
	db, err := simplemodel.New(options...)
	require.NoError(t, err)
	return db
}

func TestDatabaseCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []simplemodel.Option
		expectError bool
	}{
		{
			name:        "no driver should fail",
			options:     []simplemodel.Option{},
			expectError: true,
		},
		{
			name: "with driver should succeed",
			options: []simplemodel.Option{
				simplemodel.WithDriver(memory.New()),
			},
			expectError: false,
		},
		{
			name: "with conventions should succeed",
			options: []simplemodel.Option{
				simplemodel.WithDriver(memory.New()),
				simplemodel.WithKeyNaming(simplemodel.KeyNamingCamelCase),
				simplemodel.WithIDConvention(simplemodel.IDConventionSerial),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := simplemodel.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, db)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, db)
			}
		})
	}
}

func TestStoreSaveAssignsIdentifierAndTimestamps(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))

	article := &Article{Title: "hello", Views: 3}
	require.NoError(t, store.Save(ctx, article))

	assert.NotEqual(t, uuid.Nil, article.ID)
	assert.False(t, article.CreatedAt.IsZero())
	assert.False(t, article.UpdatedAt.IsZero())
	assert.Nil(t, article.DeletedAt)
}

func TestStoreSaveUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))

	article := &Article{Title: "first"}
	require.NoError(t, store.Save(ctx, article))
	created := article.CreatedAt

	article.Title = "second"
	require.NoError(t, store.Save(ctx, article))

	found, err := store.Find(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", found.Title)
	assert.Equal(t, created.Unix(), found.CreatedAt.Unix())

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStoreSaveUnknownIdentifierFails(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))

	article := &Article{Title: "ghost"}
	article.ID = uuid.New()

	err := store.Save(ctx, article)
	require.Error(t, err)
	assert.ErrorIs(t, err, simplemodel.ErrRecordNotFound)
}

func TestStoreFind(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))

	article := &Article{Title: "findable"}
	require.NoError(t, store.Save(ctx, article))

	t.Run("existing", func(t *testing.T) {
		found, err := store.Find(ctx, article.ID)
		require.NoError(t, err)
		assert.Equal(t, article.ID, found.ID)
		assert.Equal(t, "findable", found.Title)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		_, err := store.Find(ctx, uuid.New())
		assert.ErrorIs(t, err, simplemodel.ErrRecordNotFound)
	})

	t.Run("missing identifier", func(t *testing.T) {
		_, err := store.Find(ctx, uuid.Nil)
		assert.ErrorIs(t, err, simplemodel.ErrMissingIdentifier)
	})

	t.Run("nil identifier", func(t *testing.T) {
		_, err := store.Find(ctx, nil)
		assert.ErrorIs(t, err, simplemodel.ErrMissingIdentifier)
	})
}

func TestStoreSoftDeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))

	article := &Article{Title: "deletable"}
	require.NoError(t, store.Save(ctx, article))

	require.NoError(t, store.Delete(ctx, article))
	require.NotNil(t, article.DeletedAt)

	_, err := store.Find(ctx, article.ID)
	assert.ErrorIs(t, err, simplemodel.ErrRecordNotFound)

	// Still visible when deleted records are included.
	found, err := store.Query().
		Filter(store.IDKey(), simplemodel.OpEq, article.ID).
		WithDeleted().
		First(ctx)
	require.NoError(t, err)
	assert.NotNil(t, found.DeletedAt)

	require.NoError(t, store.Restore(ctx, found))
	assert.Nil(t, found.DeletedAt)

	restored, err := store.Find(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, "deletable", restored.Title)
}

func TestStoreRestoreLiveModelFails(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))

	article := &Article{Title: "live"}
	require.NoError(t, store.Save(ctx, article))

	err := store.Restore(ctx, article)
	assert.ErrorIs(t, err, simplemodel.ErrNotSoftDeleted)
}

func TestStoreForceDelete(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))

	article := &Article{Title: "gone"}
	require.NoError(t, store.Save(ctx, article))
	require.NoError(t, store.ForceDelete(ctx, article))

	_, err := store.Query().
		Filter(store.IDKey(), simplemodel.OpEq, article.ID).
		WithDeleted().
		First(ctx)
	assert.ErrorIs(t, err, simplemodel.ErrRecordNotFound)
}

func TestStoreDeleteWithoutSoftDeleteColumnRemoves(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, simplemodel.WithIDConvention(simplemodel.IDConventionSerial))
	store := simplemodel.NewStore[Counter](db)

	counter := &Counter{Name: "hits"}
	require.NoError(t, store.Save(ctx, counter))

	require.NoError(t, store.Delete(ctx, counter))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestStoreSerialIdentifiers(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, simplemodel.WithIDConvention(simplemodel.IDConventionSerial))
	store := simplemodel.NewStore[Counter](db)

	first := &Counter{Name: "a"}
	second := &Counter{Name: "b"}
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)

	found, err := store.Find(ctx, int64(2))
	require.NoError(t, err)
	assert.Equal(t, "b", found.Name)
}

func TestStoreAllAndChunk(t *testing.T) {
	ctx := context.Background()
	store := simplemodel.NewStore[Article](newTestDB(t))

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(ctx, &Article{Title: "item", Views: i}))
	}

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	var batches [][]*Article
	err = store.Chunk(ctx, 2, func(batch []*Article) error {
		batches = append(batches, batch)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)

	t.Run("invalid chunk size", func(t *testing.T) {
		err := store.Chunk(ctx, 0, func([]*Article) error { return nil })
		assert.ErrorIs(t, err, simplemodel.ErrInvalidChunkSize)
	})

	t.Run("callback error stops iteration", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := store.Chunk(ctx, 2, func([]*Article) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}

type recordingSink struct {
	created, updated, deleted int
}

func (s *recordingSink) RecordCreated(ctx context.Context, entity string, rec simplemodel.Record) error {
	s.created++
	return nil
}

func (s *recordingSink) RecordUpdated(ctx context.Context, entity string, rec simplemodel.Record) error {
	s.updated++
	return nil
}

func (s *recordingSink) RecordDeleted(ctx context.Context, entity string, id any) error {
	s.deleted++
	return nil
}

func TestStoreEmitsEvents(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	db := newTestDB(t, simplemodel.WithEventSink(sink))
	store := simplemodel.NewStore[Article](db)

	article := &Article{Title: "events"}
	require.NoError(t, store.Save(ctx, article))
	article.Views = 1
	require.NoError(t, store.Save(ctx, article))
	require.NoError(t, store.Delete(ctx, article))

	assert.Equal(t, 1, sink.created)
	assert.Equal(t, 1, sink.updated)
	assert.Equal(t, 1, sink.deleted)
}

// Widget declares a custom identifier column in place of the conventional
// "id", with a driver-assigned serial value.
type Widget struct {
	WidgetID int64
	Label    string
}

func (Widget) EntityName() string { return "widgets" }
func (Widget) IDKey() string      { return "widget_id" }

// Gadget pairs a custom identifier column with a generated UUID.
type Gadget struct {
	GadgetID uuid.UUID
	Label    string
}

func (Gadget) EntityName() string { return "gadgets" }
func (Gadget) IDKey() string      { return "gadget_id" }

func TestStoreCustomIdentifierKey(t *testing.T) {
	ctx := context.Background()

	t.Run("serial assignment and re-save", func(t *testing.T) {
		db := newTestDB(t, simplemodel.WithIDConvention(simplemodel.IDConventionSerial))
		store := simplemodel.NewStore[Widget](db)
		assert.Equal(t, "widget_id", store.IDKey())

		first := &Widget{Label: "first"}
		require.NoError(t, store.Save(ctx, first))
		assert.Equal(t, int64(1), first.WidgetID)

		second := &Widget{Label: "second"}
		require.NoError(t, store.Save(ctx, second))
		assert.Equal(t, int64(2), second.WidgetID)

		first.Label = "renamed"
		require.NoError(t, store.Save(ctx, first))

		found, err := store.Find(ctx, first.WidgetID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", found.Label)

		require.NoError(t, store.Delete(ctx, second))
		_, err = store.Find(ctx, second.WidgetID)
		assert.ErrorIs(t, err, simplemodel.ErrRecordNotFound)
	})

	t.Run("uuid generation", func(t *testing.T) {
		db := newTestDB(t)
		store := simplemodel.NewStore[Gadget](db)

		g := &Gadget{Label: "gizmo"}
		require.NoError(t, store.Save(ctx, g))
		assert.NotEqual(t, uuid.Nil, g.GadgetID)

		found, err := store.Find(ctx, g.GadgetID)
		require.NoError(t, err)
		assert.Equal(t, "gizmo", found.Label)
	})
}
