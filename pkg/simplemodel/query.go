package simplemodel

import (
	"context"
)

// Query is a filter builder over a typed store. Builder methods return the
// query for chaining; the first invalid input is remembered and surfaced by
// the terminal operation.
type Query[T Entity] struct {
	store       *Store[T]
	filters     []FilterSpec
	sortBy      string
	sortDesc    bool
	limit       int
	offset      int
	withDeleted bool
	err         error
}

// Filter adds a field comparison. Field names are record keys, i.e. they
// follow the configured naming convention (or the entity's db tags).
func (q *Query[T]) Filter(field string, op Op, value any) *Query[T] {
	if q.err == nil && !op.IsValid() {
		q.err = ErrInvalidFilter
		return q
	}
	q.filters = append(q.filters, FilterSpec{Field: field, Op: op, Value: value})
	return q
}

// Sort orders results by the given record key.
func (q *Query[T]) Sort(field string, desc bool) *Query[T] {
	q.sortBy = field
	q.sortDesc = desc
	return q
}

// Limit caps the number of results.
func (q *Query[T]) Limit(n int) *Query[T] {
	q.limit = n
	return q
}

// Offset skips the first n results.
func (q *Query[T]) Offset(n int) *Query[T] {
	q.offset = n
	return q
}

// WithDeleted includes soft-deleted records in the results.
func (q *Query[T]) WithDeleted() *Query[T] {
	q.withDeleted = true
	return q
}

func (q *Query[T]) spec() QuerySpec {
	spec := QuerySpec{
		Filters:  q.filters,
		SortBy:   q.sortBy,
		SortDesc: q.sortDesc,
		Limit:    q.limit,
		Offset:   q.offset,
	}
	if !q.withDeleted && q.store.deletedKey != "" {
		spec.Filters = append(spec.Filters, FilterSpec{Field: q.store.deletedKey, Op: OpNull})
	}
	return spec
}

// All runs the query and returns every matching model.
func (q *Query[T]) All(ctx context.Context) ([]*T, error) {
	if q.err != nil {
		return nil, q.store.wrap("query", q.err)
	}

	recs, err := q.store.db.driver.List(ctx, q.store.entity, q.spec())
	if err != nil {
		return nil, q.store.fail(ctx, "query", err)
	}

	out := make([]*T, 0, len(recs))
	for _, rec := range recs {
		m := new(T)
		if err := q.store.db.decodeRecord(rec, m); err != nil {
			return nil, q.store.fail(ctx, "query", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// First returns the first matching model, or ErrRecordNotFound.
func (q *Query[T]) First(ctx context.Context) (*T, error) {
	limited := *q
	limited.limit = 1
	results, err := limited.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, q.store.wrap("query", ErrRecordNotFound)
	}
	return results[0], nil
}

// Count returns the number of matching records.
func (q *Query[T]) Count(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.store.wrap("count", q.err)
	}

	spec := q.spec()
	spec.Limit = 0
	spec.Offset = 0
	n, err := q.store.db.driver.Count(ctx, q.store.entity, spec)
	if err != nil {
		return 0, q.store.fail(ctx, "count", err)
	}
	return n, nil
}

// Chunk pages through matching records in batches of size, invoking fn for
// each batch. Iteration stops at the first short batch or when fn returns a
// non-nil error.
func (q *Query[T]) Chunk(ctx context.Context, size int, fn func(batch []*T) error) error {
	if q.err != nil {
		return q.store.wrap("chunk", q.err)
	}
	if size <= 0 {
		return q.store.wrap("chunk", ErrInvalidChunkSize)
	}

	offset := q.offset
	for {
		page := *q
		page.limit = size
		page.offset = offset

		batch, err := page.All(ctx)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < size {
			return nil
		}
		offset += size
	}
}
