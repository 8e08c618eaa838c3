// Package postgres provides a simplemodel.Driver backed by PostgreSQL via
// pgx. Table names are entity names; records map one column per key.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-model/pkg/simplemodel"
)

// DBTX is an interface that allows us to use either a database connection or
// a transaction.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Driver implements simplemodel.Driver using PostgreSQL.
type Driver struct {
	db DBTX
}

// New creates a new PostgreSQL driver.
func New(db DBTX) *Driver {
	return &Driver{db: db}
}

// NewWithPool creates a new PostgreSQL driver with a connection pool.
func NewWithPool(pool *pgxpool.Pool) *Driver {
	return &Driver{db: pool}
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return `"` + name + `"`, nil
}

// handlePostgresError maps driver errors onto stable messages, keeping the
// backend error reachable through the DriverError chain.
func (d *Driver) handlePostgresError(entity, operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			err = fmt.Errorf("duplicate entry: %w", err)
		case "23503": // foreign_key_violation
			err = fmt.Errorf("referenced record not found: %w", err)
		case "23502": // not_null_violation
			err = fmt.Errorf("required field %s is missing: %w", pgErr.ColumnName, err)
		case "42P01": // undefined_table
			err = fmt.Errorf("table does not exist - database migration required: %w", err)
		}
		return &simplemodel.DriverError{Driver: "postgres", Entity: entity, Op: operation, Err: err}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return simplemodel.ErrRecordNotFound
	}

	return &simplemodel.DriverError{Driver: "postgres", Entity: entity, Op: operation, Err: err}
}

func (d *Driver) Insert(ctx context.Context, entity, idKey string, rec simplemodel.Record) (simplemodel.Record, error) {
	query, args, err := buildInsert(entity, idKey, rec)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(ctx, query, args...)
	if err != nil {
		return nil, d.handlePostgresError(entity, "insert", err)
	}
	defer rows.Close()

	stored, err := collectOne(rows)
	if err != nil {
		return nil, d.handlePostgresError(entity, "insert", err)
	}
	return stored, nil
}

// buildInsert renders an INSERT for a record. A zero identifier is left out
// of the column list so the database can assign it (serial convention).
func buildInsert(entity, idKey string, rec simplemodel.Record) (string, []any, error) {
	table, err := quoteIdent(entity)
	if err != nil {
		return "", nil, err
	}

	keys := sortedKeys(rec)
	var cols []string
	var placeholders []string
	var args []any
	for _, k := range keys {
		if k == idKey && isZeroValue(rec[k]) {
			continue
		}
		col, err := quoteIdent(k)
		if err != nil {
			return "", nil, err
		}
		cols = append(cols, col)
		args = append(args, pgValue(rec[k]))
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return query, args, nil
}

func (d *Driver) Update(ctx context.Context, entity, idKey string, id any, rec simplemodel.Record) error {
	table, err := quoteIdent(entity)
	if err != nil {
		return err
	}
	idCol, err := quoteIdent(idKey)
	if err != nil {
		return err
	}

	var sets []string
	var args []any
	for _, k := range sortedKeys(rec) {
		if k == idKey {
			continue
		}
		col, err := quoteIdent(k)
		if err != nil {
			return err
		}
		args = append(args, pgValue(rec[k]))
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		table, strings.Join(sets, ", "), idCol, len(args))

	tag, err := d.db.Exec(ctx, query, args...)
	if err != nil {
		return d.handlePostgresError(entity, "update", err)
	}
	if tag.RowsAffected() == 0 {
		return simplemodel.ErrRecordNotFound
	}
	return nil
}

func (d *Driver) Delete(ctx context.Context, entity, idKey string, id any) error {
	table, err := quoteIdent(entity)
	if err != nil {
		return err
	}
	idCol, err := quoteIdent(idKey)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, idCol)
	tag, err := d.db.Exec(ctx, query, id)
	if err != nil {
		return d.handlePostgresError(entity, "delete", err)
	}
	if tag.RowsAffected() == 0 {
		return simplemodel.ErrRecordNotFound
	}
	return nil
}

func (d *Driver) List(ctx context.Context, entity string, spec simplemodel.QuerySpec) ([]simplemodel.Record, error) {
	table, err := quoteIdent(entity)
	if err != nil {
		return nil, err
	}

	where, args, err := buildWhere(spec.Filters)
	if err != nil {
		return nil, err
	}

	query := "SELECT * FROM " + table + where
	if spec.SortBy != "" {
		col, err := quoteIdent(spec.SortBy)
		if err != nil {
			return nil, err
		}
		query += " ORDER BY " + col
		if spec.SortDesc {
			query += " DESC"
		}
	}
	if spec.Limit > 0 {
		args = append(args, spec.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if spec.Offset > 0 {
		args = append(args, spec.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := d.db.Query(ctx, query, args...)
	if err != nil {
		return nil, d.handlePostgresError(entity, "list", err)
	}
	defer rows.Close()

	var result []simplemodel.Record
	for rows.Next() {
		rec, err := rowToRecord(rows)
		if err != nil {
			return nil, d.handlePostgresError(entity, "list", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, d.handlePostgresError(entity, "list", err)
	}
	return result, nil
}

func (d *Driver) Count(ctx context.Context, entity string, spec simplemodel.QuerySpec) (int64, error) {
	table, err := quoteIdent(entity)
	if err != nil {
		return 0, err
	}

	where, args, err := buildWhere(spec.Filters)
	if err != nil {
		return 0, err
	}

	var n int64
	query := "SELECT count(*) FROM " + table + where
	if err := d.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, d.handlePostgresError(entity, "count", err)
	}
	return n, nil
}

func buildWhere(filters []simplemodel.FilterSpec) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	var clauses []string
	var args []any
	for _, f := range filters {
		col, err := quoteIdent(f.Field)
		if err != nil {
			return "", nil, err
		}
		switch f.Op {
		case simplemodel.OpNull:
			clauses = append(clauses, col+" IS NULL")
		case simplemodel.OpNotNull:
			clauses = append(clauses, col+" IS NOT NULL")
		case simplemodel.OpIn:
			args = append(args, f.Value)
			clauses = append(clauses, fmt.Sprintf("%s = ANY($%d)", col, len(args)))
		default:
			op, ok := sqlOps[f.Op]
			if !ok {
				return "", nil, simplemodel.ErrInvalidFilter
			}
			args = append(args, pgValue(f.Value))
			clauses = append(clauses, fmt.Sprintf("%s %s $%d", col, op, len(args)))
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

var sqlOps = map[simplemodel.Op]string{
	simplemodel.OpEq:  "=",
	simplemodel.OpNe:  "<>",
	simplemodel.OpGt:  ">",
	simplemodel.OpGte: ">=",
	simplemodel.OpLt:  "<",
	simplemodel.OpLte: "<=",
}

func collectOne(rows pgx.Rows) (simplemodel.Record, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	return rowToRecord(rows)
}

func rowToRecord(rows pgx.Rows) (simplemodel.Record, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, err
	}
	fields := rows.FieldDescriptions()

	rec := make(simplemodel.Record, len(fields))
	for i, fd := range fields {
		rec[fd.Name] = values[i]
	}
	return rec, nil
}

// pgValue prepares a record value for the wire. Maps and structs are stored
// as JSONB.
func pgValue(v any) any {
	if v == nil {
		return nil
	}
	switch v.(type) {
	case time.Time, *time.Time, []byte:
		return v
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Struct:
		if _, ok := v.(fmt.Stringer); ok {
			return v
		}
		data, err := json.Marshal(rv.Interface())
		if err != nil {
			return v
		}
		return data
	}
	return v
}

func isZeroValue(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}

func sortedKeys(rec simplemodel.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
