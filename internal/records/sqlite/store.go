// Package sqlite stores records as JSON documents in an embedded SQLite
// database, one row per record.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/records"

	_ "modernc.org/sqlite"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func jsonPath(field string) (string, error) {
	if !fieldName.MatchString(field) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	return `$."` + field + `"`, nil
}

// buildFetch translates a query into SQL. Projection is applied afterwards.
func buildFetch(entity string, q records.Query) (string, []any, error) {
	var sb strings.Builder
	args := []any{entity}
	sb.WriteString("SELECT id, data FROM records WHERE entity = ?")

	for _, f := range q.Where {
		if len(f.Values) == 0 {
			sb.WriteString(" AND 0")
			continue
		}
		col := "CAST(json_extract(data, ?) AS TEXT)"
		var colArgs []any
		if f.Field == records.IDField {
			col = "CAST(id AS TEXT)"
		} else {
			path, err := jsonPath(f.Field)
			if err != nil {
				return "", nil, err
			}
			colArgs = []any{path}
		}
		parts := make([]string, 0, len(f.Values))
		for _, v := range f.Values {
			switch f.Operator {
			case records.StartsWith:
				parts = append(parts, "substr("+col+", 1, length(?)) = ?")
				args = append(args, colArgs...)
				args = append(args, v, v)
			default:
				parts = append(parts, col+" = ?")
				args = append(args, colArgs...)
				args = append(args, v)
			}
		}
		sb.WriteString(" AND (" + strings.Join(parts, " OR ") + ")")
	}

	order := make([]string, 0, len(q.OrderBy)+1)
	for _, o := range q.OrderBy {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		if o.Field == records.IDField {
			order = append(order, "id "+dir)
			continue
		}
		path, err := jsonPath(o.Field)
		if err != nil {
			return "", nil, err
		}
		order = append(order, "json_extract(data, ?) "+dir)
		args = append(args, path)
	}
	order = append(order, "id ASC")
	sb.WriteString(" ORDER BY " + strings.Join(order, ", "))

	if q.Limit > 0 || q.Offset > 0 {
		limit := q.Limit
		if limit <= 0 {
			limit = -1
		}
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, q.Offset)
	}
	return sb.String(), args, nil
}

func decode(id int64, data string) (records.Record, error) {
	rec := records.Record{}
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record %d: %w", id, err)
	}
	rec[records.IDField] = id
	return rec, nil
}

func encode(rec records.Record) (string, error) {
	body := make(map[string]any, len(rec))
	for k, v := range rec {
		if k == records.IDField {
			continue
		}
		body[k] = v
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(b), nil
}

func (s *Store) Fetch(ctx context.Context, entity string, q records.Query) ([]records.Record, error) {
	query, args, err := buildFetch(entity, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", entity, err)
	}
	defer rows.Close()

	out := []records.Record{}
	for rows.Next() {
		var id int64
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", entity, err)
		}
		rec, err := decode(id, data)
		if err != nil {
			return nil, err
		}
		out = append(out, records.Project(rec, q.Fields))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", entity, err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, entity string, id int64, fields []string) (records.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM records WHERE id = ? AND entity = ?", id, entity).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", entity, id, err)
	}
	rec, err := decode(id, data)
	if err != nil {
		return nil, err
	}
	return records.Project(rec, fields), nil
}

func (s *Store) Create(ctx context.Context, entity string, recs []records.Record) ([]records.Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create %s: %w", entity, err)
	}
	defer tx.Rollback()

	out := make([]records.Result, 0, len(recs))
	for _, rec := range recs {
		if len(rec) == 0 {
			out = append(out, records.Result{Message: "empty record"})
			continue
		}
		data, err := encode(rec)
		if err != nil {
			out = append(out, records.Result{Message: err.Error()})
			continue
		}
		var id int64
		if err := tx.QueryRowContext(ctx,
			"INSERT INTO records (entity, data) VALUES (?, ?) RETURNING id", entity, data).Scan(&id); err != nil {
			return nil, fmt.Errorf("insert %s: %w", entity, err)
		}
		created, err := decode(id, data)
		if err != nil {
			return nil, err
		}
		out = append(out, records.Result{Success: true, Record: created})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create %s: %w", entity, err)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, entity string, recs []records.Record) ([]records.Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update %s: %w", entity, err)
	}
	defer tx.Rollback()

	out := make([]records.Result, 0, len(recs))
	for _, rec := range recs {
		id := rec.ID()
		patch, err := encode(rec)
		if err != nil {
			out = append(out, records.Result{Message: err.Error()})
			continue
		}
		var data string
		err = tx.QueryRowContext(ctx,
			`UPDATE records SET data = json_patch(data, ?), updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND entity = ? RETURNING data`, patch, id, entity).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			out = append(out, records.Result{Message: fmt.Sprintf("%s record %d not found", entity, id)})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update %s %d: %w", entity, id, err)
		}
		updated, err := decode(id, data)
		if err != nil {
			return nil, err
		}
		out = append(out, records.Result{Success: true, Record: updated})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update %s: %w", entity, err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, entity string, ids []int64) ([]records.Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete %s: %w", entity, err)
	}
	defer tx.Rollback()

	out := make([]records.Result, 0, len(ids))
	for _, id := range ids {
		res, err := tx.ExecContext(ctx, "DELETE FROM records WHERE id = ? AND entity = ?", id, entity)
		if err != nil {
			return nil, fmt.Errorf("delete %s %d: %w", entity, id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("delete %s %d: %w", entity, id, err)
		}
		if n == 0 {
			out = append(out, records.Result{Message: fmt.Sprintf("%s record %d not found", entity, id)})
			continue
		}
		out = append(out, records.Result{Success: true, Record: records.Record{records.IDField: id}})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete %s: %w", entity, err)
	}
	return out, nil
}

// Increment adds delta to a numeric field inside one transaction. The sum
// is computed on the decimal text so large balances keep every digit.
func (s *Store) Increment(ctx context.Context, entity string, id int64, field string, delta decimal.Decimal) (records.Record, error) {
	path, err := jsonPath(field)
	if err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin increment %s: %w", entity, err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM records WHERE id = ? AND entity = ?`, id, entity).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s %d: %w", entity, id, err)
	}
	current, err := decode(id, data)
	if err != nil {
		return nil, err
	}
	sum := delta
	if v, ok := current[field]; ok && v != nil {
		d, err := core.CoerceDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("increment %s.%s: %w", entity, field, err)
		}
		sum = d.Add(delta)
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE records SET data = json_set(data, ?, json(?)), updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND entity = ? RETURNING data`,
		path, sum.String(), id, entity).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("increment %s %d %s: %w", entity, id, field, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit increment %s: %w", entity, err)
	}
	return decode(id, data)
}
