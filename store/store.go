// Package store 使用 SQLite 持久化仿真运行。
package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cmm/params"
	"cmm/types"
)

// ErrNotFound 运行记录不存在
var ErrNotFound = errors.New("run not found")

// Run 运行记录摘要
type Run struct {
	ID        int64
	Protocol  types.ProtocolID
	Feedback  bool
	CreatedAt time.Time
	Samples   int
	Warnings  int
}

// Store SQLite 存储
type Store struct {
	db *sql.DB
}

// Open 打开数据库并建表，path 为 ":memory:" 时使用内存数据库
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// 内存数据库按连接隔离
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close 关闭数据库
func (s *Store) Close() error { return s.db.Close() }

func sampleColumns() []string {
	names := types.ColumnNames()
	cols := make([]string, len(names))
	for i, n := range names {
		cols[i] = `"` + n + `"`
	}
	return cols
}

func (s *Store) migrate(ctx context.Context) error {
	defs := make([]string, 0, len(types.ColumnNames()))
	for _, c := range sampleColumns() {
		defs = append(defs, c+" REAL NOT NULL")
	}
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			protocol   TEXT    NOT NULL,
			feedback   INTEGER NOT NULL,
			created_at TEXT    NOT NULL,
			params     TEXT    NOT NULL,
			samples    INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS samples (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			idx    INTEGER NOT NULL,
			` + strings.Join(defs, ",\n\t\t\t") + `,
			PRIMARY KEY (run_id, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS warnings (
			run_id     INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			idx        INTEGER NOT NULL,
			time       REAL    NOT NULL,
			iterations INTEGER NOT NULL,
			dsigma     REAL    NOT NULL,
			dj         REAL    NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SaveRun 保存一次运行，返回运行 ID
func (s *Store) SaveRun(ctx context.Context, p params.Params, res *types.Result) (id int64, err error) {
	if err := res.Check(); err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if err := params.Encode(&buf, p); err != nil {
		return 0, fmt.Errorf("encode params: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	r, err := tx.ExecContext(ctx,
		`INSERT INTO runs (protocol, feedback, created_at, params, samples) VALUES (?, ?, ?, ?, ?)`,
		res.Protocol.String(), boolInt(res.Feedback), time.Now().UTC().Format(time.RFC3339Nano), buf.String(), res.Len())
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	if id, err = r.LastInsertId(); err != nil {
		return 0, err
	}

	cols := res.Columns()
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)+2), ", ")
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (run_id, idx, `+strings.Join(sampleColumns(), ", ")+`) VALUES (`+marks+`)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	args := make([]any, len(cols)+2)
	for i := 0; i < res.Len(); i++ {
		args[0], args[1] = id, i
		for j, c := range cols {
			args[j+2] = c.Values[i]
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	for _, w := range res.Warnings {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO warnings (run_id, idx, time, iterations, dsigma, dj) VALUES (?, ?, ?, ?, ?, ?)`,
			id, w.Index, w.Time, w.Iterations, w.DeltaSigma, w.DeltaJ); err != nil {
			return 0, fmt.Errorf("insert warning: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRuns 按 ID 顺序列出全部运行
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.protocol, r.feedback, r.created_at, r.samples,
		       (SELECT COUNT(*) FROM warnings w WHERE w.run_id = r.id)
		FROM runs r ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var (
			run     Run
			proto   string
			created string
		)
		if err := rows.Scan(&run.ID, &proto, &run.Feedback, &created, &run.Samples, &run.Warnings); err != nil {
			return nil, err
		}
		run.Protocol = types.ProtocolID(proto)
		if run.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %d: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LoadRun 读取一次运行的参数与结果
func (s *Store) LoadRun(ctx context.Context, id int64) (*types.Result, params.Params, error) {
	var (
		proto    string
		feedback bool
		raw      string
		n        int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT protocol, feedback, params, samples FROM runs WHERE id = ?`, id).
		Scan(&proto, &feedback, &raw, &n)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, params.Params{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, params.Params{}, err
	}
	p, err := params.Decode(strings.NewReader(raw), params.Params{})
	if err != nil {
		return nil, params.Params{}, fmt.Errorf("run %d params: %w", id, err)
	}

	res := types.NewResult(types.ProtocolID(proto), make([]float64, n))
	res.Feedback = feedback
	cols := res.Columns()
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, `+strings.Join(sampleColumns(), ", ")+` FROM samples WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, params.Params{}, err
	}
	defer rows.Close()
	var idx int
	dest := make([]any, len(cols)+1)
	dest[0] = &idx
	values := make([]float64, len(cols))
	for i := range values {
		dest[i+1] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, params.Params{}, err
		}
		if idx < 0 || idx >= n {
			return nil, params.Params{}, fmt.Errorf("run %d: sample index %d out of range", id, idx)
		}
		for j, c := range cols {
			c.Values[idx] = values[j]
		}
	}
	if err := rows.Err(); err != nil {
		return nil, params.Params{}, err
	}

	if res.Warnings, err = s.loadWarnings(ctx, id, res.Protocol); err != nil {
		return nil, params.Params{}, err
	}
	return res, p, nil
}

func (s *Store) loadWarnings(ctx context.Context, id int64, protocol types.ProtocolID) ([]types.ConvergenceWarning, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, time, iterations, dsigma, dj FROM warnings WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []types.ConvergenceWarning
	for rows.Next() {
		w := types.ConvergenceWarning{Protocol: protocol}
		if err := rows.Scan(&w.Index, &w.Time, &w.Iterations, &w.DeltaSigma, &w.DeltaJ); err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
