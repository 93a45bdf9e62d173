// Package history 把每次扫描的汇总保存到 SQLite，供 history 命令回看。
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"codestat/internal/languages"
	"codestat/internal/model"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// timeLayout 固定小数位数，保证按字符串排序与按时间排序一致。
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
  id              TEXT PRIMARY KEY,
  scanned_path    TEXT NOT NULL,
  started_at_utc  TEXT NOT NULL,
  elapsed_seconds REAL NOT NULL,
  file_count      INTEGER NOT NULL,
  line_count      INTEGER NOT NULL,
  error_count     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_path_time ON runs(scanned_path, started_at_utc);
CREATE TABLE IF NOT EXISTS run_languages (
  run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  language    TEXT NOT NULL,
  file_count  INTEGER NOT NULL,
  line_count  INTEGER NOT NULL,
  classes     INTEGER NOT NULL,
  structs     INTEGER NOT NULL,
  enums       INTEGER NOT NULL,
  interfaces  INTEGER NOT NULL,
  functions   INTEGER NOT NULL,
  imports     INTEGER NOT NULL,
  extensions  INTEGER NOT NULL,
  percentage  REAL,
  PRIMARY KEY (run_id, language)
);
`

// Run 是一次扫描的摘要。
type Run struct {
	ID             string
	ScannedPath    string
	StartedAt      time.Time
	ElapsedSeconds float64
	Files          int64
	Lines          int64
	Errors         int64
}

// LanguageRow 是某次扫描中一种语言的汇总。
// Percentage 为 nil 表示该行没有占比（All 或总行数为 0）。
type LanguageRow struct {
	Language   languages.Tag
	Files      int64
	Lines      int64
	Counts     model.Counts
	Percentage *float64
}

// Store 封装 SQLite 连接。
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open 打开（必要时创建）历史数据库。
func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// watch 模式下会频繁写入，busy_timeout + WAL 减少锁冲突。
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

// Close 关闭数据库连接。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun 在一个事务里保存扫描摘要与各语言汇总。
func (s *Store) SaveRun(ctx context.Context, result model.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(result.RunID) == "" {
		return fmt.Errorf("save run: run id is empty")
	}
	startedAt := result.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	total := result.Total()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, scanned_path, started_at_utc, elapsed_seconds, file_count, line_count, error_count)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.ScannedPath,
		startedAt.UTC().Format(timeLayout),
		result.ElapsedSeconds,
		total.Files,
		total.LineCount(),
		len(result.Errors),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	percentages := make(map[languages.Tag]float64, len(result.Statistics))
	for _, item := range result.Statistics {
		percentages[item.Language] = item.Percentage
	}

	for _, item := range result.Languages {
		var percentage any
		if value, ok := percentages[item.Language]; ok {
			percentage = value
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO run_languages (
  run_id, language, file_count, line_count, classes, structs, enums,
  interfaces, functions, imports, extensions, percentage
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.RunID,
			item.Language.String(),
			item.Files,
			item.LineCount(),
			item.Counts.Classes,
			item.Counts.Structs,
			item.Counts.Enums,
			item.Counts.Interfaces,
			item.Counts.Functions,
			item.Counts.Imports,
			item.Counts.Extensions,
			percentage,
		); err != nil {
			return fmt.Errorf("insert run language %s: %w", item.Language, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	return nil
}

// ListRuns 按时间倒序返回扫描记录。
// scannedPath 为空时返回全部路径的记录；limit <= 0 表示不限制。
func (s *Store) ListRuns(ctx context.Context, scannedPath string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, scanned_path, started_at_utc, elapsed_seconds, file_count, line_count, error_count FROM runs`
	args := make([]any, 0, 2)
	if strings.TrimSpace(scannedPath) != "" {
		query += ` WHERE scanned_path = ?`
		args = append(args, scannedPath)
	}
	query += ` ORDER BY started_at_utc DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var run Run
		var startedAt string
		if err := rows.Scan(&run.ID, &run.ScannedPath, &startedAt, &run.ElapsedSeconds, &run.Files, &run.Lines, &run.Errors); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		run.StartedAt, err = time.Parse(timeLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", startedAt, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LoadLanguages 返回某次扫描的语言汇总，按固定语言顺序排列。
func (s *Store) LoadLanguages(ctx context.Context, runID string) ([]LanguageRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
SELECT language, file_count, line_count, classes, structs, enums,
       interfaces, functions, imports, extensions, percentage
FROM run_languages WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run languages: %w", err)
	}
	defer rows.Close()

	byTag := make(map[languages.Tag]LanguageRow)
	for rows.Next() {
		var row LanguageRow
		var name string
		var percentage sql.NullFloat64
		if err := rows.Scan(
			&name,
			&row.Files,
			&row.Lines,
			&row.Counts.Classes,
			&row.Counts.Structs,
			&row.Counts.Enums,
			&row.Counts.Interfaces,
			&row.Counts.Functions,
			&row.Counts.Imports,
			&row.Counts.Extensions,
			&percentage,
		); err != nil {
			return nil, fmt.Errorf("scan run language row: %w", err)
		}
		if row.Language, err = languages.ParseTag(name); err != nil {
			return nil, fmt.Errorf("parse stored language: %w", err)
		}
		if percentage.Valid {
			value := percentage.Float64
			row.Percentage = &value
		}
		byTag[row.Language] = row
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run languages: %w", err)
	}

	result := make([]LanguageRow, 0, len(byTag))
	for _, tag := range languages.CanonicalOrder() {
		if row, ok := byTag[tag]; ok {
			result = append(result, row)
		}
	}
	return result, nil
}
