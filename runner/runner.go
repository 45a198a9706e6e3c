package runner

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/user"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const (
	ActionApply  = "apply"
	ActionRemove = "remove"

	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Record is one execution of a generated script.
type Record struct {
	ID           int64          `db:"id"`
	Definition   string         `db:"definition"`
	Action       string         `db:"action"`
	ExecutedAt   time.Time      `db:"executed_at"`
	DurationMS   int64          `db:"duration_ms"`
	ExecutedBy   string         `db:"executed_by"`
	Status       string         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	Checksum     string         `db:"checksum"`
}

// Duration is the execution time of the script.
func (r Record) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}

// Result describes a finished Apply or Remove.
type Result struct {
	Executed bool
	Checksum string
	Duration time.Duration
}

// Runner executes generated scripts and keeps their history in the
// inheritview_history table.
type Runner struct {
	db     *sqlx.DB
	logger *slog.Logger
	user   func() string
}

func New(db *sqlx.DB, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{db: db, logger: logger, user: getCurrentUser}
}

const createHistoryTable = `
	CREATE TABLE IF NOT EXISTS inheritview_history (
		id BIGSERIAL PRIMARY KEY,
		definition TEXT NOT NULL,
		action TEXT NOT NULL,
		executed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		duration_ms BIGINT NOT NULL DEFAULT 0,
		executed_by TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT,
		checksum TEXT NOT NULL
	);
	`

const insertRecord = `
	INSERT INTO inheritview_history (definition, action, duration_ms, executed_by, status, error_message, checksum)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

const lastRecordQuery = `
	SELECT id, definition, action, executed_at, duration_ms, executed_by, status, error_message, checksum
	FROM inheritview_history
	WHERE definition = $1 AND status = 'success'
	ORDER BY id DESC
	LIMIT 1;
	`

// EnsureHistoryTable creates the history table when missing.
func (r *Runner) EnsureHistoryTable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createHistoryTable); err != nil {
		return fmt.Errorf("creating history table: %w", err)
	}
	return nil
}

// Apply executes the script generated for definition in a single
// transaction. It is skipped when the last successful run for definition
// applied the same script, unless force is set.
func (r *Runner) Apply(ctx context.Context, definition, script string, force bool) (Result, error) {
	if err := r.EnsureHistoryTable(ctx); err != nil {
		return Result{}, err
	}

	checksum := Checksum(script)
	if !force {
		last, found, err := r.LastSuccess(ctx, definition)
		if err != nil {
			return Result{}, err
		}
		if found && last.Action == ActionApply && last.Checksum == checksum {
			r.logger.Info("script unchanged, skipping", "definition", definition, "checksum", checksum)
			return Result{Checksum: checksum}, nil
		}
	}

	return r.execute(ctx, definition, ActionApply, script)
}

// Remove executes the drop script of definition.
func (r *Runner) Remove(ctx context.Context, definition, script string) (Result, error) {
	if err := r.EnsureHistoryTable(ctx); err != nil {
		return Result{}, err
	}
	return r.execute(ctx, definition, ActionRemove, script)
}

func (r *Runner) execute(ctx context.Context, definition, action, script string) (Result, error) {
	checksum := Checksum(script)
	executedBy := r.user()
	start := time.Now()

	r.logger.Debug("executing script", "definition", definition, "action", action, "bytes", len(script))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, script); err != nil {
		execErr := describeError(err)
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("rollback failed", "error", rbErr)
		}
		elapsed := time.Since(start)
		if _, recErr := r.db.ExecContext(ctx, insertRecord,
			definition, action, elapsed.Milliseconds(), executedBy, StatusFailed, execErr.Error(), checksum); recErr != nil {
			r.logger.Error("recording failed run", "definition", definition, "error", recErr)
		}
		return Result{Checksum: checksum, Duration: elapsed}, fmt.Errorf("executing %s script for %s: %w", action, definition, execErr)
	}

	elapsed := time.Since(start)
	if _, err := tx.ExecContext(ctx, insertRecord,
		definition, action, elapsed.Milliseconds(), executedBy, StatusSuccess, nil, checksum); err != nil {
		_ = tx.Rollback()
		return Result{}, fmt.Errorf("recording %s of %s: %w", action, definition, err)
	}
	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("committing %s of %s: %w", action, definition, err)
	}

	r.logger.Info("script executed", "definition", definition, "action", action, "duration", elapsed)
	return Result{Executed: true, Checksum: checksum, Duration: elapsed}, nil
}

// LastSuccess returns the latest successful run recorded for definition.
func (r *Runner) LastSuccess(ctx context.Context, definition string) (Record, bool, error) {
	var rec Record
	err := r.db.GetContext(ctx, &rec, lastRecordQuery, definition)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("querying last run of %s: %w", definition, err)
	}
	return rec, true, nil
}

// History lists recorded runs, most recent first. An empty definition lists
// every definition and a limit of zero disables the limit.
func (r *Runner) History(ctx context.Context, definition string, limit int) ([]Record, error) {
	if err := r.EnsureHistoryTable(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, definition, action, executed_at, duration_ms, executed_by, status, error_message, checksum
		FROM inheritview_history
	`
	var args []interface{}
	if definition != "" {
		args = append(args, definition)
		query += fmt.Sprintf(" WHERE definition = $%d", len(args))
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var records []Record
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	return records, nil
}

// Checksum identifies a script by content.
func Checksum(script string) string {
	hash := sha256.Sum256([]byte(script))
	return fmt.Sprintf("%x", hash)
}

// describeError adds the server side detail of a PostgreSQL error.
func describeError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	var extra []string
	if pgErr.Detail != "" {
		extra = append(extra, "detail: "+pgErr.Detail)
	}
	if pgErr.Hint != "" {
		extra = append(extra, "hint: "+pgErr.Hint)
	}
	if pgErr.Where != "" {
		extra = append(extra, "where: "+pgErr.Where)
	}
	if pgErr.Position > 0 {
		extra = append(extra, fmt.Sprintf("position: %d", pgErr.Position))
	}
	if len(extra) == 0 {
		return err
	}
	return fmt.Errorf("%w (%s)", err, strings.Join(extra, "; "))
}

func getCurrentUser() string {
	currentUser, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return currentUser.Username
}
