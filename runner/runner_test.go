package runner

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	definition = "test_insert.vehicle"
	script     = "CREATE OR REPLACE VIEW test_insert.vw_vehicle_car AS SELECT 1;"
)

var recordColumns = []string{"id", "definition", "action", "executed_at", "duration_ms", "executed_by", "status", "error_message", "checksum"}

func newRunner(t *testing.T) (*Runner, sqlmock.Sqlmock) {
	t.Helper()
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := New(sqlx.NewDb(db, "sqlmock"), nil)
	r.user = func() string { return "tester" }
	return r, mk
}

func expectHistoryTable(mk sqlmock.Sqlmock) {
	mk.ExpectExec("CREATE TABLE IF NOT EXISTS inheritview_history").WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectLastSuccess(mk sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mk.ExpectQuery(`FROM inheritview_history\s+WHERE definition = \$1 AND status = 'success'`).
		WithArgs(definition).
		WillReturnRows(rows)
}

func TestApplyExecutesAndRecords(t *testing.T) {
	r, mk := newRunner(t)
	expectHistoryTable(mk)
	expectLastSuccess(mk, sqlmock.NewRows(recordColumns))
	mk.ExpectBegin()
	mk.ExpectExec(regexp.QuoteMeta(script)).WillReturnResult(sqlmock.NewResult(0, 0))
	mk.ExpectExec("INSERT INTO inheritview_history").
		WithArgs(definition, ActionApply, sqlmock.AnyArg(), "tester", StatusSuccess, nil, Checksum(script)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mk.ExpectCommit()

	res, err := r.Apply(context.Background(), definition, script, false)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	assert.Equal(t, Checksum(script), res.Checksum)
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestApplySkipsUnchangedScript(t *testing.T) {
	r, mk := newRunner(t)
	expectHistoryTable(mk)
	expectLastSuccess(mk, sqlmock.NewRows(recordColumns).
		AddRow(3, definition, ActionApply, time.Now(), 12, "tester", StatusSuccess, nil, Checksum(script)))

	res, err := r.Apply(context.Background(), definition, script, false)
	require.NoError(t, err)
	assert.False(t, res.Executed)
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestApplyAfterRemoveRunsAgain(t *testing.T) {
	r, mk := newRunner(t)
	expectHistoryTable(mk)
	expectLastSuccess(mk, sqlmock.NewRows(recordColumns).
		AddRow(4, definition, ActionRemove, time.Now(), 3, "tester", StatusSuccess, nil, Checksum(script)))
	mk.ExpectBegin()
	mk.ExpectExec(regexp.QuoteMeta(script)).WillReturnResult(sqlmock.NewResult(0, 0))
	mk.ExpectExec("INSERT INTO inheritview_history").WillReturnResult(sqlmock.NewResult(5, 1))
	mk.ExpectCommit()

	res, err := r.Apply(context.Background(), definition, script, false)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestApplyForce(t *testing.T) {
	r, mk := newRunner(t)
	expectHistoryTable(mk)
	mk.ExpectBegin()
	mk.ExpectExec(regexp.QuoteMeta(script)).WillReturnResult(sqlmock.NewResult(0, 0))
	mk.ExpectExec("INSERT INTO inheritview_history").WillReturnResult(sqlmock.NewResult(1, 1))
	mk.ExpectCommit()

	res, err := r.Apply(context.Background(), definition, script, true)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestApplyFailureRollsBackAndRecords(t *testing.T) {
	r, mk := newRunner(t)
	pgErr := &pgconn.PgError{
		Severity: "ERROR",
		Code:     "42601",
		Message:  `syntax error at or near "VIEWW"`,
		Hint:     "check the generated script",
		Position: 19,
	}

	expectHistoryTable(mk)
	expectLastSuccess(mk, sqlmock.NewRows(recordColumns))
	mk.ExpectBegin()
	mk.ExpectExec(regexp.QuoteMeta(script)).WillReturnError(pgErr)
	mk.ExpectRollback()
	mk.ExpectExec("INSERT INTO inheritview_history").
		WithArgs(definition, ActionApply, sqlmock.AnyArg(), "tester", StatusFailed, sqlmock.AnyArg(), Checksum(script)).
		WillReturnResult(sqlmock.NewResult(2, 1))

	_, err := r.Apply(context.Background(), definition, script, false)
	require.Error(t, err)

	var got *pgconn.PgError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "42601", got.Code)
	assert.Contains(t, err.Error(), "executing apply script for test_insert.vehicle")
	assert.Contains(t, err.Error(), "hint: check the generated script; position: 19")
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestRemove(t *testing.T) {
	r, mk := newRunner(t)
	drop := "DROP VIEW IF EXISTS test_insert.vw_vehicle_car;"

	expectHistoryTable(mk)
	mk.ExpectBegin()
	mk.ExpectExec(regexp.QuoteMeta(drop)).WillReturnResult(sqlmock.NewResult(0, 0))
	mk.ExpectExec("INSERT INTO inheritview_history").
		WithArgs(definition, ActionRemove, sqlmock.AnyArg(), "tester", StatusSuccess, nil, Checksum(drop)).
		WillReturnResult(sqlmock.NewResult(6, 1))
	mk.ExpectCommit()

	res, err := r.Remove(context.Background(), definition, drop)
	require.NoError(t, err)
	assert.True(t, res.Executed)
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestHistory(t *testing.T) {
	r, mk := newRunner(t)
	executedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	expectHistoryTable(mk)
	mk.ExpectQuery(`FROM inheritview_history\s+WHERE definition = \$1 ORDER BY id DESC LIMIT \$2`).
		WithArgs(definition, int64(5)).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(2, definition, ActionApply, executedAt, 1500, "tester", StatusFailed, "boom", "abc").
			AddRow(1, definition, ActionApply, executedAt, 20, "tester", StatusSuccess, nil, "def"))

	records, err := r.History(context.Background(), definition, 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "boom", records[0].ErrorMessage.String)
	assert.Equal(t, 1500*time.Millisecond, records[0].Duration())
	assert.False(t, records[1].ErrorMessage.Valid)
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestHistoryWithoutFilter(t *testing.T) {
	r, mk := newRunner(t)
	expectHistoryTable(mk)
	mk.ExpectQuery(`FROM inheritview_history\s+ORDER BY id DESC$`).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	records, err := r.History(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, Checksum(script), Checksum(script))
	assert.NotEqual(t, Checksum(script), Checksum(script+"\n"))
	assert.Len(t, Checksum(""), 64)
}
