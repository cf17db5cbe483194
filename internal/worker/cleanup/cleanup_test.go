package cleanup

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

// mockExecutor はExecutorのモック実装。発行されたクエリを記録する。
type mockExecutor struct {
	ExecContextFunc func(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	queries         []string
}

func (m *mockExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	m.queries = append(m.queries, query)
	return m.ExecContextFunc(ctx, query, args...)
}

// fixedResult は固定の削除件数を返すsql.Result。
type fixedResult struct {
	rows int64
}

func (r fixedResult) LastInsertId() (int64, error) { return 0, nil }
func (r fixedResult) RowsAffected() (int64, error) { return r.rows, nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCleanupJob_Run(t *testing.T) {
	var gotArgs [][]interface{}
	db := &mockExecutor{
		ExecContextFunc: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			gotArgs = append(gotArgs, args)
			return fixedResult{rows: 3}, nil
		},
	}
	job := NewCleanupJob(db, testLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(db.queries) != 2 {
		t.Fatalf("発行されたクエリ数 = %d, want 2", len(db.queries))
	}
	if !strings.Contains(db.queries[0], "DELETE FROM sessions") || !strings.Contains(db.queries[0], "expires_at") {
		t.Errorf("1本目のクエリ = %q", db.queries[0])
	}
	if !strings.Contains(db.queries[1], "DELETE FROM contact_messages") {
		t.Errorf("2本目のクエリ = %q", db.queries[1])
	}
	// 保持期間はintervalとしてバインドされる
	if len(gotArgs[1]) != 1 || gotArgs[1][0] != "365 days" {
		t.Errorf("お問い合わせ削除の引数 = %v, want [365 days]", gotArgs[1])
	}
}

func TestCleanupJob_RunCustomRetention(t *testing.T) {
	var gotInterval interface{}
	db := &mockExecutor{
		ExecContextFunc: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			if len(args) == 1 {
				gotInterval = args[0]
			}
			return fixedResult{}, nil
		},
	}
	job := NewCleanupJob(db, testLogger())
	job.RetentionDays = 90

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if gotInterval != "90 days" {
		t.Errorf("interval = %v, want %q", gotInterval, "90 days")
	}
}

func TestCleanupJob_RunNothingToDelete(t *testing.T) {
	// 削除対象が0件でもエラーにはならない（冪等）
	db := &mockExecutor{
		ExecContextFunc: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return fixedResult{rows: 0}, nil
		},
	}
	job := NewCleanupJob(db, testLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestCleanupJob_RunSessionDeleteFailure(t *testing.T) {
	dbErr := errors.New("connection refused")
	db := &mockExecutor{
		ExecContextFunc: func(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
			return nil, dbErr
		},
	}
	job := NewCleanupJob(db, testLogger())

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want error")
	}
	if !errors.Is(err, dbErr) {
		t.Errorf("error = %v, want wrapped %v", err, dbErr)
	}
	// セッション削除に失敗したらお問い合わせ削除には進まない
	if len(db.queries) != 1 {
		t.Errorf("発行されたクエリ数 = %d, want 1", len(db.queries))
	}
}
