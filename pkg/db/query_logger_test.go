package db

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/JoeyLyman/yaycsa/pkg/config"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
)

func TestQueryLoggerReportsSlowAndFailedQueriesOnly(t *testing.T) {
	var buf bytes.Buffer
	q := newQueryLogger(logger.New(logger.Options{ServiceName: "test", Output: &buf}), 50*time.Millisecond)
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT * FROM offers", 3 }

	q.Trace(ctx, time.Now(), query, nil)
	q.Trace(ctx, time.Now(), query, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("fast queries and not-found lookups should be quiet, got %s", buf.String())
	}

	q.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	if !strings.Contains(buf.String(), `"message":"db.slow_query"`) || !strings.Contains(buf.String(), `"rows":3`) {
		t.Fatalf("expected slow query entry, got %s", buf.String())
	}

	buf.Reset()
	q.Trace(ctx, time.Now(), query, errors.New("relation does not exist"))
	if !strings.Contains(buf.String(), `"message":"db.query_failed"`) {
		t.Fatalf("expected failure entry, got %s", buf.String())
	}

	buf.Reset()
	q.LogMode(gormlogger.Silent).Trace(ctx, time.Now().Add(-time.Second), query, errors.New("boom"))
	if buf.Len() != 0 {
		t.Fatalf("silent mode should log nothing, got %s", buf.String())
	}
}

func TestNewOpensSQLite(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{Driver: config.DBDriverSQLite}, nil); err == nil {
		t.Fatalf("expected missing DSN error")
	}

	client, err := New(context.Background(), config.DBConfig{
		Driver: config.DBDriverSQLite,
		DSN:    "file:" + t.Name() + "?mode=memory&cache=shared",
	}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer client.Close()
	if got := mustStats(t, client).MaxOpenConnections; got != 1 {
		t.Fatalf("sqlite should be limited to one connection, got %d", got)
	}
}

func mustStats(t *testing.T, c *Client) sql.DBStats {
	t.Helper()
	sqlDB, err := c.DB().DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	return sqlDB.Stats()
}
