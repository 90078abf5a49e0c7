package pgx

import (
	"context"
	"strings"
	"testing"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lacuna-ai/lacuna/pkg/common"
)

type fakeRow struct {
	values []any
}

func (r *fakeRow) Scan(dest ...any) error {
	for i := range dest {
		if b, ok := dest[i].(*bool); ok {
			*b = r.values[i].(bool)
		}
	}
	return nil
}

// recordingTx appends every statement to the owning connection, so a
// test sees the order of work inside one transaction.
type recordingTx struct {
	pgxv5.Tx
	conn *recordingConn
}

func (t *recordingTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.conn.statements = append(t.conn.statements, sql)
	return pgconn.CommandTag{}, nil
}

func (t *recordingTx) Commit(ctx context.Context) error   { return nil }
func (t *recordingTx) Rollback(ctx context.Context) error { return nil }

type recordingConn struct {
	statements []string
	lockArgs   []any
	tryLockOK  bool
}

func (c *recordingConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.statements = append(c.statements, sql)
	if strings.Contains(sql, "advisory") {
		c.lockArgs = append(c.lockArgs, args[0])
	}
	return pgconn.CommandTag{}, nil
}

func (c *recordingConn) Query(ctx context.Context, sql string, args ...any) (pgxv5.Rows, error) {
	return nil, nil
}

func (c *recordingConn) QueryRow(ctx context.Context, sql string, args ...any) pgxv5.Row {
	c.statements = append(c.statements, sql)
	if strings.Contains(sql, "advisory") {
		c.lockArgs = append(c.lockArgs, args[0])
	}
	return &fakeRow{values: []any{c.tryLockOK}}
}

func (c *recordingConn) Begin(ctx context.Context) (pgxv5.Tx, error) {
	return &recordingTx{conn: c}, nil
}

func TestRunLockAcquireAndReleaseUseSameKey(t *testing.T) {
	conn := &recordingConn{tryLockOK: true}
	s, err := NewGraphDBStorageWithConnection(conn)
	if err != nil {
		t.Fatalf("NewGraphDBStorageWithConnection: %v", err)
	}

	acquired, err := s.AcquireRunLock(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("AcquireRunLock: %v", err)
	}
	if !acquired {
		t.Fatal("AcquireRunLock = false, want true")
	}
	if err := s.ReleaseRunLock(context.Background(), "proj-1"); err != nil {
		t.Fatalf("ReleaseRunLock: %v", err)
	}

	if len(conn.lockArgs) != 2 {
		t.Fatalf("lock statements on connection = %d, want 2", len(conn.lockArgs))
	}
	if conn.lockArgs[0] != conn.lockArgs[1] {
		t.Errorf("unlock key %v differs from lock key %v", conn.lockArgs[1], conn.lockArgs[0])
	}
	if conn.lockArgs[0] != projectLockKey("proj-1") {
		t.Errorf("lock key = %v, want projectLockKey(proj-1) = %v", conn.lockArgs[0], projectLockKey("proj-1"))
	}
}

func TestAcquireRunLockHeldElsewhere(t *testing.T) {
	conn := &recordingConn{tryLockOK: false}
	s, _ := NewGraphDBStorageWithConnection(conn)

	acquired, err := s.AcquireRunLock(context.Background(), "proj-1")
	if err != nil {
		t.Fatalf("AcquireRunLock: %v", err)
	}
	if acquired {
		t.Error("AcquireRunLock = true, want false for a held lock")
	}
}

func TestProjectLockKeyIsStablePerProject(t *testing.T) {
	if projectLockKey("a") != projectLockKey("a") {
		t.Error("lock key for the same project is not stable")
	}
	if projectLockKey("a") == projectLockKey("b") {
		t.Error("different projects share a lock key")
	}
}

func TestSaveEntitiesReplacesProjectRows(t *testing.T) {
	conn := &recordingConn{}
	s, _ := NewGraphDBStorageWithConnection(conn)

	err := s.SaveEntities(context.Background(), "proj-1", []common.CanonicalEntity{
		{ID: "c1", Name: "Transformer", Kind: common.EntityKindMethod},
	})
	if err != nil {
		t.Fatalf("SaveEntities: %v", err)
	}

	if len(conn.statements) < 2 {
		t.Fatalf("statements = %d, want delete + insert", len(conn.statements))
	}
	if !strings.Contains(conn.statements[0], "DELETE FROM canonical_entities") {
		t.Errorf("first statement = %q, want project delete", conn.statements[0])
	}
	for _, sql := range conn.statements {
		if strings.Contains(sql, "ON CONFLICT") {
			t.Errorf("unexpected upsert, fresh run IDs never conflict: %q", sql)
		}
	}
}

func TestSaveRelationshipsReplacesProjectRows(t *testing.T) {
	conn := &recordingConn{}
	s, _ := NewGraphDBStorageWithConnection(conn)

	err := s.SaveRelationships(context.Background(), "proj-1", []common.Relationship{
		{ID: "r1", SourceID: "c1", TargetID: "c2", Type: "uses"},
	})
	if err != nil {
		t.Fatalf("SaveRelationships: %v", err)
	}

	if len(conn.statements) < 2 {
		t.Fatalf("statements = %d, want delete + insert", len(conn.statements))
	}
	if !strings.Contains(conn.statements[0], "DELETE FROM relationships") {
		t.Errorf("first statement = %q, want project delete", conn.statements[0])
	}
}
