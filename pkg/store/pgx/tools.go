package pgx

import (
	"context"
	"encoding/json"
	"hash/fnv"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/lacuna-ai/lacuna/pkg/common"
	"github.com/lacuna-ai/lacuna/pkg/logger"
)

// SaveMetrics appends the metrics report of one run.
func (s *GraphDBStorage) SaveMetrics(
	ctx context.Context,
	projectID string,
	metrics common.ResolutionMetrics,
) error {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return err
	}

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	_, err = s.conn.Exec(ctx, `
		INSERT INTO resolution_metrics (project_id, report)
		VALUES ($1, $2)
	`, projectID, payload)
	return err
}

// DeleteProjectGraph removes everything stored for one project.
func (s *GraphDBStorage) DeleteProjectGraph(ctx context.Context, projectID string) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	err := s.inTx(ctx, func(tx pgxv5.Tx) error {
		for _, table := range []string{
			"structural_gaps", "clusters", "merge_records",
			"resolution_metrics", "relationships", "canonical_entities",
		} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE project_id = $1`, projectID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("[Store] Project graph deleted", "project", projectID)
	return nil
}

// AcquireRunLock takes the per-project advisory lock that serializes
// resolution runs. Non-blocking: a held lock returns false immediately.
// Advisory locks are session scoped, so the storage must be bound to a
// single dedicated connection held until ReleaseRunLock; through a pool
// the unlock would run on a different session and the lock would leak.
func (s *GraphDBStorage) AcquireRunLock(ctx context.Context, projectID string) (bool, error) {
	var acquired bool
	err := s.conn.QueryRow(ctx,
		`SELECT pg_try_advisory_lock($1)`, projectLockKey(projectID),
	).Scan(&acquired)
	if err != nil {
		return false, err
	}
	if !acquired {
		logger.Warn("[Store] Resolution run already in flight", "project", projectID)
	}
	return acquired, nil
}

// ReleaseRunLock releases the per-project run lock on the same
// connection that acquired it.
func (s *GraphDBStorage) ReleaseRunLock(ctx context.Context, projectID string) error {
	_, err := s.conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, projectLockKey(projectID))
	return err
}

func projectLockKey(projectID string) int64 {
	h := fnv.New64a()
	h.Write([]byte("lacuna:run:" + projectID))
	return int64(h.Sum64())
}

func marshalPotentialEdges(edges []common.PotentialEdge) ([]byte, error) {
	if len(edges) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(edges)
}

func unmarshalPotentialEdges(data []byte) ([]common.PotentialEdge, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var edges []common.PotentialEdge
	if err := json.Unmarshal(data, &edges); err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, nil
	}
	return edges, nil
}
