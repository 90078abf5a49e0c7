package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/lacuna-ai/lacuna/pkg/common"
	"github.com/lacuna-ai/lacuna/pkg/logger"
)

// SaveRelationships replaces the resolved relationships of one project.
// Relationships reference the canonical IDs of the same run, so stale
// rows from an earlier run are dropped in the same transaction.
func (s *GraphDBStorage) SaveRelationships(
	ctx context.Context,
	projectID string,
	relationships []common.Relationship,
) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	err := s.inTx(ctx, func(tx pgxv5.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM relationships WHERE project_id = $1`, projectID,
		); err != nil {
			return err
		}
		for _, rel := range relationships {
			_, err := tx.Exec(ctx, `
				INSERT INTO relationships (
					public_id, project_id, source_id, target_id,
					relation_type, confidence, evidence_ids
				) VALUES ($1, $2, $3, $4, $5, $6, $7)
			`,
				rel.ID, projectID, rel.SourceID, rel.TargetID,
				rel.Type, rel.Confidence, rel.EvidenceIDs,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("[Store] Relationships saved", "project", projectID, "count", len(relationships))
	return nil
}

// GetRelationships returns the relationships of one project.
func (s *GraphDBStorage) GetRelationships(
	ctx context.Context,
	projectID string,
) ([]common.Relationship, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT public_id, source_id, target_id, relation_type, confidence, evidence_ids
		FROM relationships
		WHERE project_id = $1
		ORDER BY public_id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relationships []common.Relationship
	for rows.Next() {
		var rel common.Relationship
		if err := rows.Scan(
			&rel.ID, &rel.SourceID, &rel.TargetID,
			&rel.Type, &rel.Confidence, &rel.EvidenceIDs,
		); err != nil {
			return nil, err
		}
		relationships = append(relationships, rel)
	}
	return relationships, rows.Err()
}

// SaveMergeRecords appends the provenance trail of one run.
func (s *GraphDBStorage) SaveMergeRecords(
	ctx context.Context,
	projectID string,
	records []common.MergeRecord,
) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	return s.inTx(ctx, func(tx pgxv5.Tx) error {
		for _, rec := range records {
			_, err := tx.Exec(ctx, `
				INSERT INTO merge_records (
					project_id, canonical_id, canonical_name, absorbed_ids, method, score
				) VALUES ($1, $2, $3, $4, $5, $6)
			`,
				projectID, rec.CanonicalID, rec.CanonicalName,
				rec.AbsorbedIDs, string(rec.Method), rec.Score,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
