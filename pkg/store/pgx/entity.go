package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/lacuna-ai/lacuna/pkg/common"
	"github.com/lacuna-ai/lacuna/pkg/logger"
)

// SaveEntities replaces the canonical entities of one project. Each run
// mints fresh canonical IDs, so the previous run's rows are dropped in
// the same transaction rather than upserted around.
func (s *GraphDBStorage) SaveEntities(
	ctx context.Context,
	projectID string,
	entities []common.CanonicalEntity,
) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	err := s.inTx(ctx, func(tx pgxv5.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM canonical_entities WHERE project_id = $1`, projectID,
		); err != nil {
			return err
		}
		for _, e := range entities {
			var embedding any
			if len(e.Embedding) > 0 {
				embedding = pgvector.NewVector(e.Embedding)
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO canonical_entities (
					public_id, project_id, name, kind, context_bucket,
					aliases, source_paper_ids, raw_entity_ids, definition,
					embedding, merge_method, merge_confidence
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			`,
				e.ID, projectID, e.Name, string(e.Kind), e.ContextBucket,
				e.Aliases, e.SourcePaperIDs, e.RawEntityIDs, e.Definition,
				embedding, string(e.Resolution.Method), e.Resolution.Confidence,
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

	logger.Debug("[Store] Entities saved", "project", projectID, "count", len(entities))
	return nil
}

// GetEntities returns the canonical entities of one project ordered by
// public ID.
func (s *GraphDBStorage) GetEntities(
	ctx context.Context,
	projectID string,
) ([]common.CanonicalEntity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT public_id, name, kind, context_bucket, aliases,
			source_paper_ids, raw_entity_ids, definition, embedding,
			merge_method, merge_confidence
		FROM canonical_entities
		WHERE project_id = $1
		ORDER BY public_id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntities(rows)
}

// SimilarEntities returns the nearest entities to the query embedding
// by cosine distance.
func (s *GraphDBStorage) SimilarEntities(
	ctx context.Context,
	projectID string,
	embedding []float32,
	limit int,
) ([]common.CanonicalEntity, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT public_id, name, kind, context_bucket, aliases,
			source_paper_ids, raw_entity_ids, definition, embedding,
			merge_method, merge_confidence
		FROM canonical_entities
		WHERE project_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3
	`, projectID, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntities(rows)
}

func scanEntities(rows pgxv5.Rows) ([]common.CanonicalEntity, error) {
	var entities []common.CanonicalEntity
	for rows.Next() {
		var e common.CanonicalEntity
		var kind, method string
		var embedding *pgvector.Vector
		err := rows.Scan(
			&e.ID, &e.Name, &kind, &e.ContextBucket, &e.Aliases,
			&e.SourcePaperIDs, &e.RawEntityIDs, &e.Definition, &embedding,
			&method, &e.Resolution.Confidence,
		)
		if err != nil {
			return nil, err
		}
		e.Kind = common.EntityKind(kind)
		e.Resolution.Method = common.MergeMethod(method)
		if embedding != nil {
			e.Embedding = embedding.Slice()
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}
