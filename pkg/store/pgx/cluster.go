package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/lacuna-ai/lacuna/pkg/common"
	"github.com/lacuna-ai/lacuna/pkg/logger"
)

// SaveClusters replaces the detection output of one project. Clusters
// from an older run are removed first; a detection run always persists
// as a whole.
func (s *GraphDBStorage) SaveClusters(
	ctx context.Context,
	projectID string,
	clusters []common.Cluster,
) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	err := s.inTx(ctx, func(tx pgxv5.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM clusters WHERE project_id = $1`, projectID); err != nil {
			return err
		}
		for _, c := range clusters {
			var centroid any
			if len(c.Centroid) > 0 {
				centroid = pgvector.NewVector(c.Centroid)
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO clusters (
					public_id, project_id, member_ids, label, method, centroid
				) VALUES ($1, $2, $3, $4, $5, $6)
			`,
				c.ID, projectID, c.MemberIDs, c.Label, string(c.Method), centroid,
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

	logger.Debug("[Store] Clusters saved", "project", projectID, "count", len(clusters))
	return nil
}

// GetClusters returns the latest detection output of one project.
func (s *GraphDBStorage) GetClusters(
	ctx context.Context,
	projectID string,
) ([]common.Cluster, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT public_id, member_ids, label, method, centroid
		FROM clusters
		WHERE project_id = $1
		ORDER BY public_id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clusters []common.Cluster
	for rows.Next() {
		var c common.Cluster
		var method string
		var centroid *pgvector.Vector
		if err := rows.Scan(&c.ID, &c.MemberIDs, &c.Label, &method, &centroid); err != nil {
			return nil, err
		}
		c.Method = common.DetectionMethod(method)
		if centroid != nil {
			c.Centroid = centroid.Slice()
		}
		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}

// SaveGaps replaces the structural gaps of one project.
func (s *GraphDBStorage) SaveGaps(
	ctx context.Context,
	projectID string,
	gaps []common.StructuralGap,
) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	return s.inTx(ctx, func(tx pgxv5.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM structural_gaps WHERE project_id = $1`, projectID); err != nil {
			return err
		}
		for _, g := range gaps {
			potential, err := marshalPotentialEdges(g.PotentialEdges)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO structural_gaps (
					public_id, project_id, cluster_a_id, cluster_b_id,
					cluster_a_entity_ids, cluster_b_entity_ids,
					gap_strength, bridge_candidate_ids, potential_edges, hypothesis
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			`,
				g.ID, projectID, g.ClusterAID, g.ClusterBID,
				g.ClusterAEntityIDs, g.ClusterBEntityIDs,
				g.GapStrength, g.BridgeCandidateIDs, potential, g.Hypothesis,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetGaps returns the structural gaps of one project, strongest first.
func (s *GraphDBStorage) GetGaps(
	ctx context.Context,
	projectID string,
) ([]common.StructuralGap, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT public_id, cluster_a_id, cluster_b_id,
			cluster_a_entity_ids, cluster_b_entity_ids,
			gap_strength, bridge_candidate_ids, potential_edges, hypothesis
		FROM structural_gaps
		WHERE project_id = $1
		ORDER BY gap_strength DESC, public_id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gaps []common.StructuralGap
	for rows.Next() {
		var g common.StructuralGap
		var potential []byte
		if err := rows.Scan(
			&g.ID, &g.ClusterAID, &g.ClusterBID,
			&g.ClusterAEntityIDs, &g.ClusterBEntityIDs,
			&g.GapStrength, &g.BridgeCandidateIDs, &potential, &g.Hypothesis,
		); err != nil {
			return nil, err
		}
		edges, err := unmarshalPotentialEdges(potential)
		if err != nil {
			return nil, err
		}
		g.PotentialEdges = edges
		gaps = append(gaps, g)
	}
	return gaps, rows.Err()
}
