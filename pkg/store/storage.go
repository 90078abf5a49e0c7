package store

import (
	"context"

	"github.com/lacuna-ai/lacuna/pkg/common"
)

// GraphStorage defines the interface for persisting and querying
// resolved concept graphs. It covers the canonical entity/relationship
// set, detection and gap-analysis output, run metrics, and the
// per-project run lock that keeps two resolution runs from writing the
// same canonical namespace concurrently.
type GraphStorage interface {
	SaveEntities(ctx context.Context, projectID string, entities []common.CanonicalEntity) error
	SaveRelationships(ctx context.Context, projectID string, relationships []common.Relationship) error
	SaveMergeRecords(ctx context.Context, projectID string, records []common.MergeRecord) error
	SaveMetrics(ctx context.Context, projectID string, metrics common.ResolutionMetrics) error

	SaveClusters(ctx context.Context, projectID string, clusters []common.Cluster) error
	SaveGaps(ctx context.Context, projectID string, gaps []common.StructuralGap) error

	GetEntities(ctx context.Context, projectID string) ([]common.CanonicalEntity, error)
	GetRelationships(ctx context.Context, projectID string) ([]common.Relationship, error)
	GetClusters(ctx context.Context, projectID string) ([]common.Cluster, error)
	GetGaps(ctx context.Context, projectID string) ([]common.StructuralGap, error)

	// SimilarEntities returns the entities closest to the query
	// embedding by cosine distance, nearest first.
	SimilarEntities(ctx context.Context, projectID string, embedding []float32, limit int) ([]common.CanonicalEntity, error)

	DeleteProjectGraph(ctx context.Context, projectID string) error

	// AcquireRunLock serializes resolution runs per project. It returns
	// false without blocking when another run holds the lock. The lock
	// is bound to the storage's underlying session: acquire and release
	// must go through the same connection.
	AcquireRunLock(ctx context.Context, projectID string) (bool, error)
	ReleaseRunLock(ctx context.Context, projectID string) error
}
