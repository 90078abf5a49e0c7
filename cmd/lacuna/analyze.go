package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/spf13/cobra"

	"github.com/lacuna-ai/lacuna/internal/util"
	"github.com/lacuna-ai/lacuna/pkg/analysis"
	"github.com/lacuna-ai/lacuna/pkg/common"
	"github.com/lacuna-ai/lacuna/pkg/logger"
	"github.com/lacuna-ai/lacuna/pkg/store"
	pgstore "github.com/lacuna-ai/lacuna/pkg/store/pgx"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run community detection and gap analysis on a stored graph",
	Long: `Analyze loads the canonical graph of a project from storage, detects
communities, computes centrality, flags structural gaps, and stores the
results. A summary is written to stdout as JSON.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("project", "", "project ID (required)")
	_ = analyzeCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	project, _ := cmd.Flags().GetString("project")

	url := util.GetEnv("DATABASE_URL")
	if url == "" {
		return fmt.Errorf("DATABASE_URL is required for analyze")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("parsing database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgxv5.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	storage, err := pgstore.NewGraphDBStorageWithConnection(pool)
	if err != nil {
		return err
	}

	entities, err := storage.GetEntities(ctx, project)
	if err != nil {
		return fmt.Errorf("loading entities: %w", err)
	}
	relationships, err := storage.GetRelationships(ctx, project)
	if err != nil {
		return fmt.Errorf("loading relationships: %w", err)
	}

	return analyzeGraph(ctx, project, entities, relationships, storage)
}

// analyzeGraph runs detection and gap analysis over one graph and
// persists the output when storage is configured.
func analyzeGraph(
	ctx context.Context,
	project string,
	entities []common.CanonicalEntity,
	relationships []common.Relationship,
	storage store.GraphStorage,
) error {
	aiClient := newAIClient()

	analyzer, err := analysis.NewAnalyzer(analysis.NewAnalyzerParams{
		EmbeddingDimensions: int(util.GetEnvNumeric("AI_EMBED_DIM", 1536)),
		GenerateHypotheses:  aiClient != nil,
	})
	if err != nil {
		return err
	}

	clusters, err := analyzer.DetectCommunities(ctx, entities, relationships, aiClient)
	if err != nil {
		return err
	}
	gaps, err := analyzer.AnalyzeGaps(ctx, entities, relationships, clusters, aiClient)
	if err != nil {
		return err
	}
	centrality := analyzer.ComputeCentrality(entities, relationships)

	if storage != nil {
		if err := storage.SaveClusters(ctx, project, clusters); err != nil {
			return fmt.Errorf("saving clusters: %w", err)
		}
		if err := storage.SaveGaps(ctx, project, gaps); err != nil {
			return fmt.Errorf("saving gaps: %w", err)
		}
	}

	logger.Info("Analysis complete",
		"project", project,
		"entities", len(entities),
		"clusters", len(clusters),
		"gaps", len(gaps))

	summary := struct {
		Clusters   []common.Cluster                     `json:"clusters"`
		Gaps       []common.StructuralGap               `json:"gaps"`
		Centrality map[string]analysis.CentralityScores `json:"centrality"`
	}{clusters, gaps, centrality}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
