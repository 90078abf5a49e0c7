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
	"github.com/lacuna-ai/lacuna/pkg/common"
	"github.com/lacuna-ai/lacuna/pkg/logger"
	"github.com/lacuna-ai/lacuna/pkg/resolve"
	"github.com/lacuna-ai/lacuna/pkg/store"
	pgstore "github.com/lacuna-ai/lacuna/pkg/store/pgx"
)

// batchInput is the JSON document the extraction collaborator hands over.
type batchInput struct {
	ProjectID     string                `json:"project_id"`
	Entities      []common.RawEntity    `json:"entities"`
	Relationships []common.Relationship `json:"relationships"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a raw entity batch into a canonical concept graph",
	Long: `Resolve reads an extraction batch (JSON with raw entities and
relationships), merges duplicate mentions into canonical entities, and
rewrites relationships onto them. With --analyze it also runs community
detection and gap analysis on the result.

The metrics report is written to stdout as JSON.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("input", "", "path to the extraction batch JSON (required)")
	resolveCmd.Flags().String("project", "", "project ID, overrides the one in the input file")
	resolveCmd.Flags().Bool("analyze", false, "run community detection and gap analysis after resolution")
	resolveCmd.Flags().Bool("dry-run", false, "skip persistence even when DATABASE_URL is set")
	_ = resolveCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inputPath, _ := cmd.Flags().GetString("input")
	project, _ := cmd.Flags().GetString("project")
	runAnalysis, _ := cmd.Flags().GetBool("analyze")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	var batch batchInput
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("parsing input: %w", err)
	}
	if project == "" {
		project = batch.ProjectID
	}
	if project == "" {
		return fmt.Errorf("no project ID: pass --project or set project_id in the input")
	}

	aiClient := newAIClient()
	embedDim := int(util.GetEnvNumeric("AI_EMBED_DIM", 1536))

	resolver, err := resolve.NewResolver(resolve.NewResolverParams{
		EmbeddingDimensions: embedDim,
		BackfillEmbeddings:  aiClient != nil,
	})
	if err != nil {
		return err
	}

	var storage store.GraphStorage
	if url := util.GetEnv("DATABASE_URL"); url != "" && !dryRun {
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

		// The advisory run lock is session scoped, so the whole run,
		// lock included, stays on one dedicated connection.
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquiring database connection: %w", err)
		}
		defer conn.Release()

		storage, err = pgstore.NewGraphDBStorageWithConnection(conn.Conn())
		if err != nil {
			return err
		}

		acquired, err := storage.AcquireRunLock(ctx, project)
		if err != nil {
			return fmt.Errorf("acquiring run lock: %w", err)
		}
		if !acquired {
			return fmt.Errorf("a resolution run for project %s is already in flight", project)
		}
		defer func() {
			if err := storage.ReleaseRunLock(context.Background(), project); err != nil {
				logger.Error("Failed to release run lock", "project", project, "err", err)
			}
		}()
	}

	result, err := resolver.Resolve(ctx, batch.Entities, batch.Relationships, aiClient)
	if err != nil {
		return err
	}

	if storage != nil {
		if err := storage.SaveEntities(ctx, project, result.Entities); err != nil {
			return fmt.Errorf("saving entities: %w", err)
		}
		if err := storage.SaveRelationships(ctx, project, result.Relationships); err != nil {
			return fmt.Errorf("saving relationships: %w", err)
		}
		if err := storage.SaveMergeRecords(ctx, project, result.MergeRecords); err != nil {
			return fmt.Errorf("saving merge records: %w", err)
		}
		if err := storage.SaveMetrics(ctx, project, result.Metrics); err != nil {
			return fmt.Errorf("saving metrics: %w", err)
		}
	}

	if runAnalysis {
		if err := analyzeGraph(ctx, project, result.Entities, result.Relationships, storage); err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(result.Metrics, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
