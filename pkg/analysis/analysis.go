package analysis

import (
	"fmt"

	"github.com/go-playground/validator"
)

// Analyzer computes communities, centrality, and structural gaps over a
// resolved canonical graph. An Analyzer is safe to reuse across runs.
//
// An Analyzer should be created using NewAnalyzer.
type Analyzer struct {
	embeddingDim        int
	gapDensityThreshold float64
	ghostEdgeTopK       int
	modularitySweeps    int

	llmTimeoutSec      int
	maxRetries         int
	parallelAIRequests int

	generateHypotheses bool
}

// NewAnalyzerParams defines the configuration for creating an Analyzer.
//
// GapDensityThreshold is the inter-cluster edge density below which a
// cluster pair is flagged as a structural gap (default 0.1). It is a
// calibration parameter, not a contract. GhostEdgeTopK bounds the
// potential edges reported per gap (default 5). GenerateHypotheses
// enables the best-effort LLM bridge hypothesis per gap.
type NewAnalyzerParams struct {
	EmbeddingDimensions int     `validate:"omitempty,gt=0"`
	GapDensityThreshold float64 `validate:"omitempty,gt=0,lt=1"`
	GhostEdgeTopK       int     `validate:"omitempty,gt=0"`
	ModularitySweeps    int     `validate:"omitempty,gt=0"`

	LLMTimeoutSec      int `validate:"omitempty,gt=0"`
	MaxRetries         int `validate:"omitempty,gt=0"`
	ParallelAIRequests int `validate:"omitempty,gt=0"`

	GenerateHypotheses bool
}

// NewAnalyzer creates an Analyzer with the provided parameters. Zero
// values fall back to defaults.
func NewAnalyzer(params NewAnalyzerParams) (*Analyzer, error) {
	if err := validator.New().Struct(params); err != nil {
		return nil, fmt.Errorf("invalid analyzer params: %w", err)
	}

	a := &Analyzer{
		embeddingDim:        params.EmbeddingDimensions,
		gapDensityThreshold: params.GapDensityThreshold,
		ghostEdgeTopK:       params.GhostEdgeTopK,
		modularitySweeps:    params.ModularitySweeps,
		llmTimeoutSec:       params.LLMTimeoutSec,
		maxRetries:          params.MaxRetries,
		parallelAIRequests:  params.ParallelAIRequests,
		generateHypotheses:  params.GenerateHypotheses,
	}
	if a.embeddingDim == 0 {
		a.embeddingDim = 1536
	}
	if a.gapDensityThreshold == 0 {
		a.gapDensityThreshold = 0.1
	}
	if a.ghostEdgeTopK == 0 {
		a.ghostEdgeTopK = 5
	}
	if a.modularitySweeps == 0 {
		a.modularitySweeps = 20
	}
	if a.llmTimeoutSec == 0 {
		a.llmTimeoutSec = 30
	}
	if a.maxRetries == 0 {
		a.maxRetries = 2
	}
	if a.parallelAIRequests == 0 {
		a.parallelAIRequests = 4
	}
	return a, nil
}
