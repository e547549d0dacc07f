//go:build !cgo

// Package extract builds per-file symbol drafts and relationship intents
// from Swift source using tree-sitter. This stub is compiled when CGO is
// unavailable; callers should fall back to SCIP facts or a saved graph.
package extract

import (
	"context"

	"symguard/internal/errors"
	"symguard/internal/graph"
	"symguard/internal/logging"
)

// Extractor parses Swift files into graph facts. Stub implementation.
type Extractor struct{}

// NewExtractor creates an extractor.
func NewExtractor(logger *logging.Logger) *Extractor {
	return &Extractor{}
}

// IsAvailable reports whether tree-sitter extraction was compiled in.
func IsAvailable() bool { return false }

// ExtractProject always fails without CGO.
func (e *Extractor) ExtractProject(ctx context.Context, root string, excludeDirs []string) ([]graph.FileFacts, error) {
	return nil, errors.New(errors.ExtractFailed,
		"source extraction requires a cgo-enabled build; use --from-scip or a saved graph document", nil)
}
