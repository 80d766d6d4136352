// Package casestore resolves case identifiers to their on-disk workspaces.
// Case records are owned by an external store; this package only reads the
// metadata it needs to mount a workspace and materializes the workspace
// directory from a template on first entry.
package casestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caseroomhq/caseroom/internal/logger"
)

// ErrCaseNotFound indicates the case id does not resolve to a known case
var ErrCaseNotFound = errors.New("case not found")

// Resolution describes the workspace of a resolved case
type Resolution struct {
	CaseID        string
	WorkspacePath string
	Initialized   bool
}

// Resolver resolves a case id to its workspace
type Resolver interface {
	Resolve(ctx context.Context, caseID string) (*Resolution, error)
}

// Materializer creates a case workspace from a template on first entry
type Materializer interface {
	Materialize(ctx context.Context, workspacePath string) error
}

// caseMetadata is the subset of the external case record this package reads
type caseMetadata struct {
	CaseID      string `json:"case_id"`
	Title       string `json:"title"`
	Initialized bool   `json:"draft_system_initialized"`
}

// FileStore is a file-backed Resolver. Cases live under
// <root>/cases/case-<id>/ with a metadata.json record and a draft_system
// workspace directory.
type FileStore struct {
	root         string
	materializer Materializer
	log          *logger.Logger
}

// NewFileStore creates a FileStore rooted at root. materializer may be nil,
// in which case unmaterialized workspaces resolve with Initialized=false.
func NewFileStore(root string, materializer Materializer, log *logger.Logger) *FileStore {
	if log == nil {
		log = logger.Global()
	}
	return &FileStore{
		root:         root,
		materializer: materializer,
		log:          log.WithPrefix("casestore"),
	}
}

var _ Resolver = (*FileStore)(nil)

func (s *FileStore) caseDir(caseID string) string {
	return filepath.Join(s.root, "cases", "case-"+caseID)
}

// WorkspacePath returns the workspace directory for a case id. The path is
// deterministic and does not require the case to exist.
func (s *FileStore) WorkspacePath(caseID string) string {
	return filepath.Join(s.caseDir(caseID), "draft_system")
}

// Resolve looks up a case and returns its workspace, materializing the
// workspace directory from the template on first entry.
func (s *FileStore) Resolve(ctx context.Context, caseID string) (*Resolution, error) {
	metadataPath := filepath.Join(s.caseDir(caseID), "metadata.json")

	data, err := os.ReadFile(metadataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
		}
		return nil, fmt.Errorf("failed to read case metadata: %w", err)
	}

	var meta caseMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse case metadata for %s: %w", caseID, err)
	}

	workspacePath := s.WorkspacePath(caseID)

	// The workspace directory itself is the source of truth for whether
	// materialization happened; the metadata flag only reflects what the
	// external store recorded at case creation.
	initialized := true
	if _, err := os.Stat(workspacePath); os.IsNotExist(err) {
		if s.materializer == nil {
			return &Resolution{CaseID: caseID, WorkspacePath: workspacePath, Initialized: false}, nil
		}
		s.log.Info("materializing workspace for case %s at %s", caseID, workspacePath)
		if err := s.materializer.Materialize(ctx, workspacePath); err != nil {
			return nil, fmt.Errorf("failed to materialize workspace for %s: %w", caseID, err)
		}
	}

	return &Resolution{
		CaseID:        caseID,
		WorkspacePath: workspacePath,
		Initialized:   initialized,
	}, nil
}
