package casestore

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DirMaterializer materializes a case workspace by copying a template
// directory tree. Copying happens at most once per workspace: the caller
// only invokes it when the workspace directory is absent.
type DirMaterializer struct {
	templateDir string
}

// NewDirMaterializer creates a materializer that copies templateDir
func NewDirMaterializer(templateDir string) *DirMaterializer {
	return &DirMaterializer{templateDir: templateDir}
}

var _ Materializer = (*DirMaterializer)(nil)

// Materialize copies the template tree into workspacePath
func (m *DirMaterializer) Materialize(ctx context.Context, workspacePath string) error {
	if m.templateDir == "" {
		return fmt.Errorf("no template directory configured")
	}
	if _, err := os.Stat(m.templateDir); err != nil {
		return fmt.Errorf("template directory not available: %w", err)
	}

	return filepath.WalkDir(m.templateDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(m.templateDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(workspacePath, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
