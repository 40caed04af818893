package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/weval-org/dtef/internal/models"
	"golang.org/x/sync/errgroup"
)

// DirSource reads results files from a directory tree on local disk.
// Files are read concurrently but records are returned in path order, so
// repeated loads of the same tree produce the same batch.
type DirSource struct {
	dir  string
	opts Options
}

// NewDirSource creates a DirSource rooted at dir.
func NewDirSource(dir string, opts Options) *DirSource {
	return &DirSource{dir: dir, opts: opts}
}

// Dir returns the root directory.
func (s *DirSource) Dir() string { return s.dir }

// Records loads every results file under the root. A missing or empty root
// yields an empty batch. Unreadable files are logged and skipped.
func (s *DirSource) Records(ctx context.Context) ([]*models.EvaluationRunRecord, error) {
	if s.dir == "" {
		return []*models.EvaluationRunRecord{}, nil
	}
	paths, err := s.Files()
	if err != nil {
		return nil, err
	}

	log := s.opts.logger()
	perFile := make([][]*models.EvaluationRunRecord, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.concurrency())
	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := ReadRecordFile(path)
			if err != nil {
				log.Warn("skipping unreadable results file", "file", path, "error", err)
				return nil
			}
			perFile[i] = s.opts.loadFile(path, data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading results from %s: %w", s.dir, err)
	}

	out := []*models.EvaluationRunRecord{}
	for _, recs := range perFile {
		out = append(out, recs...)
	}
	log.Debug("loaded results", "dir", s.dir, "files", len(paths), "records", len(out))
	return out, nil
}

// Files returns the results files under the root in lexical path order.
// Hidden directories are not descended into.
func (s *DirSource) Files() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.dir {
				return err
			}
			s.opts.logger().Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if path != s.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsRecordFile(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading results directory: %w", err)
	}
	return paths, nil
}
