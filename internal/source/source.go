// Package source loads stored evaluation run records for aggregation.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/weval-org/dtef/internal/models"
)

// ErrUnknownKind is returned by New for an unsupported source kind.
var ErrUnknownKind = errors.New("unknown source kind")

// Kinds accepted by New.
const (
	KindDir    = "dir"
	KindAzblob = "azblob"
)

// Source provides the current batch of evaluation run records.
type Source interface {
	Records(ctx context.Context) ([]*models.EvaluationRunRecord, error)
}

// ValidateFunc checks a decompressed results file body and returns
// human-readable problems, or nil when the body is acceptable.
type ValidateFunc func(data []byte) []string

// Options configures a Source built by New.
type Options struct {
	// Kind is KindDir (the default) or KindAzblob.
	Kind  string
	Dir   string
	Azure AzureOptions

	// Validate, when set, runs against every file before decoding. Files
	// with problems are logged, and skipped only when Strict is set.
	Validate ValidateFunc
	Strict   bool

	// Concurrency bounds parallel file reads. Zero means DefaultConcurrency.
	Concurrency int
	Logger      *slog.Logger
}

// DefaultConcurrency is the number of files read in parallel.
const DefaultConcurrency = 8

// New returns the Source described by opts.
func New(opts Options) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindDir:
		return NewDirSource(opts.Dir, opts), nil
	case KindAzblob:
		return NewBlobSource(opts.Azure, opts)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, opts.Kind)
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return DefaultConcurrency
}

// loadFile turns one file body into records, applying validation. A nil
// result means the file was skipped.
func (o Options) loadFile(name string, data []byte) []*models.EvaluationRunRecord {
	log := o.logger()
	if o.Validate != nil {
		if problems := o.Validate(data); len(problems) > 0 {
			if o.Strict {
				log.Warn("skipping results file that fails validation", "file", name, "problems", len(problems), "first", problems[0])
				return nil
			}
			log.Debug("results file has schema problems", "file", name, "problems", len(problems), "first", problems[0])
		}
	}
	recs, err := DecodeRecords(data)
	if err != nil {
		if len(recs) == 0 {
			log.Warn("skipping unreadable results file", "file", name, "error", err)
			return nil
		}
		log.Warn("skipping malformed records", "file", name, "kept", len(recs), "error", err)
	}
	return recs
}
