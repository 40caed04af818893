package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/weval-org/dtef/internal/models"
)

// recordSuffixes are the file name endings recognized as results files.
var recordSuffixes = []string{".json", ".json.gz", ".json.zst"}

// IsRecordFile reports whether name looks like a results file.
func IsRecordFile(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range recordSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// ReadRecordFile returns the decompressed body of a results file.
func ReadRecordFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return readBody(path, f)
}

// readBody decompresses r according to the suffix of name.
func readBody(name string, r io.Reader) ([]byte, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close() //nolint:errcheck
		return io.ReadAll(zr)
	case strings.HasSuffix(lower, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return io.ReadAll(r)
	}
}

// DecodeRecords parses a results file body holding either one record or an
// array of records. Null array elements are dropped. Array elements that
// fail to decode are left out and reported in the returned error, next to
// the records that did decode.
func DecodeRecords(data []byte) ([]*models.EvaluationRunRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if trimmed[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, err
		}
		out := make([]*models.EvaluationRunRecord, 0, len(elems))
		var errs []error
		for i, elem := range elems {
			if bytes.Equal(bytes.TrimSpace(elem), []byte("null")) {
				continue
			}
			var rec models.EvaluationRunRecord
			if err := json.Unmarshal(elem, &rec); err != nil {
				errs = append(errs, fmt.Errorf("record %d: %w", i, err))
				continue
			}
			out = append(out, &rec)
		}
		return out, errors.Join(errs...)
	}
	var rec models.EvaluationRunRecord
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, err
	}
	return []*models.EvaluationRunRecord{&rec}, nil
}
