package importer

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "reckon/internal/errors"
)

// FileInfo carries the basic file metadata used to decide automatic
// chunk sizing.
type FileInfo struct {
	Name      string
	SizeBytes int64
}

// TabularSource supplies a header row plus an ordered sequence of rows,
// each row a sequence of string cells. Implementations are boundary
// adapters; the engine only depends on this contract.
type TabularSource interface {
	Info() FileInfo
	// Headers returns the header row. It must be called before Next.
	Headers() ([]string, error)
	// Next returns the next data row, or io.EOF when exhausted.
	Next() ([]string, error)
	Close() error
}

// CSVSource reads delimiter-detected CSV files. Rows with inconsistent
// field counts are tolerated; per-field validation happens downstream
// in the normalizer.
type CSVSource struct {
	info   FileInfo
	reader *csv.Reader
	closer io.Closer
}

// NewCSVSource opens a CSV file on disk, detecting its delimiter from a
// sample of the content.
func NewCSVSource(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrIngestionFailed, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, apperrors.Wrap(apperrors.ErrIngestionFailed, err)
	}

	buffered := bufio.NewReader(f)
	delimiter := detectDelimiter(buffered)

	r := csv.NewReader(buffered)
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	return &CSVSource{
		info:   FileInfo{Name: filepath.Base(path), SizeBytes: stat.Size()},
		reader: r,
		closer: f,
	}, nil
}

// NewCSVSourceFromReader wraps an in-memory or streamed CSV, e.g. an
// HTTP upload. size may be zero when unknown; automatic chunking then
// stays off and the explicit chunk size applies.
func NewCSVSourceFromReader(r io.Reader, name string, size int64) *CSVSource {
	buffered := bufio.NewReader(r)
	delimiter := detectDelimiter(buffered)

	cr := csv.NewReader(buffered)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	src := &CSVSource{
		info:   FileInfo{Name: name, SizeBytes: size},
		reader: cr,
	}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return src
}

// Info returns the source file metadata.
func (s *CSVSource) Info() FileInfo { return s.info }

// Headers reads the header row.
func (s *CSVSource) Headers() ([]string, error) {
	record, err := s.reader.Read()
	if err != nil {
		return nil, apperrors.WithDetails(apperrors.ErrIngestionFailed, map[string]any{
			"file":   s.info.Name,
			"reason": "missing or unreadable header row",
		})
	}
	return record, nil
}

// Next returns the next data row, or io.EOF.
func (s *CSVSource) Next() ([]string, error) {
	return s.reader.Read()
}

// Close releases the underlying file handle, if any.
func (s *CSVSource) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// detectDelimiter peeks at the buffered content and counts candidate
// delimiters, defaulting to comma.
func detectDelimiter(r *bufio.Reader) rune {
	sample, _ := r.Peek(4096)
	text := string(sample)

	best := ','
	bestCount := 0
	for _, candidate := range []rune{',', ';', '\t', '|'} {
		if count := strings.Count(text, string(candidate)); count > bestCount {
			best = candidate
			bestCount = count
		}
	}
	return best
}
