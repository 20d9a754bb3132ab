// Package batch converts a single statement file or a directory tree of them.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aukolov/bank-statement-parser/internal/extractor"
	"github.com/aukolov/bank-statement-parser/internal/metrics"
	"github.com/aukolov/bank-statement-parser/internal/models"
	"github.com/aukolov/bank-statement-parser/internal/parser"
)

var (
	// ErrNoFilesFound is returned when a directory holds no PDF files.
	ErrNoFilesFound = errors.New("no files found")
	// ErrExtraction marks a file whose text could not be read.
	ErrExtraction = errors.New("PDF extraction failed")
)

// Kind names the error kind of err for API responses and metrics. It extends
// parser.Kind with the batch-level kinds.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNoFilesFound):
		return "no_files_found"
	case errors.Is(err, ErrExtraction):
		return "extraction_failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return parser.Kind(err)
}

// FileError ties a conversion failure to the file that caused it.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// Processor converts statement files. The zero value processes files one by
// one with auto-detection and no logging.
type Processor struct {
	// Extract reads a file into positioned tokens; extractor.ExtractDocument
	// when nil.
	Extract func(path string) (*models.Document, error)
	// Bank forces the statement format. Empty means auto-detect per file.
	Bank    models.BankType
	Workers int
	Logger  zerolog.Logger
	// Trace sends the parser's per-token trace events to Logger.
	Trace   bool
	Metrics *metrics.Metrics
}

// Process converts path, which may be a single file or a directory searched
// recursively for PDF files. Statements are returned in file traversal order.
// The first failing file (in traversal order) aborts the batch.
func (p *Processor) Process(ctx context.Context, path string) ([]models.Statement, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	if !info.IsDir() {
		return p.ProcessFile(ctx, path)
	}

	files, err := CollectFiles(path)
	if err != nil {
		return nil, err
	}
	p.Logger.Info().Str("dir", path).Int("files", len(files)).Msg("Processing directory")

	if p.Workers <= 1 {
		var out []models.Statement
		for _, f := range files {
			statements, err := p.ProcessFile(ctx, f)
			if err != nil {
				return nil, err
			}
			out = append(out, statements...)
		}
		return out, nil
	}
	return p.processConcurrently(ctx, files)
}

func (p *Processor) processConcurrently(ctx context.Context, files []string) ([]models.Statement, error) {
	results := make([][]models.Statement, len(files))
	errs := make([]error, len(files))
	failed := newLowestIndex(len(files))

	// Files above the lowest failure are skipped; files below it always run,
	// so the reported error is the one a sequential run would hit first.
	var g errgroup.Group
	g.SetLimit(p.Workers)
	for i, f := range files {
		if ctx.Err() != nil || i > failed.load() {
			break
		}
		i, f := i, f
		g.Go(func() error {
			if i > failed.load() {
				return nil
			}
			results[i], errs[i] = p.ProcessFile(ctx, f)
			if errs[i] != nil {
				failed.lower(i)
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []models.Statement
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// lowestIndex tracks the smallest file index that failed.
type lowestIndex struct{ v atomic.Int64 }

func newLowestIndex(n int) *lowestIndex {
	l := &lowestIndex{}
	l.v.Store(int64(n))
	return l
}

func (l *lowestIndex) load() int { return int(l.v.Load()) }

func (l *lowestIndex) lower(i int) {
	for {
		cur := l.v.Load()
		if int64(i) >= cur || l.v.CompareAndSwap(cur, int64(i)) {
			return
		}
	}
}

// ProcessFile converts one file. Errors are wrapped in *FileError.
func (p *Processor) ProcessFile(ctx context.Context, path string) ([]models.Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	log := p.Logger.With().Str("file", path).Logger()
	log.Info().Msg("Processing")

	bank, statements, err := p.convert(path, log)
	p.Metrics.ObserveFile(bank, statements, Kind(err))
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}

	n := 0
	for _, s := range statements {
		n += len(s.Transactions)
	}
	log.Info().Str("bank", string(bank)).Int("statements", len(statements)).Int("transactions", n).Msg("Done")
	return statements, nil
}

func (p *Processor) convert(path string, log zerolog.Logger) (models.BankType, []models.Statement, error) {
	extract := p.Extract
	if extract == nil {
		extract = extractor.ExtractDocument
	}
	doc, err := extract(path)
	if err != nil {
		return p.Bank, nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	log.Debug().Int("pages", len(doc.Pages)).Msg("Extracted text")

	bank := p.Bank
	if bank == "" {
		if bank, err = parser.AutoDetect(doc); err != nil {
			return "", nil, err
		}
		log.Info().Str("bank", string(bank)).Msg("Auto-detected bank")
	}

	var opts []parser.Option
	if p.Trace {
		opts = append(opts, parser.WithTrace(log))
	}
	ps, err := parser.New(bank, opts...)
	if err != nil {
		return bank, nil, err
	}
	statements, err := ps.Parse(doc)
	if err != nil {
		return bank, nil, fmt.Errorf("parsing failed: %w", err)
	}
	return bank, statements, nil
}

// CollectFiles returns every *.pdf file (case-insensitive) below dir in
// lexical order.
func CollectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %q: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %q", ErrNoFilesFound, dir)
	}
	sort.Strings(files)
	return files, nil
}
