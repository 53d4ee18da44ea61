// Package sources finds and loads the raw supplier files produced by the scrapers
package sources

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"

	rberrors "github.com/Lion2cat/rawBeans/pkg/errors"
	"github.com/Lion2cat/rawBeans/pkg/tracing"
)

// Format of a source file
type Format string

const (
	FormatJSON Format = "json"
	// FormatHTML is a product page saved by a scraper for debugging
	FormatHTML Format = "html"
)

// DebugPageSuffix names the page a scraper saves next to its results
const DebugPageSuffix = "_debug.html"

// Supplier identifies a source and the file pattern its scraper writes
type Supplier struct {
	Key     string
	Name    string
	Pattern string
}

// File is the selected source file for a supplier
type File struct {
	Supplier Supplier
	Path     string
	ModTime  time.Time
	Format   Format
}

// Selection is the outcome of a directory scan. Files keeps the order suppliers were given in.
type Selection struct {
	Files  []File
	Absent []error
}

// Selector picks the most recent file per supplier
type Selector struct {
	logger       ectologger.Logger
	htmlFallback bool
}

// NewSelector creates a selector. With htmlFallback set, a supplier without JSON results
// falls back to its saved debug page.
func NewSelector(logger ectologger.Logger, htmlFallback bool) *Selector {
	return &Selector{logger: logger, htmlFallback: htmlFallback}
}

// Select scans dir for each supplier's pattern. Suppliers without a match are reported in
// Absent as SourceUnavailable errors; only an unreadable directory fails the scan.
func (s *Selector) Select(ctx context.Context, dir string, suppliers []Supplier) (*Selection, error) {
	ctx, span := tracing.StartSpan(ctx, "sources.Selector.Select")
	defer span.End()

	log := s.logger.WithContext(ctx)

	if _, err := os.Stat(dir); err != nil {
		wrapped := rberrors.Wrap(rberrors.KindInvalidConfig, err, "results directory is not readable").AddPath(dir)
		tracing.RecordError(span, wrapped)
		return nil, wrapped
	}

	selection := &Selection{}
	for _, supplier := range suppliers {
		file, err := Latest(dir, supplier.Pattern)
		if err != nil {
			return nil, rberrors.Wrap(rberrors.KindInvalidConfig, err, "invalid file pattern").
				AddSupplier(supplier.Key).AddPath(supplier.Pattern)
		}

		if file == nil && s.htmlFallback {
			file, err = debugPage(dir, supplier.Key)
			if err != nil {
				return nil, err
			}
			if file != nil {
				log.WithFields(map[string]any{"supplier": supplier.Key, "path": file.Path}).
					Warn("No JSON results found; using saved debug page")
			}
		}

		if file == nil {
			absent := rberrors.Newf(rberrors.KindSourceUnavailable, "no file matches %s", supplier.Pattern).
				AddSupplier(supplier.Key).AddPath(dir)
			log.WithFields(map[string]any{"supplier": supplier.Key, "pattern": supplier.Pattern}).
				Warn("No data file found for supplier")
			selection.Absent = append(selection.Absent, absent)
			continue
		}

		file.Supplier = supplier
		log.WithFields(map[string]any{
			"supplier": supplier.Key,
			"path":     file.Path,
			"modified": file.ModTime.Format(time.RFC3339),
		}).Info("Selected source file")
		selection.Files = append(selection.Files, *file)
	}

	tracing.SetAttributes(span, map[string]int{
		"sources.selected": len(selection.Files),
		"sources.absent":   len(selection.Absent),
	})

	return selection, nil
}

// Latest returns the most recently modified file in dir matching pattern, or nil when
// nothing matches. Equal modification times resolve to the lexicographically last path.
func Latest(dir, pattern string) (*File, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}

	var latest *File
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		mod := info.ModTime()
		if latest == nil || mod.After(latest.ModTime) || (mod.Equal(latest.ModTime) && path > latest.Path) {
			latest = &File{Path: path, ModTime: mod, Format: formatOf(path)}
		}
	}
	return latest, nil
}

func debugPage(dir, key string) (*File, error) {
	path := filepath.Join(dir, key+DebugPageSuffix)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, rberrors.Wrap(rberrors.KindSourceLoad, err, "cannot stat debug page").AddSupplier(key).AddPath(path)
	}
	return &File{Path: path, ModTime: info.ModTime(), Format: FormatHTML}, nil
}

func formatOf(path string) Format {
	switch filepath.Ext(path) {
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatJSON
	}
}
