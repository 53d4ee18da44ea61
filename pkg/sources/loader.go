package sources

import (
	"context"
	"encoding/json"
	"os"

	"github.com/Gobusters/ectologger"

	rberrors "github.com/Lion2cat/rawBeans/pkg/errors"
	"github.com/Lion2cat/rawBeans/pkg/models"
	"github.com/Lion2cat/rawBeans/pkg/tracing"
)

// Loader reads selected source files into raw records
type Loader struct {
	logger ectologger.Logger
}

// NewLoader creates a loader
func NewLoader(logger ectologger.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads one source file. JSON files must hold an array of objects; debug pages are
// scraped for product cards. Failures are SourceLoad errors.
func (l *Loader) Load(ctx context.Context, file File) ([]models.RawRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "sources.Loader.Load")
	defer span.End()

	f, err := os.Open(file.Path)
	if err != nil {
		loadErr := rberrors.Wrap(rberrors.KindSourceLoad, err, "cannot open source").
			AddSupplier(file.Supplier.Key).AddPath(file.Path)
		tracing.RecordError(span, loadErr)
		return nil, loadErr
	}
	defer f.Close()

	var records []models.RawRecord
	switch file.Format {
	case FormatHTML:
		records, err = ParseProductPage(f, file.Supplier.Name)
	default:
		err = json.NewDecoder(f).Decode(&records)
	}
	if err != nil {
		loadErr := rberrors.Wrap(rberrors.KindSourceLoad, err, "cannot parse source").
			AddSupplier(file.Supplier.Key).AddPath(file.Path)
		tracing.RecordError(span, loadErr)
		return nil, loadErr
	}

	// null entries carry nothing to merge
	out := records[:0]
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}

	l.logger.WithContext(ctx).WithFields(map[string]any{
		"supplier":     file.Supplier.Key,
		"path":         file.Path,
		"format":       string(file.Format),
		"record_count": len(out),
	}).Info("Loaded source")

	return out, nil
}
