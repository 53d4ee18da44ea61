// Package catalog persists the merged catalog and orders it for presentation
package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"
	pkgerrors "github.com/pkg/errors"

	rberrors "github.com/Lion2cat/rawBeans/pkg/errors"
	"github.com/Lion2cat/rawBeans/pkg/models"
	"github.com/Lion2cat/rawBeans/pkg/sources"
	"github.com/Lion2cat/rawBeans/pkg/tracing"
)

const (
	// FilePrefix starts every merged catalog file name
	FilePrefix = "merged_coffee_data_"
	// FilePattern matches merged catalog files
	FilePattern = FilePrefix + "*.json"
	// TimestampLayout is the run timestamp used in output file names
	TimestampLayout = "20060102_150405"
)

// FileName returns the catalog file name for a run started at ts
func FileName(ts time.Time) string {
	return FilePrefix + ts.Format(TimestampLayout) + ".json"
}

// Store reads and writes catalog files in one directory
type Store struct {
	logger ectologger.Logger
	dir    string
}

// NewStore creates a store rooted at dir
func NewStore(logger ectologger.Logger, dir string) *Store {
	return &Store{logger: logger, dir: dir}
}

// Write persists records as a JSON array. The file is written to a temporary name in
// the same directory and renamed, so readers never see a partial catalog.
func (s *Store) Write(ctx context.Context, records []models.EnrichedRecord, ts time.Time) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Store.Write")
	defer span.End()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to create output directory %s", s.dir)
	}

	path := filepath.Join(s.dir, FileName(ts))
	tmp, err := os.CreateTemp(s.dir, ".merged_coffee_data_*.tmp")
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to create temporary catalog file")
	}
	defer os.Remove(tmp.Name())

	if records == nil {
		records = []models.EnrichedRecord{}
	}

	encoder := json.NewEncoder(tmp)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		tmp.Close()
		tracing.RecordError(span, err)
		return "", pkgerrors.Wrap(err, "failed to encode catalog")
	}
	if err := tmp.Close(); err != nil {
		return "", pkgerrors.Wrap(err, "failed to flush catalog")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		tracing.RecordError(span, err)
		return "", pkgerrors.Wrapf(err, "failed to move catalog into place at %s", path)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"path":    path,
		"records": len(records),
	}).Info("Catalog written")

	return path, nil
}

// Latest returns the path of the most recent catalog file
func (s *Store) Latest() (string, error) {
	file, err := sources.Latest(s.dir, FilePattern)
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to scan for catalog files")
	}
	if file == nil {
		return "", rberrors.Newf(rberrors.KindNoData, "no file matches %s", FilePattern).AddPath(s.dir)
	}
	return file.Path, nil
}

// Read loads a catalog file as raw records, ready to be normalized again
func (s *Store) Read(ctx context.Context, path string) ([]models.RawRecord, error) {
	_, span := tracing.StartSpan(ctx, "catalog.Store.Read")
	defer span.End()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rberrors.Wrap(rberrors.KindSourceLoad, err, "cannot read catalog").AddPath(path)
	}

	var records []models.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, rberrors.Wrap(rberrors.KindSourceLoad, err, "cannot parse catalog").AddPath(path)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"path":    path,
		"records": len(records),
	}).Info("Catalog loaded")

	return records, nil
}
