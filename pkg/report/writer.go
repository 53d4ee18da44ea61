package report

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Gobusters/ectologger"
	pkgerrors "github.com/pkg/errors"

	"github.com/Lion2cat/rawBeans/pkg/tracing"
)

// FilePrefix starts every report file name
const FilePrefix = "coffee_report_"

// Files are the paths written for one report
type Files struct {
	Text  string
	HTML  string
	Excel string
}

// Writer saves reports to a directory
type Writer struct {
	logger ectologger.Logger
	dir    string
}

// NewWriter creates a report writer for dir
func NewWriter(logger ectologger.Logger, dir string) *Writer {
	return &Writer{logger: logger, dir: dir}
}

// Write renders the report in every format, naming the files after ts
func (w *Writer) Write(ctx context.Context, r Report, ts time.Time) (Files, error) {
	ctx, span := tracing.StartSpan(ctx, "report.Writer.Write")
	defer span.End()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Files{}, pkgerrors.Wrapf(err, "failed to create report directory %s", w.dir)
	}

	base := filepath.Join(w.dir, FilePrefix+ts.Format("20060102_150405"))
	files := Files{Text: base + ".txt", HTML: base + ".html", Excel: base + ".xlsx"}

	if err := writeFile(files.Text, func(out io.Writer) error { return WriteText(out, r) }); err != nil {
		tracing.RecordError(span, err)
		return Files{}, err
	}
	if err := writeFile(files.HTML, func(out io.Writer) error { return WriteHTML(out, r) }); err != nil {
		tracing.RecordError(span, err)
		return Files{}, err
	}
	if err := WriteExcel(files.Excel, r); err != nil {
		tracing.RecordError(span, err)
		return Files{}, err
	}

	w.logger.WithContext(ctx).WithFields(map[string]any{
		"text":    files.Text,
		"html":    files.HTML,
		"excel":   files.Excel,
		"origins": len(r.Origins),
	}).Info("Reports written")

	return files, nil
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create %s", path)
	}
	if err := render(f); err != nil {
		f.Close()
		return pkgerrors.Wrapf(err, "failed to render %s", path)
	}
	return pkgerrors.Wrapf(f.Close(), "failed to close %s", path)
}
