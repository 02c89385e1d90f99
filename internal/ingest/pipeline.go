package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/david/ywc-dashboard/internal/db"
	"github.com/david/ywc-dashboard/internal/models"
)

// Pipeline turns an uploaded file into the working indicator set and the
// current quarter's snapshot.
type Pipeline struct {
	Store  *db.Store
	Schema *Schema
	Log    *zap.Logger
	Now    func() time.Time
}

func NewPipeline(store *db.Store, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Store:  store,
		Schema: DefaultSchema(),
		Log:    logger,
		Now:    time.Now,
	}
}

// Parse reads, validates and normalizes r without touching storage.
// A rejected upload returns *ImportError.
func (p *Pipeline) Parse(ctx context.Context, r io.Reader, fileName string) (*ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table, err := ReadTable(r)
	if err != nil {
		return nil, p.importError(err)
	}
	if err := p.Schema.Validate(table.Rows); err != nil {
		return nil, p.importError(err)
	}

	indicators := Normalize(table.Rows)
	return &ImportResult{
		Indicators: indicators,
		Meta: models.ImportMeta{
			ID:         uuid.New(),
			FileName:   cleanFileName(fileName),
			RowCount:   len(indicators),
			UploadDate: p.Now().UTC(),
		},
	}, nil
}

// Import parses r and, when accepted, replaces the working set and records
// the snapshot for the quarter containing the pipeline clock. Storage
// failures are logged and reported through ImportResult.Persisted.
func (p *Pipeline) Import(ctx context.Context, r io.Reader, fileName string) (*ImportResult, error) {
	result, err := p.Parse(ctx, r, fileName)
	if err != nil {
		p.Log.Info("upload rejected", zap.String("file", fileName), zap.Error(err))
		return nil, err
	}
	if p.Store == nil {
		return result, nil
	}

	quarter, year := models.QuarterOf(p.Now())
	result.Quarter = models.QuarterKey(year, quarter)

	savedSet := p.Store.SaveIndicators(ctx, result.Indicators)
	savedQuarter := p.Store.SaveQuarter(ctx, quarter, year, result.Indicators)
	result.Persisted = savedSet && savedQuarter

	p.Log.Info("upload accepted",
		zap.String("upload_id", result.Meta.ID.String()),
		zap.String("file", result.Meta.FileName),
		zap.Int("rows", result.Meta.RowCount),
		zap.String("quarter", result.Quarter),
		zap.Bool("persisted", result.Persisted),
	)
	return result, nil
}

// ImportURL fetches a published CSV and imports it like an upload.
func (p *Pipeline) ImportURL(ctx context.Context, f *Fetcher, rawURL string) (*ImportResult, error) {
	body, name, err := f.FetchCSV(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return p.Import(ctx, bytes.NewReader(body), name)
}

func (p *Pipeline) importError(err error) error {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return &ImportError{Errors: verrs.capped(p.Schema.MaxReportedErrors)}
	}
	return &ImportError{Errors: []string{err.Error()}}
}
