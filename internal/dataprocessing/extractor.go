package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"campcli/pkg/contracts/domain"
)

// Input is one file handed to an extractor together with its sniffing result
type Input struct {
	Name      string
	Data      []byte
	Detection Detection
}

// ExtractOptions tunes one extraction
type ExtractOptions struct {
	// ForecastOnly keeps only rows flagged FCAST/FORECAST.
	ForecastOnly bool
	// EmployeeID assigns every row to one member instead of reading an
	// identity column.
	EmployeeID string
	// SampleRows bounds header and shape scanning.
	SampleRows int
}

// Extraction is the result of a successful extraction
type Extraction struct {
	Format   Format
	Strategy string
	Encoding string
	Engine   string
	Table    string
	Columns  ColumnMap
	Rows     []domain.RawCapacityRow
	Warnings []string
}

// Extractor reads raw capacity rows from one input format. A malformed row
// is skipped with a warning; only structural problems return an error.
type Extractor interface {
	Format() Format
	Extract(in Input, opts ExtractOptions) (*Extraction, error)
}

// Pipeline sniffs an input and dispatches it to the matching extractor
type Pipeline struct {
	sniffer    *Sniffer
	extractors map[Format]Extractor
	logger     *slog.Logger
}

// NewPipeline creates a pipeline with the CSV, spreadsheet and HTML extractors.
func NewPipeline(logger *slog.Logger, sampleRows int) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return NewPipelineWith(logger, NewSniffer(sampleRows),
		NewCSVExtractor(),
		NewSpreadsheetExtractor(),
		NewHTMLExtractor(),
	)
}

// NewPipelineWith creates a pipeline with custom parts.
func NewPipelineWith(logger *slog.Logger, sniffer *Sniffer, extractors ...Extractor) *Pipeline {
	p := &Pipeline{
		sniffer:    sniffer,
		extractors: make(map[Format]Extractor, len(extractors)),
		logger:     logger.With(slog.String("component", "extraction_pipeline")),
	}
	for _, e := range extractors {
		p.extractors[e.Format()] = e
	}
	return p
}

// Sniff classifies data without extracting it.
func (p *Pipeline) Sniff(name string, data []byte) (Detection, error) {
	return p.sniffer.Sniff(name, data)
}

// Extract sniffs data and runs the extractor for its format.
func (p *Pipeline) Extract(ctx context.Context, name string, data []byte, opts ExtractOptions) (*Extraction, error) {
	det, err := p.sniffer.Sniff(name, data)
	if err != nil {
		return nil, err
	}

	p.logger.DebugContext(ctx, "input classified",
		slog.String("file", filepath.Base(name)),
		slog.String("format", string(det.Format)),
		slog.String("strategy", det.Strategy),
		slog.String("mime", det.MIME),
		slog.String("encoding", det.Encoding),
		slog.String("delimiter", string(det.Delimiter)))

	extractor, ok := p.extractors[det.Format]
	if !ok {
		return nil, fmt.Errorf("no extractor registered for format %q", det.Format)
	}

	result, err := extractor.Extract(Input{Name: filepath.Base(name), Data: data, Detection: det}, opts)
	if err != nil {
		return nil, err
	}
	result.Format = det.Format
	result.Strategy = det.Strategy
	if result.Encoding == "" {
		result.Encoding = det.Encoding
	}

	p.logger.InfoContext(ctx, "rows extracted",
		slog.String("file", filepath.Base(name)),
		slog.String("format", string(det.Format)),
		slog.String("table", result.Table),
		slog.String("columns", result.Columns.Method),
		slog.Int("rows", len(result.Rows)),
		slog.Int("warnings", len(result.Warnings)))

	return result, nil
}
