package service

import (
	"errors"
	"fmt"
	"io"

	"coursecat-web/internal/models"
)

// ErrNoColumns is returned when the decoder exposes no header; the legacy
// code for this condition is cannotreadtmpfile.
var ErrNoColumns = errors.New("cannotreadtmpfile: import source has no columns")

// RowOutcome is what the processor reports to the tracker for one input line.
type RowOutcome struct {
	Line       int               `json:"line"`
	Succeeded  bool              `json:"succeeded"`
	Operation  OpKind            `json:"operation"`
	CategoryID int64             `json:"category_id"`
	Messages   map[string]string `json:"messages"`
	Data       map[string]string `json:"data"`
}

// ProgressTracker consumes per-row outcomes and the final totals. It holds no
// decision logic; the processor calls it exactly once per row and once at the
// end of the run.
type ProgressTracker interface {
	Row(outcome RowOutcome)
	Finish(stats models.ImportStats)
}

// ImportProcessor drives one import run: it turns each decoded row into a
// category record, prepares and executes it, and aggregates the counters.
// A processor instance may run Execute only once.
type ImportProcessor struct {
	decoder  RowDecoder
	store    CategoryStore
	tracker  ProgressTracker
	opts     RecordOptions
	executed bool
}

func NewImportProcessor(decoder RowDecoder, store CategoryStore, tracker ProgressTracker, opts RecordOptions) *ImportProcessor {
	return &ImportProcessor{
		decoder: decoder,
		store:   store,
		tracker: tracker,
		opts:    opts,
	}
}

// Execute runs the import. Row-level problems never abort the run; the
// returned error is reserved for fatal conditions (unreadable source,
// invalid policy, contract violations, failing store lookups).
func (p *ImportProcessor) Execute() (models.ImportStats, error) {
	var stats models.ImportStats

	if p.executed {
		return stats, errors.New("import processor may only be run once")
	}
	p.executed = true

	if err := p.opts.Policy.Validate(); err != nil {
		return stats, err
	}
	if len(p.decoder.Columns()) == 0 {
		return stats, ErrNoColumns
	}

	line := 0
	for {
		raw, err := p.decoder.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return stats, fmt.Errorf("read row %d: %w", line+1, err)
		}
		line++
		stats.Total++

		record := NewCategoryRecord(p.store, p.opts, raw)

		ok, err := record.Prepare()
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			stats.Errors++
			p.tracker.Row(RowOutcome{
				Line:      line,
				Succeeded: false,
				Messages:  record.Errors(),
				Data:      record.ReportData(),
			})
			continue
		}

		if err := record.Proceed(); err != nil {
			return stats, fmt.Errorf("line %d: %w", line, err)
		}
		if record.Failed() {
			stats.Errors++
			p.tracker.Row(RowOutcome{
				Line:      line,
				Succeeded: false,
				Operation: record.Operation(),
				Messages:  record.Errors(),
				Data:      record.ReportData(),
			})
			continue
		}

		switch record.Operation() {
		case OpCreate:
			stats.Created++
		case OpUpdate:
			stats.Updated++
		case OpDelete:
			stats.Deleted++
		}

		p.tracker.Row(RowOutcome{
			Line:       line,
			Succeeded:  true,
			Operation:  record.Operation(),
			CategoryID: record.ID(),
			Messages:   record.Statuses(),
			Data:       record.ReportData(),
		})
	}

	p.tracker.Finish(stats)
	return stats, nil
}
