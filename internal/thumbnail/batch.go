package thumbnail

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Progress is reported after each model in a batch.
type Progress struct {
	Index   int // Zero-based position of Ref
	Total   int
	Ref     string
	Outcome Outcome
	Err     error

	// Degenerate is set when the model had zero extent and was framed with
	// the minimum size.
	Degenerate bool
}

// Done returns how many models have been handled, Index+1.
func (p Progress) Done() int {
	return p.Index + 1
}

// Failure pairs a model with its error.
type Failure struct {
	Ref string
	Err error
}

// Report summarises a batch.
type Report struct {
	Written  []string
	Skipped  []string
	Failed   []Failure
	Canceled bool  // The batch stopped early
	Cause    error // Context error when Canceled
	Pending  []string

	// Degenerate lists models framed with the minimum extent. They also
	// appear in Written or Failed.
	Degenerate []string
}

// Err combines every per-file error and the cancellation cause, or nil.
func (r Report) Err() error {
	var err error
	for _, f := range r.Failed {
		err = multierr.Append(err, f.Err)
	}
	if r.Canceled {
		err = multierr.Append(err, r.Cause)
	}
	return err
}

// Total returns the number of models handled.
func (r Report) Total() int {
	return len(r.Written) + len(r.Skipped) + len(r.Failed)
}

// Batch generates thumbnails for refs one after another. A failing model is
// recorded and the batch moves on. Cancelling ctx stops the batch before the
// next model starts; the model in progress always runs to completion, so
// thumbnails already written are never left half done.
//
// progress, if not nil, is called after every model.
func (g *Generator) Batch(ctx context.Context, refs []string, overwrite bool, progress func(Progress)) Report {
	log := g.log()
	var report Report

	// Per-model work ignores cancellation; ctx is only checked between models.
	work := context.WithoutCancel(ctx)

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			report.Canceled = true
			report.Cause = err
			report.Pending = append([]string(nil), refs[i:]...)
			log.Info("Batch canceled",
				zap.Int("done", i),
				zap.Int("pending", len(refs)-i))
			break
		}

		outcome, degenerate, err := g.generate(work, ref, overwrite)
		if degenerate {
			report.Degenerate = append(report.Degenerate, ref)
		}
		switch {
		case err != nil:
			report.Failed = append(report.Failed, Failure{Ref: ref, Err: err})
			log.Error("Thumbnail failed", zap.String("model", ref), zap.Error(err))
		case outcome == OutcomeWritten:
			report.Written = append(report.Written, ref)
		default:
			report.Skipped = append(report.Skipped, ref)
		}

		if progress != nil {
			progress(Progress{Index: i, Total: len(refs), Ref: ref, Outcome: outcome, Err: err, Degenerate: degenerate})
		}
	}

	log.Info("Batch finished",
		zap.Int("written", len(report.Written)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("degenerate", len(report.Degenerate)),
		zap.Bool("canceled", report.Canceled))
	return report
}
