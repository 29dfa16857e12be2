package prodex

import (
	"context"
	"fmt"
	"time"

	domreindex "github.com/kailas-cloud/prodex/internal/domain/reindex"
)

// Reindex embeds products whose embedding is missing or stale, or every
// product when force is set. It blocks until the run finishes; a
// cancelled ctx stops it between items and keeps finished work.
func (c *Client) Reindex(ctx context.Context, force bool) (_ ReindexReport, err error) {
	start := time.Now()
	var out ReindexReport
	defer func() {
		c.obs.observe("reindex", start, err, "force", force, "processed", out.Processed, "errors", out.Errors)
	}()

	report, err := c.reindexSvc.Run(ctx, force)
	out = fromDomainReport(&report, c.now())
	if err != nil {
		return out, fmt.Errorf("reindex: %w", err)
	}
	return out, nil
}

// Stats reports embedding coverage of the catalog.
func (c *Client) Stats(ctx context.Context) (_ Stats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("stats", start, err) }()

	s, err := c.reindexSvc.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return Stats{
		TotalProducts:      s.TotalProducts,
		TotalEmbeddings:    s.TotalEmbeddings,
		Missing:            s.Missing,
		Stale:              s.Stale,
		CoveragePercentage: s.CoveragePercentage(),
		Dimension:          s.Dimension,
		Model:              s.ModelVersion,
	}, nil
}

func fromDomainReport(r *domreindex.Report, now time.Time) ReindexReport {
	return ReindexReport{
		JobID:       r.JobID,
		State:       string(r.State),
		Total:       r.Total,
		Processed:   r.Processed,
		Errors:      r.Errors,
		SuccessRate: r.SuccessRate(),
		Duration:    r.Duration(now),
	}
}
