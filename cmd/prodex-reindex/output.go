package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	domreindex "github.com/kailas-cloud/prodex/internal/domain/reindex"
)

type reportJSON struct {
	JobID       string  `json:"job_id"`
	State       string  `json:"state"`
	Force       bool    `json:"force"`
	Scanned     int     `json:"scanned"`
	Total       int     `json:"total"`
	Processed   int     `json:"processed"`
	Errors      int     `json:"errors"`
	SuccessRate float64 `json:"success_rate"`
	DurationMs  int64   `json:"duration_ms"`
	Error       string  `json:"error,omitempty"`
}

type statsJSON struct {
	TotalProducts      int     `json:"total_products"`
	TotalEmbeddings    int     `json:"total_embeddings"`
	Missing            int     `json:"missing"`
	Stale              int     `json:"stale"`
	CoveragePercentage float64 `json:"coverage_percentage"`
	Dimension          int     `json:"dimension"`
	Model              string  `json:"model"`
}

func printReport(w io.Writer, r *domreindex.Report, asJSON bool) error {
	d := r.Duration(time.Now())
	if asJSON {
		return json.NewEncoder(w).Encode(reportJSON{
			JobID:       r.JobID,
			State:       string(r.State),
			Force:       r.Force,
			Scanned:     r.Scanned,
			Total:       r.Total,
			Processed:   r.Processed,
			Errors:      r.Errors,
			SuccessRate: r.SuccessRate(),
			DurationMs:  d.Milliseconds(),
			Error:       r.Err,
		})
	}

	_, err := fmt.Fprintf(w,
		"Reindex %s (%s)\n  scanned:   %d\n  selected:  %d\n  processed: %d\n  errors:    %d\n  success:   %.1f%%\n  duration:  %s\n",
		r.JobID, r.State, r.Scanned, r.Total, r.Processed, r.Errors, r.SuccessRate()*100, d.Round(time.Millisecond))
	if err != nil {
		return err
	}
	if r.Err != "" {
		_, err = fmt.Fprintf(w, "  error:     %s\n", r.Err)
	}
	return err
}

func printStats(w io.Writer, s *domreindex.Stats, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(statsJSON{
			TotalProducts:      s.TotalProducts,
			TotalEmbeddings:    s.TotalEmbeddings,
			Missing:            s.Missing,
			Stale:              s.Stale,
			CoveragePercentage: s.CoveragePercentage(),
			Dimension:          s.Dimension,
			Model:              s.ModelVersion,
		})
	}
	_, err := fmt.Fprintf(w,
		"Embedding coverage\n  products:   %d\n  embeddings: %d\n  missing:    %d\n  stale:      %d\n  coverage:   %.1f%%\n  model:      %s (%d dims)\n",
		s.TotalProducts, s.TotalEmbeddings, s.Missing, s.Stale, s.CoveragePercentage(), s.ModelVersion, s.Dimension)
	return err
}
