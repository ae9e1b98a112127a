// Package worker schedules pipeline runs and pushes their output to the
// publisher and the seen store.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"bidwatcher/internal/listing"
	"bidwatcher/internal/metrics"
	"bidwatcher/internal/pipeline"
	"bidwatcher/logger"
	"bidwatcher/services/publisher"
	"bidwatcher/services/seen"
)

// Runner is the part of the pipeline the worker drives.
type Runner interface {
	Run(ctx context.Context, reported map[string]float64) (*pipeline.Report, error)
}

// Worker handles the watch-run-publish cycle
type Worker struct {
	runner     Runner
	publisher  publisher.Publisher
	seen       seen.Store
	metrics    *metrics.Metrics
	interval   time.Duration
	runOnce    bool
	resultsDir string
	log        *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(
	runner Runner,
	pub publisher.Publisher,
	store seen.Store,
	m *metrics.Metrics,
	interval time.Duration,
	runOnce bool,
	resultsDir string,
) *Worker {
	return &Worker{
		runner:     runner,
		publisher:  pub,
		seen:       store,
		metrics:    m,
		interval:   interval,
		runOnce:    runOnce,
		resultsDir: resultsDir,
		log:        logger.ForWorker(),
	}
}

// Start runs watch cycles until ctx is cancelled. With runOnce set it
// returns after the first cycle.
func (w *Worker) Start(ctx context.Context) {
	for {
		start := time.Now()
		if err := w.runAndPublish(ctx); err != nil {
			w.log.WithError(err).Error().Msg("watch cycle failed")
		}
		w.log.Info().Dur("elapsed", time.Since(start)).Msg("watch cycle finished")

		if w.runOnce {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.interval):
		}
	}
}

// runAndPublish executes one cycle. Publish failures are logged but never
// lose the run: the results file is still written and the stats still
// publish, so a dead Redis costs delivery, not data.
func (w *Worker) runAndPublish(ctx context.Context) error {
	reported, err := w.seen.Load(ctx)
	if err != nil {
		return err
	}

	report, err := w.runner.Run(ctx, reported)
	if err != nil {
		return err
	}

	published := w.publishRecords(report.Records)

	if statsData, err := json.Marshal(report.Stats); err != nil {
		w.log.WithError(err).Error().Msg("failed to marshal run stats")
	} else if err := w.publisher.Publish(publisher.FieldStats, statsData); err != nil {
		w.log.WithError(err).Error().Msg("failed to publish run stats")
	}
	if err := w.publisher.Trim(); err != nil {
		w.log.WithError(err).Error().Msg("failed to trim report stream")
	}

	if len(published) > 0 {
		if err := w.seen.MarkReported(ctx, published, report.Stats.RunID); err != nil {
			w.log.WithError(err).Error().Msg("failed to persist reported listings")
		}
	}

	if w.resultsDir != "" {
		if path, err := pipeline.WriteResults(w.resultsDir, report); err != nil {
			w.log.WithError(err).Error().Msg("failed to write results file")
		} else {
			w.log.Info().Str("path", path).Msg("results written")
		}
	}

	w.metrics.ObserveRun(report.Stats.Duration, report.Stats.TotalRawRows,
		report.Stats.AcceptedCount, len(report.Stats.TermsFailed), report.Stats.RejectedCounts)
	return nil
}

// publishRecords returns the records that actually reached the stream; only
// those are marked reported, so a failed publish retries next run.
func (w *Worker) publishRecords(recs []listing.Record) []listing.Record {
	var published []listing.Record
	for _, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			w.log.WithError(err).Error().Str("identity_key", rec.IdentityKey).Msg("failed to marshal listing")
			continue
		}
		if err := w.publisher.Publish(publisher.FieldListing, data); err != nil {
			w.log.WithError(err).Error().Str("identity_key", rec.IdentityKey).Msg("failed to publish listing")
			continue
		}
		published = append(published, rec)
	}
	return published
}
