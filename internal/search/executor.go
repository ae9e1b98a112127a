// Package search drives one term's pagination over a browser session.
package search

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"bidwatcher/internal/browser"
	"bidwatcher/internal/listing"
	"bidwatcher/logger"
)

// Executor paginates a single search term to exhaustion or the page cap,
// yielding raw rows tagged with the term that surfaced them.
type Executor struct {
	session browser.Session
	ready   browser.ReadySignal
	pageCap int
	limiter *rate.Limiter
}

// NewExecutor wraps a session. The limiter enforces the politeness delay
// between navigations and page advances; pageCap bounds pagination so a site
// bug can never loop the run forever.
func NewExecutor(session browser.Session, ready browser.ReadySignal, pageCap int, limiter *rate.Limiter) *Executor {
	return &Executor{
		session: session,
		ready:   ready,
		pageCap: pageCap,
		limiter: limiter,
	}
}

// Run extracts every result row for one term. On a mid-pagination failure the
// rows gathered so far are returned alongside the error: the caller keeps the
// partial results and records the failure, so one broken page never discards
// a whole term. An error on the first navigation returns no rows.
func (e *Executor) Run(ctx context.Context, term, searchURL string) ([]listing.RawRow, error) {
	log := logger.ForTerm(term)

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := e.session.Navigate(ctx, searchURL); err != nil {
		return nil, err
	}

	var rows []listing.RawRow
	for page := 1; ; page++ {
		if err := e.session.WaitReady(ctx, e.ready); err != nil {
			if errors.Is(err, browser.ErrNoResults) {
				log.Info().Int("page", page).Msg("no results for term")
				return rows, nil
			}
			log.Warn().Int("page", page).Err(err).Msg("page never became ready, keeping partial results")
			return rows, err
		}

		pageRows, err := e.session.ExtractRows(ctx)
		if err != nil {
			log.Warn().Int("page", page).Err(err).Msg("row extraction failed, keeping partial results")
			return rows, err
		}
		for _, row := range pageRows {
			row[listing.FieldSearchTerm] = term
			rows = append(rows, row)
		}
		log.Debug().Int("page", page).Int("rows", len(pageRows)).Msg("extracted page")

		if page >= e.pageCap {
			log.Info().Int("page_cap", e.pageCap).Msg("page cap reached")
			break
		}
		if !e.session.HasNextPage(ctx) {
			break
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return rows, err
		}
		if err := e.session.AdvancePage(ctx); err != nil {
			log.Warn().Int("page", page).Err(err).Msg("page advance failed, keeping partial results")
			return rows, err
		}
	}

	log.Info().Int("rows", len(rows)).Msg("term pagination complete")
	return rows, nil
}
