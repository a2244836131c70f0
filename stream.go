/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package collectionstore

import (
	"context"
	"fmt"
	"time"

	"github.com/suparena/collectionstore/storagemodels"
)

// Stream delivers every document matching constraints, fetched in pages
// ordered by document id. The channel is closed when the collection is
// exhausted, ctx ends, or a page fails; a failed page is sent as a result
// carrying Error.
func (c *Collection) Stream(ctx context.Context, constraints []storagemodels.Constraint, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.BufferSize < 0 {
		options.BufferSize = 0
	}
	if options.PageSize <= 0 {
		options.PageSize = storagemodels.DefaultStreamOptions().PageSize
	}

	resultCh := make(chan storagemodels.StreamResult, options.BufferSize)
	go c.streamWorker(ctx, constraints, options, resultCh)
	return resultCh
}

func (c *Collection) streamWorker(
	ctx context.Context,
	constraints []storagemodels.Constraint,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult,
) {
	defer close(resultCh)

	var index int64
	var pageNumber int
	var lastID string
	startTime := time.Now()

	reportProgress := func() {
		if options.ProgressHandler == nil {
			return
		}
		progress := storagemodels.StreamProgress{
			ItemsProcessed: index,
			PagesProcessed: pageNumber,
			LastID:         lastID,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(index) / elapsed
		}
		options.ProgressHandler(progress)
	}

	fail := func(err error) {
		select {
		case <-ctx.Done():
		case resultCh <- storagemodels.StreamResult{
			Error: err,
			Meta:  storagemodels.StreamMeta{Index: index, PageNumber: pageNumber, Timestamp: time.Now()},
		}:
		}
	}

	for _, cons := range constraints {
		if err := cons.Validate(); err != nil {
			fail(err)
			return
		}
	}

	for {
		if ctx.Err() != nil {
			return
		}

		snaps, err := c.query(ctx, storagemodels.Query{
			Filters:    constraints,
			OrderBy:    []storagemodels.Order{{Field: storagemodels.DocumentID}},
			Limit:      options.PageSize,
			StartAfter: lastID,
		})
		if err != nil {
			fail(fmt.Errorf("stream page %d: %w", pageNumber+1, err))
			return
		}
		if len(snaps) == 0 {
			break
		}
		pageNumber++

		for _, s := range snaps {
			result := storagemodels.StreamResult{
				Document: withID(s.ID, s.Data),
				Meta:     storagemodels.StreamMeta{Index: index, PageNumber: pageNumber, Timestamp: time.Now()},
			}
			select {
			case <-ctx.Done():
				return
			case resultCh <- result:
			}
			index++
			lastID = s.ID
		}

		reportProgress()

		if len(snaps) < options.PageSize {
			break
		}
	}

	c.logger.Debug().Int64("items", index).Int("pages", pageNumber).Msg("stream finished")
}
