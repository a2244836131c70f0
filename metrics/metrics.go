/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metrics records Prometheus metrics for datastore clients.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/suparena/collectionstore/datastore"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// Metrics holds the collectors shared by instrumented clients.
type Metrics struct {
	operations *prometheus.CounterVec
	seconds    *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "collectionstore_client_operations_total",
			Help: "Datastore client operations by operation and result",
		}, []string{"op", "result"}),
		seconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "collectionstore_client_operation_seconds",
			Help:    "Datastore client operation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns metrics registered with the default Prometheus registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// Instrument wraps client with the default metrics.
func Instrument(client datastore.Client) datastore.Client {
	return InstrumentWith(client, Default())
}

// InstrumentWith wraps client with m.
func InstrumentWith(client datastore.Client, m *Metrics) datastore.Client {
	return &instrumented{next: client, m: m}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	m.seconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.operations.WithLabelValues(op, classify(err)).Inc()
}

func classify(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.IsNotFound(err):
		return ResultNotFound
	case errors.IsValidationError(err):
		return ResultInvalid
	case errors.IsConditionFailed(err), errors.IsAlreadyExists(err):
		return ResultConflict
	}
	return ResultError
}

type instrumented struct {
	next datastore.Client
	m    *Metrics
}

func (c *instrumented) Get(ctx context.Context, collection, id string) (storagemodels.Document, bool, error) {
	start := time.Now()
	doc, found, err := c.next.Get(ctx, collection, id)
	c.m.observe("get", start, err)
	return doc, found, err
}

func (c *instrumented) Add(ctx context.Context, collection string, data storagemodels.Document) (string, error) {
	start := time.Now()
	id, err := c.next.Add(ctx, collection, data)
	c.m.observe("add", start, err)
	return id, err
}

func (c *instrumented) Set(ctx context.Context, collection, id string, data storagemodels.Document) error {
	start := time.Now()
	err := c.next.Set(ctx, collection, id, data)
	c.m.observe("set", start, err)
	return err
}

func (c *instrumented) Update(ctx context.Context, collection, id string, updates []storagemodels.Update) error {
	start := time.Now()
	err := c.next.Update(ctx, collection, id, updates)
	c.m.observe("update", start, err)
	return err
}

func (c *instrumented) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := c.next.Delete(ctx, collection, id)
	c.m.observe("delete", start, err)
	return err
}

func (c *instrumented) Query(ctx context.Context, collection string, q storagemodels.Query) ([]storagemodels.Snapshot, error) {
	start := time.Now()
	snaps, err := c.next.Query(ctx, collection, q)
	c.m.observe("query", start, err)
	return snaps, err
}

func (c *instrumented) Count(ctx context.Context, collection string) (int64, error) {
	start := time.Now()
	n, err := c.next.Count(ctx, collection)
	c.m.observe("count", start, err)
	return n, err
}

func (c *instrumented) Close() error {
	return c.next.Close()
}
