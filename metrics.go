// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package htmlentity

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "htmlentity"

type linkOutcome string

const (
	linkFollowed linkOutcome = "followed"
	linkCached   linkOutcome = "cached"
	linkIgnored  linkOutcome = "ignored"
	linkFailed   linkOutcome = "failed"
)

// Metrics counts what parsers do. One Metrics value may be shared by several
// parsers.
type Metrics struct {
	Documents     *prometheus.CounterVec
	Records       *prometheus.CounterVec
	RecordErrors  *prometheus.CounterVec
	Links         *prometheus.CounterVec
	Resources     *prometheus.CounterVec
	RateLimitWait prometheus.Histogram
}

// NewMetrics creates the parser metrics and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_parsed_total",
			Help:      "Documents traversed, nested documents included",
		}, []string{"status"}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_emitted_total",
			Help:      "Records produced per entity",
		}, []string{"entity"}),
		RecordErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "record_errors_total",
			Help:      "Records dropped because their processing failed",
		}, []string{"entity"}),
		Links: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "links_total",
			Help:      "Follow-link attempts by outcome",
		}, []string{"outcome"}),
		Resources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "resources_total",
			Help:      "Resource downloads by outcome",
		}, []string{"outcome"}),
		RateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for the download rate limiter",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Documents, m.Records, m.RecordErrors, m.Links, m.Resources, m.RateLimitWait)
	}
	return m
}

func (m *Metrics) documentParsed(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Documents.WithLabelValues(status).Inc()
}

func (m *Metrics) recordEmitted(entity string) {
	m.Records.WithLabelValues(entity).Inc()
}

func (m *Metrics) recordFailed(entity string) {
	m.RecordErrors.WithLabelValues(entity).Inc()
}

func (m *Metrics) link(outcome linkOutcome) {
	m.Links.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) resource(res ResourceResult) {
	switch {
	case res.Skipped:
		m.Resources.WithLabelValues("skipped").Inc()
	case res.Err != nil:
		m.Resources.WithLabelValues("failed").Inc()
	default:
		m.Resources.WithLabelValues("saved").Inc()
	}
}

func (m *Metrics) waited(d time.Duration) {
	m.RateLimitWait.Observe(d.Seconds())
}
