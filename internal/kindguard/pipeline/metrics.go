// Copyright © 2025 kindguard authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline stage names used as metric label values.
const (
	StageAuthenticate = "authenticate"
	StageCSRF         = "csrf"
	StageSanitize     = "sanitize"
	StageInjection    = "injection"
	StageAuthorize    = "authorize"
)

// Metrics counts what the pipeline decided, per stage.
type Metrics struct {
	decisionsTotal  *prometheus.CounterVec
	detectionsTotal *prometheus.CounterVec
	registry        *prometheus.Registry
}

// NewMetrics registers the pipeline collectors on the given registry, or a
// fresh one when nil.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kindguard",
			Name:      "pipeline_decisions_total",
			Help:      "Security pipeline decisions by stage and outcome.",
		}, []string{"stage", "outcome"}),
		detectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kindguard",
			Name:      "injection_detections_total",
			Help:      "Injection pattern matches by pattern ID.",
		}, []string{"pattern"}),
		registry: registry,
	}

	for _, collector := range []prometheus.Collector{m.decisionsTotal, m.detectionsTotal} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordDecision counts one stage outcome ("allowed" or a rejection code).
func (m *Metrics) RecordDecision(stage, outcome string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(stage, outcome).Inc()
}

// RecordDetections counts each matched injection pattern.
func (m *Metrics) RecordDetections(patterns []string) {
	if m == nil {
		return
	}
	for _, p := range patterns {
		m.detectionsTotal.WithLabelValues(p).Inc()
	}
}
