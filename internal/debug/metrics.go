// Copyright 2025 Tom Barlow
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

package debug

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// sessionsTotal tracks finished parse sessions by outcome
	sessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parsedbg_sessions_total",
			Help: "Total parse sessions by outcome (ended, failed, violation)",
		},
		[]string{"outcome"},
	)

	// suspensionsTotal tracks parser suspensions
	suspensionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parsedbg_suspensions_total",
			Help: "Total parser suspensions by reason",
		},
		[]string{"reason"},
	)

	// resumesTotal tracks how suspensions ended
	resumesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parsedbg_resumes_total",
			Help: "Total parser resumes by resume reason",
		},
		[]string{"reason"},
	)

	// breakpointHits tracks breakpoint matches that suspended the parser
	breakpointHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parsedbg_breakpoint_hits_total",
			Help: "Total breakpoint hits",
		},
	)

	// protocolViolations tracks sessions torn down for broken nesting
	protocolViolations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parsedbg_protocol_violations_total",
			Help: "Total instrumentation protocol violations",
		},
	)

	// suspensionSeconds tracks how long the parser stays suspended
	suspensionSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parsedbg_suspension_seconds",
			Help:    "Time the parser spent suspended",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
		},
	)

	// suspendedGauge is the number of currently suspended parsers
	suspendedGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parsedbg_suspended",
			Help: "Number of currently suspended parsers",
		},
	)
)

// recordSuspend records a new suspension
func recordSuspend(reason Reason) {
	suspensionsTotal.WithLabelValues(string(reason)).Inc()
	suspendedGauge.Inc()
	if reason == ReasonBreakpoint {
		breakpointHits.Inc()
	}
}

// recordResume records the end of a suspension
func recordResume(reason ResumeReason, seconds float64) {
	resumesTotal.WithLabelValues(string(reason)).Inc()
	suspendedGauge.Dec()
	suspensionSeconds.Observe(seconds)
}

// recordSession records a finished session
func recordSession(outcome string) {
	sessionsTotal.WithLabelValues(outcome).Inc()
	if outcome == "violation" {
		protocolViolations.Inc()
	}
}
