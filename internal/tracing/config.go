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

// Package tracing sets up OpenTelemetry tracing for parsedbg. Parse
// sessions are recorded as spans by the debug controller through the
// global tracer provider; this package installs a provider that prints
// them with the stdout exporter or ships them to an OTLP collector.
package tracing

import (
	"io"
	"time"
)

// Config configures the tracer provider.
type Config struct {
	// ServiceName identifies this program in traces.
	ServiceName string

	// ServiceVersion is the application version.
	ServiceVersion string

	// Exporter selects where spans go: "console" (default), "otlp-http"
	// or "otlp-grpc".
	Exporter string

	// Console configures the console exporter.
	Console ConsoleConfig

	// OTLP configures the OTLP exporters.
	OTLP OTLPConfig

	// SampleRate is the fraction of sessions to record (0.0 - 1.0).
	// Zero means record everything.
	SampleRate float64

	// BatchTimeout is how often batched spans are flushed (default: 1s).
	BatchTimeout time.Duration

	// SetGlobal installs the provider as the otel global provider.
	SetGlobal bool
}

// ConsoleConfig holds configuration for the console exporter.
type ConsoleConfig struct {
	// Writer is the output destination (default: os.Stderr).
	Writer io.Writer

	// PrettyPrint enables human-readable formatted output.
	PrettyPrint bool
}

// OTLPConfig holds configuration for the OTLP exporters.
type OTLPConfig struct {
	// Endpoint is host:port of the collector (e.g., "localhost:4318").
	Endpoint string

	// URLPath is the HTTP path for traces (default: "/v1/traces").
	URLPath string

	// Insecure disables TLS (for local collectors).
	Insecure bool

	// Headers are sent with every export request.
	Headers map[string]string
}

// Exporter names accepted by Config.Exporter.
const (
	ExporterConsole  = "console"
	ExporterOTLPHTTP = "otlp-http"
	ExporterOTLPGRPC = "otlp-grpc"
)

// DefaultConfig returns a configuration that prints every span to stderr.
func DefaultConfig(version string) Config {
	return Config{
		ServiceName:    "parsedbg",
		ServiceVersion: version,
		Exporter:       ExporterConsole,
		Console:        ConsoleConfig{PrettyPrint: true},
		BatchTimeout:   time.Second,
		SetGlobal:      true,
	}
}
