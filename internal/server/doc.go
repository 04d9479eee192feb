// Package server exposes the service's HTTP surface: session lifecycle and
// utterance ingest (REST plus a WebSocket stream), conversation snapshot
// export, and the monitoring endpoints (health, stats, config, Prometheus
// metrics).
package server
