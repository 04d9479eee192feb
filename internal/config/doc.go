// Package config provides configuration loading and validation for the
// conversation decision-graph service. It handles YAML-based configuration
// with struct validation for the server, chunking, embedding, analyzer,
// session, and logging sections.
package config
