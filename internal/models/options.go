package models

import (
	"fmt"
	"path"
	"time"
)

// AnalysisOptions is the immutable configuration threaded through the
// normalizer, classifier, correlator, and rule engine. Construct it via
// DefaultAnalysisOptions and validate before building a pipeline;
// validation failures surface at construction, never mid-run.
type AnalysisOptions struct {
	MaxLatencyMs       int      `yaml:"maxLatencyMs"`
	APIPathPatterns    []string `yaml:"apiPathPatterns"`
	MinPayloadSize     int64    `yaml:"minPayloadSize"`
	CorrelationSlackMs int      `yaml:"correlationSlackMs"`
	SignalingWindowMs  int      `yaml:"signalingWindowMs"`
	AuthHeaderNames    []string `yaml:"authHeaderNames"`
	ExpiryQueryParam   string   `yaml:"expiryQueryParam"`
	MaxSkipRate        float64  `yaml:"maxSkipRate"`
	ParallelThreshold  int      `yaml:"parallelThreshold"`
}

// DefaultAnalysisOptions returns the documented defaults.
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		MaxLatencyMs:       1000,
		APIPathPatterns:    []string{"/api/*", "/graphql"},
		MinPayloadSize:     0,
		CorrelationSlackMs: 2000,
		SignalingWindowMs:  5000,
		AuthHeaderNames:    []string{"Authorization", "X-API-Key"},
		ExpiryQueryParam:   "X-Amz-Expires",
		MaxSkipRate:        0.5,
		ParallelThreshold:  5000,
	}
}

// Validate checks thresholds and glob patterns. path.Match reports
// malformed patterns eagerly, so a bad pattern cannot surface as a
// silent non-match during classification.
func (o AnalysisOptions) Validate() error {
	if o.MaxLatencyMs <= 0 {
		return fmt.Errorf("maxLatencyMs must be positive, got %d", o.MaxLatencyMs)
	}
	if o.MinPayloadSize < 0 {
		return fmt.Errorf("minPayloadSize must be non-negative, got %d", o.MinPayloadSize)
	}
	if o.CorrelationSlackMs < 0 {
		return fmt.Errorf("correlationSlackMs must be non-negative, got %d", o.CorrelationSlackMs)
	}
	if o.SignalingWindowMs < 0 {
		return fmt.Errorf("signalingWindowMs must be non-negative, got %d", o.SignalingWindowMs)
	}
	if o.MaxSkipRate < 0 || o.MaxSkipRate > 1 {
		return fmt.Errorf("maxSkipRate must be within [0,1], got %f", o.MaxSkipRate)
	}
	if o.ParallelThreshold < 0 {
		return fmt.Errorf("parallelThreshold must be non-negative, got %d", o.ParallelThreshold)
	}
	if o.ExpiryQueryParam == "" {
		return fmt.Errorf("expiryQueryParam must not be empty")
	}
	for _, pattern := range o.APIPathPatterns {
		if _, err := path.Match(pattern, "/"); err != nil {
			return fmt.Errorf("apiPathPatterns entry %q: %w", pattern, err)
		}
	}
	return nil
}

// MaxLatency returns the API latency threshold as a duration.
func (o AnalysisOptions) MaxLatency() time.Duration {
	return time.Duration(o.MaxLatencyMs) * time.Millisecond
}

// CorrelationSlack returns the correlator forward-scan slack.
func (o AnalysisOptions) CorrelationSlack() time.Duration {
	return time.Duration(o.CorrelationSlackMs) * time.Millisecond
}

// SignalingWindow returns the proximity window for the timeline-based
// signaling classification pass.
func (o AnalysisOptions) SignalingWindow() time.Duration {
	return time.Duration(o.SignalingWindowMs) * time.Millisecond
}
