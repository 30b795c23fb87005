package models

import (
	"net/http"
	"net/url"
	"time"
)

// BodySizeUnknown marks a payload size the capture did not record.
const BodySizeUnknown int64 = -1

// RawEntry is one exchange as delivered by the trace loader, before
// normalization. URL is the raw string; the normalizer parses and
// validates it.
type RawEntry struct {
	Start            time.Time
	DurationMs       float64
	Method           string
	URL              string
	RequestHeaders   http.Header
	Status           int
	ResponseHeaders  http.Header
	RequestBodySize  int64
	ResponseBodySize int64
}

// Entry is one normalized exchange within a trace. IDs form a dense
// 0-based sequence in trace order, so every downstream component can
// reference entries by position.
type Entry struct {
	ID               int
	Start            time.Time
	Duration         time.Duration
	Method           string
	URL              *url.URL
	RequestHeaders   http.Header
	Status           int
	ResponseHeaders  http.Header
	RequestBodySize  int64
	ResponseBodySize int64
}

// End returns the completion time of the exchange.
func (e Entry) End() time.Time {
	return e.Start.Add(e.Duration)
}

// Incomplete reports whether the exchange never received a response.
// Incomplete entries are excluded from status-based rules but still
// participate in latency and timeout rules.
func (e Entry) Incomplete() bool {
	return e.Status == 0
}

// NormalizedURL returns scheme+host+path with the query stripped, the
// identity used for retry detection.
func (e Entry) NormalizedURL() string {
	if e.URL == nil {
		return ""
	}
	stripped := url.URL{Scheme: e.URL.Scheme, Host: e.URL.Host, Path: e.URL.Path}
	return stripped.String()
}

// Warning records a normalization problem that did not abort the run.
type Warning struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}
