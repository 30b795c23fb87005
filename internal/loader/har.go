// Package loader parses captured session archives into raw entry
// records for the diagnostic engine. The engine itself never touches
// files or wire formats; everything format-specific lives here.
package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/tracelens/trace-diag/internal/models"
	"github.com/tracelens/trace-diag/internal/utils"
)

// harFile mirrors the subset of HAR 1.2 the engine consumes.
type harFile struct {
	Log harLog `json:"log"`
}

type harLog struct {
	Entries []harEntry `json:"entries"`
}

type harEntry struct {
	StartedDateTime string      `json:"startedDateTime"`
	Time            float64     `json:"time"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
}

type harRequest struct {
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Headers  []harHeader `json:"headers"`
	BodySize *int64      `json:"bodySize"`
}

type harResponse struct {
	Status   int         `json:"status"`
	Headers  []harHeader `json:"headers"`
	BodySize *int64      `json:"bodySize"`
}

type harHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseHAR decodes a HAR 1.2 document into raw entries, preserving
// capture order. Timestamps that fail to parse are passed through as
// zero values so the normalizer can account for them in its skip-rate
// bookkeeping instead of the whole upload failing.
func ParseHAR(r io.Reader) ([]models.RawEntry, error) {
	var doc harFile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, utils.NewAppError("loader.ParseHAR", "decode HAR document", err)
	}
	if len(doc.Log.Entries) == 0 {
		return nil, utils.NewAppError("loader.ParseHAR", "archive contains no entries", nil)
	}

	raw := make([]models.RawEntry, 0, len(doc.Log.Entries))
	for _, entry := range doc.Log.Entries {
		record := models.RawEntry{
			DurationMs:       entry.Time,
			Method:           entry.Request.Method,
			URL:              entry.Request.URL,
			RequestHeaders:   toHeader(entry.Request.Headers),
			Status:           entry.Response.Status,
			ResponseHeaders:  toHeader(entry.Response.Headers),
			RequestBodySize:  bodySize(entry.Request.BodySize),
			ResponseBodySize: bodySize(entry.Response.BodySize),
		}
		if start, err := utils.ParseRFC3339(entry.StartedDateTime); err == nil {
			record.Start = start
		}
		raw = append(raw, record)
	}
	return raw, nil
}

func toHeader(headers []harHeader) http.Header {
	if len(headers) == 0 {
		return nil
	}
	out := make(http.Header, len(headers))
	for _, h := range headers {
		out.Add(h.Name, h.Value)
	}
	return out
}

// bodySize maps the HAR convention (-1 or absent means unknown) onto
// the engine's sentinel.
func bodySize(size *int64) int64 {
	if size == nil || *size < 0 {
		return models.BodySizeUnknown
	}
	return *size
}

// Digest computes a stable identity for an uploaded trace payload.
func Digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
