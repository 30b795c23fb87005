package loader

import (
	"strings"
	"testing"
	"time"

	"github.com/tracelens/trace-diag/internal/models"
)

const sampleHAR = `{
  "log": {
    "version": "1.2",
    "entries": [
      {
        "startedDateTime": "2024-05-14T09:30:00.000Z",
        "time": 245.5,
        "request": {
          "method": "POST",
          "url": "https://app.example.net/api/session",
          "headers": [
            {"name": "Content-Type", "value": "application/json"},
            {"name": "Authorization", "value": "Bearer token"}
          ],
          "bodySize": 128
        },
        "response": {
          "status": 201,
          "headers": [{"name": "Content-Type", "value": "application/json"}],
          "bodySize": 64
        }
      },
      {
        "startedDateTime": "not-a-timestamp",
        "time": 10,
        "request": {
          "method": "GET",
          "url": "https://app.example.net/api/items",
          "headers": [],
          "bodySize": -1
        },
        "response": {
          "status": 200,
          "headers": []
        }
      }
    ]
  }
}`

func TestParseHAR(t *testing.T) {
	raw, err := ParseHAR(strings.NewReader(sampleHAR))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(raw))
	}

	first := raw[0]
	wantStart := time.Date(2024, 5, 14, 9, 30, 0, 0, time.UTC)
	if !first.Start.Equal(wantStart) {
		t.Fatalf("start mismatch: got %v, want %v", first.Start, wantStart)
	}
	if first.DurationMs != 245.5 {
		t.Fatalf("duration mismatch: got %v", first.DurationMs)
	}
	if first.Method != "POST" || first.Status != 201 {
		t.Fatalf("unexpected method/status: %s %d", first.Method, first.Status)
	}
	if got := first.RequestHeaders.Get("Authorization"); got != "Bearer token" {
		t.Fatalf("request header lost: %q", got)
	}
	if first.RequestBodySize != 128 || first.ResponseBodySize != 64 {
		t.Fatalf("body sizes mismatch: %d %d", first.RequestBodySize, first.ResponseBodySize)
	}
}

func TestParseHARUnknownBodySizes(t *testing.T) {
	raw, err := ParseHAR(strings.NewReader(sampleHAR))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := raw[1]
	if second.RequestBodySize != models.BodySizeUnknown {
		t.Fatalf("-1 bodySize must map to the unknown sentinel, got %d", second.RequestBodySize)
	}
	if second.ResponseBodySize != models.BodySizeUnknown {
		t.Fatalf("absent bodySize must map to the unknown sentinel, got %d", second.ResponseBodySize)
	}
}

func TestParseHARBadTimestampPassesThrough(t *testing.T) {
	raw, err := ParseHAR(strings.NewReader(sampleHAR))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !raw[1].Start.IsZero() {
		t.Fatalf("unparseable timestamp should yield zero start, got %v", raw[1].Start)
	}
}

func TestParseHARRejectsEmptyArchive(t *testing.T) {
	if _, err := ParseHAR(strings.NewReader(`{"log": {"entries": []}}`)); err == nil {
		t.Fatal("expected error for empty archive")
	}
}

func TestParseHARRejectsMalformedJSON(t *testing.T) {
	if _, err := ParseHAR(strings.NewReader(`{"log": `)); err == nil {
		t.Fatal("expected error for truncated document")
	}
}

func TestDigestStable(t *testing.T) {
	payload := []byte(sampleHAR)
	a := Digest(payload)
	b := Digest(payload)
	if a != b {
		t.Fatalf("digest must be deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %q", a)
	}
	if c := Digest([]byte("other")); c == a {
		t.Fatal("distinct payloads must not collide")
	}
}
