// Command har-gen emits a synthetic session HAR for local development:
// STUN/TURN lookups, SDP signaling, and API traffic with seeded faults
// so every built-in rule has something to find.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

type harHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type harRequest struct {
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Headers  []harHeader `json:"headers"`
	BodySize int64       `json:"bodySize"`
}

type harResponse struct {
	Status   int         `json:"status"`
	Headers  []harHeader `json:"headers"`
	BodySize int64       `json:"bodySize"`
}

type harEntry struct {
	StartedDateTime string      `json:"startedDateTime"`
	Time            float64     `json:"time"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
}

func main() {
	var (
		out      string
		apiCalls int
		withTURN bool
		faults   bool
	)
	flag.StringVar(&out, "out", "-", "Output file, '-' for stdout")
	flag.IntVar(&apiCalls, "api-calls", 10, "Number of API entries to generate")
	flag.BoolVar(&withTURN, "turn", true, "Include a TURN allocation entry")
	flag.BoolVar(&faults, "faults", true, "Seed slow, empty-body, and 401 entries")
	flag.Parse()

	base := time.Now().UTC().Add(-10 * time.Minute)
	entries := make([]harEntry, 0)

	if withTURN {
		entries = append(entries, harEntry{
			StartedDateTime: base.Format(time.RFC3339),
			Time:            42,
			Request:         harRequest{Method: "", URL: "turn:turn.example.net:3478?transport=udp", BodySize: -1},
			Response:        harResponse{Status: 200, BodySize: -1},
		})
	}

	entries = append(entries, harEntry{
		StartedDateTime: base.Add(500 * time.Millisecond).Format(time.RFC3339),
		Time:            120,
		Request: harRequest{
			Method: "POST",
			URL:    "https://rtc.example.net/session/offer",
			Headers: []harHeader{
				{Name: "Content-Type", Value: "application/sdp"},
			},
			BodySize: 2048,
		},
		Response: harResponse{Status: 200, BodySize: 1890},
	})

	for i := 0; i < apiCalls; i++ {
		start := base.Add(time.Duration(i+2) * time.Second)
		entry := harEntry{
			StartedDateTime: start.Format(time.RFC3339),
			Time:            80,
			Request: harRequest{
				Method: "GET",
				URL:    fmt.Sprintf("https://app.example.net/api/items/%d", i),
				Headers: []harHeader{
					{Name: "Authorization", Value: "Bearer dev-token"},
				},
				BodySize: -1,
			},
			Response: harResponse{Status: 200, BodySize: 512},
		}
		if faults && i == 3 {
			entry.Time = 2500
		}
		if faults && i == 5 {
			entry.Request.Method = "POST"
			entry.Request.BodySize = 0
		}
		if faults && i == 7 {
			entry.Request.Headers = nil
			entry.Response.Status = 401
		}
		entries = append(entries, entry)
	}

	doc := map[string]any{
		"log": map[string]any{
			"version": "1.2",
			"creator": map[string]string{"name": "har-gen", "version": "dev"},
			"entries": entries,
		},
	}

	w := os.Stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			log.Fatalf("create output: %v", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		log.Fatalf("encode HAR: %v", err)
	}
}
