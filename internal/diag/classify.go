package diag

import (
	"path"
	"sort"
	"strings"
	"time"

	"github.com/tracelens/trace-diag/internal/models"
)

// signalingMarkers are substrings whose presence in user-agent or
// content-type headers tags an entry as signaling traffic.
var signalingMarkers = []string{"sdp", "sip", "signal", "websocket"}

// natHostPrefixes tag hosts that serve STUN/TURN even when the capture
// records them over http (e.g. TURN REST credential endpoints).
var natHostPrefixes = []string{"stun.", "stun-", "turn.", "turn-", "coturn."}

// Classifier assigns domain labels to entries. Classification runs in
// two rounds: Structural inspects entry content only, ApplyTimeline
// adds the proximity-based signaling labels once the correlator has
// established the timeline ordering.
type Classifier struct {
	opts models.AnalysisOptions
}

// NewClassifier constructs a Classifier with the supplied options.
func NewClassifier(opts models.AnalysisOptions) *Classifier {
	return &Classifier{opts: opts}
}

// Structural computes the first-round labels. An entry may match
// several heuristics; all matching labels are kept.
func (c *Classifier) Structural(entries []models.Entry) models.Classification {
	class := make(models.Classification, len(entries))
	for _, entry := range entries {
		labels := models.LabelSet{}
		if isNATTraversal(entry) {
			labels.Add(models.LabelNATTraversal)
		}
		if hasSignalingMarker(entry) {
			labels.Add(models.LabelSignaling)
		}
		if c.isAPIPath(entry) {
			labels.Add(models.LabelAPI)
		}
		if isCORSPreflight(entry) {
			labels.Add(models.LabelCORSPreflight)
		}
		if len(labels) > 0 {
			class[entry.ID] = labels
		}
	}
	return class
}

// ApplyTimeline is the second classification round: entries that
// co-occur with NAT-traversal traffic within the signaling window gain
// the signaling label. It requires the correlator's time-ordered view
// and mutates the classification in place.
func (c *Classifier) ApplyTimeline(entries []models.Entry, class models.Classification) {
	natStarts := make([]time.Time, 0)
	for _, entry := range entries {
		if class.LabelsOf(entry.ID).Has(models.LabelNATTraversal) {
			natStarts = append(natStarts, entry.Start)
		}
	}
	if len(natStarts) == 0 {
		return
	}
	sort.Slice(natStarts, func(i, j int) bool { return natStarts[i].Before(natStarts[j]) })

	window := c.opts.SignalingWindow()
	for _, entry := range entries {
		labels := class.LabelsOf(entry.ID)
		if labels.Has(models.LabelNATTraversal) || labels.Has(models.LabelSignaling) {
			continue
		}
		if !withinWindow(natStarts, entry.Start, window) {
			continue
		}
		if labels == nil {
			labels = models.LabelSet{}
			class[entry.ID] = labels
		}
		labels.Add(models.LabelSignaling)
	}
}

// withinWindow reports whether any of the sorted times lies within
// the window of t, in either direction.
func withinWindow(sorted []time.Time, t time.Time, window time.Duration) bool {
	idx := sort.Search(len(sorted), func(i int) bool { return !sorted[i].Before(t) })
	if idx < len(sorted) && sorted[idx].Sub(t) <= window {
		return true
	}
	if idx > 0 && t.Sub(sorted[idx-1]) <= window {
		return true
	}
	return false
}

func isNATTraversal(entry models.Entry) bool {
	scheme := strings.ToLower(entry.URL.Scheme)
	switch scheme {
	case "stun", "stuns", "turn", "turns":
		return true
	}
	host := strings.ToLower(entry.URL.Hostname())
	if host == "" {
		// stun:host:port parses into Opaque rather than Host.
		host = strings.ToLower(entry.URL.Opaque)
	}
	for _, prefix := range natHostPrefixes {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}
	for _, values := range entry.URL.Query() {
		for _, v := range values {
			lower := strings.ToLower(v)
			if strings.HasPrefix(lower, "stun:") || strings.HasPrefix(lower, "turn:") {
				return true
			}
		}
	}
	return false
}

func hasSignalingMarker(entry models.Entry) bool {
	candidates := []string{
		entry.RequestHeaders.Get("User-Agent"),
		entry.RequestHeaders.Get("Content-Type"),
		entry.RequestHeaders.Get("Upgrade"),
	}
	for _, value := range candidates {
		lower := strings.ToLower(value)
		if lower == "" {
			continue
		}
		for _, marker := range signalingMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

func (c *Classifier) isAPIPath(entry models.Entry) bool {
	p := entry.URL.Path
	if p == "" {
		return false
	}
	for _, pattern := range c.opts.APIPathPatterns {
		if matchAPIPattern(pattern, p) {
			return true
		}
	}
	return false
}

// matchAPIPattern applies path.Match semantics, treating a trailing
// "/*" as a subtree prefix so "/api/*" also covers nested paths.
func matchAPIPattern(pattern, p string) bool {
	if ok, err := path.Match(pattern, p); err == nil && ok {
		return true
	}
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		return strings.HasPrefix(p, prefix+"/")
	}
	return false
}

func isCORSPreflight(entry models.Entry) bool {
	return entry.Method == "OPTIONS" && entry.ResponseHeaders.Get("Access-Control-Allow-Origin") != ""
}
