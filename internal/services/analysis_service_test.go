package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tracelens/trace-diag/internal/diag"
	"github.com/tracelens/trace-diag/internal/models"
	"github.com/tracelens/trace-diag/pkg/cache"
)

type fakeStore struct {
	saved   []models.Report
	recent  []models.Report
	saveErr error
}

func (f *fakeStore) SaveReport(ctx context.Context, report models.Report) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, report)
	return nil
}

func (f *fakeStore) GetReport(ctx context.Context, id string) (models.Report, error) {
	for _, r := range f.saved {
		if r.ReportID == id {
			return r, nil
		}
	}
	return models.Report{}, nil
}

func (f *fakeStore) ListReports(ctx context.Context, limit int) ([]models.ReportSummary, error) {
	out := make([]models.ReportSummary, 0, len(f.saved))
	for _, r := range f.saved {
		out = append(out, models.ReportSummary{ReportID: r.ReportID})
	}
	return out, nil
}

func (f *fakeStore) RecentReports(ctx context.Context, limit int) ([]models.Report, error) {
	return f.recent, nil
}

const serviceHAR = `{
  "log": {
    "entries": [
      {
        "startedDateTime": "2024-05-14T09:30:00.000Z",
        "time": 2500,
        "request": {"method": "GET", "url": "https://app.example.net/api/slow", "headers": []},
        "response": {"status": 200, "headers": []}
      },
      {
        "startedDateTime": "2024-05-14T09:30:05.000Z",
        "time": 40,
        "request": {"method": "GET", "url": "https://app.example.net/api/fast", "headers": []},
        "response": {"status": 200, "headers": []}
      }
    ]
  }
}`

func newTestService(t *testing.T, store ReportStore, reportCache *cache.ReportCache) *AnalysisService {
	t.Helper()
	pipeline, err := diag.NewPipeline(nil, models.DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return NewAnalysisService(nil, pipeline, store, reportCache)
}

func TestAnalyzeHARPersistsReport(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, nil)

	report, err := svc.AnalyzeHAR(context.Background(), []byte(serviceHAR))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ReportID == "" || report.TraceDigest == "" {
		t.Fatalf("report identity missing: %+v", report)
	}
	if report.EntryCount != 2 {
		t.Fatalf("unexpected entry count %d", report.EntryCount)
	}
	if len(report.Findings) != 1 || report.Findings[0].RuleID != "high-latency" {
		t.Fatalf("unexpected findings %+v", report.Findings)
	}
	if len(store.saved) != 1 || store.saved[0].ReportID != report.ReportID {
		t.Fatalf("report not persisted: %+v", store.saved)
	}
}

func TestAnalyzeHARCacheHit(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(t, store, cache.NewReportCache(time.Minute))

	first, err := svc.AnalyzeHAR(context.Background(), []byte(serviceHAR))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.AnalyzeHAR(context.Background(), []byte(serviceHAR))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.ReportID != second.ReportID {
		t.Fatal("identical payload should be served from cache")
	}
	if len(store.saved) != 1 {
		t.Fatalf("cache hit must not re-persist, saved %d", len(store.saved))
	}
}

func TestAnalyzeHARMalformedPayload(t *testing.T) {
	svc := newTestService(t, &fakeStore{}, nil)
	if _, err := svc.AnalyzeHAR(context.Background(), []byte(`{"log": {"entries": []}}`)); err == nil {
		t.Fatal("expected error for empty archive")
	}
}

func TestAnalyzeHARStoreFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}
	svc := newTestService(t, store, nil)

	if _, err := svc.AnalyzeHAR(context.Background(), []byte(serviceHAR)); err != nil {
		t.Fatalf("persistence failure must not fail the analysis: %v", err)
	}
}

func TestRecurringFindings(t *testing.T) {
	store := &fakeStore{
		recent: []models.Report{
			{
				ReportID:  "r1",
				CreatedAt: time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC),
				Findings:  []models.Finding{{RuleID: "high-latency", Severity: models.SeverityWarning}},
			},
			{
				ReportID:  "r2",
				CreatedAt: time.Date(2024, 5, 14, 10, 0, 0, 0, time.UTC),
				Findings:  []models.Finding{{RuleID: "high-latency", Severity: models.SeverityWarning}},
			},
		},
	}
	svc := newTestService(t, store, nil)

	mined, err := svc.RecurringFindings(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mined) != 1 || mined[0].RuleID != "high-latency" || mined[0].Reports != 2 {
		t.Fatalf("unexpected mining result %+v", mined)
	}
}

func TestHistoryEndpointsRequireStore(t *testing.T) {
	svc := newTestService(t, nil, nil)
	if _, err := svc.ListReports(context.Background(), 10); err == nil {
		t.Fatal("expected error without configured store")
	}
	if _, err := svc.RecurringFindings(context.Background(), 10); err == nil {
		t.Fatal("expected error without configured store")
	}
}
