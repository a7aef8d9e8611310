package lever

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/ats"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/domain"
	"github.com/danielnichiata96/RemoteJobsBR-sub000/internal/filter"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

type sinkCall struct {
	raw         *domain.RawPosting
	needsReview bool
}

type captureSink struct {
	mu    sync.Mutex
	calls map[string]sinkCall
}

func (s *captureSink) Process(ctx context.Context, raw *domain.RawPosting, region domain.HiringRegion, needsReview bool, src *domain.SourceDescriptor, log *logrus.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[raw.ProviderID] = sinkCall{raw: raw, needsReview: needsReview}
	return true, nil
}

func testFetcher(t *testing.T, baseURL string) (*Fetcher, *captureSink) {
	t.Helper()
	dir := t.TempDir()
	cfg := `{"LOCATION_KEYWORDS":{"STRONG_POSITIVE_LATAM":["latam","brazil"]}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lever-filter-config.json"), []byte(cfg), 0o644))

	sink := &captureSink{calls: map[string]sinkCall{}}
	f := New(&ats.Pipeline{Filters: filter.NewLoader(dir, testLogger()), Sink: sink}, nil)
	f.BaseURL = baseURL
	return f, sink
}

func leverSource() *domain.SourceDescriptor {
	return &domain.SourceDescriptor{
		ID:      3,
		Kind:    domain.KindLever,
		Name:    "initech",
		Config:  []byte(`{"companyIdentifier":"initech"}`),
		Enabled: true,
	}
}

const postingsJSON = `[
  {
    "id": "l1",
    "text": "Data Engineer",
    "createdAt": 1752192000000,
    "workplaceType": "Remote",
    "categories": {
      "location": "Remote - LATAM",
      "allLocations": ["Remote - LATAM", "Brazil"],
      "commitment": "Full-time",
      "team": "Data"
    },
    "description": "<p>Intro.</p>",
    "lists": [{"text": "What you will do", "content": "<li>Pipelines</li>"}],
    "additional": "<p>Closing.</p>",
    "tags": ["python", "sql"],
    "hostedUrl": "https://jobs.lever.co/initech/l1",
    "applyUrl": "https://jobs.lever.co/initech/l1/apply",
    "salaryRange": {"min": 60000, "max": 90000, "currency": "USD", "interval": "per-year-salary"}
  },
  {
    "id": "l2",
    "text": "Office Manager",
    "workplaceType": "Hybrid",
    "categories": {"location": "São Paulo, Brazil"}
  }
]`

func TestProcessFetchesAndMaps(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "mode=json", r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(postingsJSON))
	}))
	defer srv.Close()

	f, sink := testFetcher(t, srv.URL)
	res := f.Process(context.Background(), leverSource(), testLogger())

	assert.Equal(t, "/v0/postings/initech", gotPath)
	assert.True(t, res.FetchSucceeded)
	assert.Equal(t, domain.RunSuccess, res.Status())
	assert.Equal(t, 2, res.JobsFound)
	assert.Equal(t, 2, res.JobsRelevant)
	assert.Equal(t, 2, res.JobsProcessed)
	assert.Equal(t, []string{"l1", "l2"}, res.FoundProviderIDs)

	l1 := sink.calls["l1"]
	require.NotNil(t, l1.raw)
	assert.False(t, l1.needsReview)
	assert.Equal(t, "Data Engineer", l1.raw.Title)
	assert.Equal(t, "<p>Intro.</p><h3>What you will do</h3><ul><li>Pipelines</li></ul><p>Closing.</p>", l1.raw.DescriptionHTML)
	assert.Equal(t, "Remote - LATAM", l1.raw.LocationName)
	// The primary location is not repeated in the secondaries.
	assert.Equal(t, []string{"Brazil"}, l1.raw.SecondaryLocations)
	assert.Equal(t, "Full-time", l1.raw.EmploymentType)
	assert.Equal(t, []string{"python", "sql"}, l1.raw.SkillTags)
	require.NotNil(t, l1.raw.Remote)
	assert.True(t, *l1.raw.Remote)
	require.NotNil(t, l1.raw.PublishedAt)
	assert.Equal(t, time.Date(2025, 7, 11, 0, 0, 0, 0, time.UTC), l1.raw.PublishedAt.UTC())
	require.NotNil(t, l1.raw.Compensation)
	assert.Equal(t, int64(60000), l1.raw.Compensation.Min)

	// Hybrid postings stay in the feed but flagged for review.
	l2 := sink.calls["l2"]
	require.NotNil(t, l2.raw)
	assert.True(t, l2.needsReview)
}

func TestProcessConfigMissingIdentifier(t *testing.T) {
	f, _ := testFetcher(t, "http://unused.invalid")

	src := leverSource()
	src.Config = []byte(`{"companyIdentifier":""}`)
	res := f.Process(context.Background(), src, testLogger())

	assert.False(t, res.FetchSucceeded)
	assert.Equal(t, domain.RunFailure, res.Status())
	assert.Contains(t, res.ErrMsg, "companyIdentifier")
}

func TestProcessServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f, sink := testFetcher(t, srv.URL)
	res := f.Process(context.Background(), leverSource(), testLogger())

	assert.False(t, res.FetchSucceeded)
	assert.Contains(t, res.ErrMsg, "status 404")
	assert.Empty(t, sink.calls)
}
