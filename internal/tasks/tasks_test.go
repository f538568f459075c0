package tasks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/catalog"
	"github.com/desertthunder/learnx/internal/shared"
	tu "github.com/desertthunder/learnx/internal/testing"
)

// fakeProber answers from a status table and counts calls.
type fakeProber struct {
	mu       sync.Mutex
	statuses map[string]int
	errs     map[string]error
	calls    int
}

func (p *fakeProber) Probe(_ context.Context, url string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err := p.errs[url]; err != nil {
		return 0, err
	}
	if status, ok := p.statuses[url]; ok {
		return status, nil
	}
	return http.StatusOK, nil
}

func quiet() *log.Logger { return log.New(io.Discard) }

func TestJobs(t *testing.T) {
	c := catalog.Embedded(quiet())

	t.Run("Single Course", func(t *testing.T) {
		jobs, err := Jobs(c, "dsa-foundations")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(jobs) != 5 {
			t.Fatalf("expected 5 links, got %d", len(jobs))
		}
		if jobs[0].Kind != LinkVideo || jobs[0].Probe != "https://img.youtube.com/vi/RBSGKlAvoiM/hqdefault.jpg" {
			t.Errorf("expected video probed through thumbnail, got %+v", jobs[0])
		}
		if jobs[1].Kind != LinkNotes || jobs[1].Probe != jobs[1].URL {
			t.Errorf("expected notes link, got %+v", jobs[1])
		}
	})

	t.Run("Whole Catalog", func(t *testing.T) {
		jobs, err := Jobs(c, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		single, _ := Jobs(c, "dsa-foundations")
		if len(jobs) <= len(single) {
			t.Errorf("expected more links across the catalog, got %d", len(jobs))
		}
	})

	t.Run("Unknown Course", func(t *testing.T) {
		if _, err := Jobs(c, "nope"); !errors.Is(err, shared.ErrCourseNotFound) {
			t.Errorf("expected ErrCourseNotFound, got %v", err)
		}
	})
}

func TestCheck(t *testing.T) {
	c := catalog.Embedded(quiet())
	jobs, _ := Jobs(c, "dsa-foundations")

	t.Run("Reports Broken Links In Order", func(t *testing.T) {
		prober := &fakeProber{
			statuses: map[string]int{"https://example.com/notes/arrays.pdf": http.StatusNotFound},
			errs:     map[string]error{"https://leetcode.com/problems/valid-parentheses/": errors.New("dial failed")},
		}
		checker := NewLinkChecker(prober, quiet())

		prog := make(chan ProgressUpdate, 20)
		report, err := checker.Check(context.Background(), prog, jobs, CheckOpts{NumWorkers: 3, RateLimit: 1000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(prog)

		if report.Checked != 5 || report.Broken != 2 {
			t.Errorf("expected 5 checked and 2 broken, got %d/%d", report.Checked, report.Broken)
		}
		for i, res := range report.Results {
			if res.URL != jobs[i].URL {
				t.Errorf("result %d out of order: %s", i, res.URL)
			}
		}

		broken := report.BrokenLinks()
		if len(broken) != 2 || broken[0].Status != http.StatusNotFound || broken[0].Error != "Not Found" {
			t.Errorf("unexpected broken links %+v", broken)
		}
		if !strings.Contains(broken[1].Error, "dial failed") {
			t.Errorf("expected probe error recorded, got %q", broken[1].Error)
		}

		updates := 0
		for u := range prog {
			updates++
			if updates == 1 && u.Phase != CollectLinks {
				t.Errorf("expected collect phase first, got %v", u.Phase)
			}
		}
		if updates != 6 {
			t.Errorf("expected 6 progress updates, got %d", updates)
		}
	})

	t.Run("Unrecognized YouTube Link", func(t *testing.T) {
		fsys := fstest.MapFS{
			"courses.json":   {Data: []byte(`{"courses":[{"id":"c1","title":"One"}]}`)},
			"videos/c1.json": {Data: []byte(`{"courseId":"c1","videos":[{"id":"v1","title":"Bad","youtubeUrl":"https://example.com/video"}]}`)},
		}
		jobs, _ := Jobs(catalog.Load(fsys, quiet()), "c1")

		prober := &fakeProber{}
		report, err := NewLinkChecker(prober, quiet()).Check(context.Background(), nil, jobs, CheckOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Broken != 1 || prober.calls != 0 {
			t.Errorf("expected an unprobed broken link, got %+v with %d calls", report, prober.calls)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report, err := NewLinkChecker(&fakeProber{}, quiet()).Check(ctx, nil, jobs, CheckOpts{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if report == nil || report.Checked > len(jobs) {
			t.Errorf("expected a partial report, got %+v", report)
		}
	})

	t.Run("Missing Prober", func(t *testing.T) {
		if _, err := NewLinkChecker(nil, quiet()).Check(context.Background(), nil, jobs, CheckOpts{}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestHTTPProber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusOK)
		case "/head-not-allowed":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	prober := HTTPProber{Client: srv.Client()}
	tc := []struct {
		path string
		want int
	}{
		{path: "/ok", want: http.StatusOK},
		{path: "/head-not-allowed", want: http.StatusOK},
		{path: "/missing", want: http.StatusNotFound},
	}

	for _, tt := range tc {
		t.Run(tt.path, func(t *testing.T) {
			status, err := prober.Probe(context.Background(), srv.URL+tt.path)
			if err != nil || status != tt.want {
				t.Errorf("Probe() = %d, %v, want %d", status, err, tt.want)
			}
		})
	}

	t.Run("Transport Error", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection reset"))}
		_, err := HTTPProber{Client: client}.Probe(context.Background(), "https://example.com/notes.pdf")
		if !errors.Is(err, shared.ErrServiceUnavailable) || !strings.Contains(err.Error(), "connection reset") {
			t.Errorf("expected wrapped transport error, got %v", err)
		}
	})

	t.Run("Mocked Status", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusGone, Body: io.NopCloser(strings.NewReader(""))}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		status, err := HTTPProber{Client: client}.Probe(context.Background(), "https://example.com/gone")
		if err != nil || status != http.StatusGone {
			t.Errorf("Probe() = %d, %v, want 410", status, err)
		}
	})

	t.Run("Unreachable", func(t *testing.T) {
		if _, err := prober.Probe(context.Background(), "http://127.0.0.1:1/x"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
