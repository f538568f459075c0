package tasks

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/catalog"
	"github.com/desertthunder/learnx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 5.0
)

// LinkKind names which link of a video is being checked.
type LinkKind string

const (
	LinkVideo    LinkKind = "video"
	LinkNotes    LinkKind = "notes"
	LinkPractice LinkKind = "practice"
)

// LinkJob is a single URL to probe.
type LinkJob struct {
	CourseID string   `json:"courseId"`
	VideoID  string   `json:"videoId"`
	Title    string   `json:"title"`
	Kind     LinkKind `json:"kind"`
	URL      string   `json:"url"`
	// Probe is the URL actually requested. It differs from URL for YouTube videos.
	Probe string `json:"-"`
}

// LinkResult is the outcome of probing a [LinkJob].
type LinkResult struct {
	LinkJob
	Status int    `json:"status,omitempty"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// CheckReport summarizes a link check. Results keep catalog order.
type CheckReport struct {
	Checked  int           `json:"checked"`
	Broken   int           `json:"broken"`
	Duration time.Duration `json:"duration"`
	Results  []LinkResult  `json:"results"`
}

// BrokenLinks returns only the failed results.
func (r *CheckReport) BrokenLinks() []LinkResult {
	broken := []LinkResult{}
	for _, res := range r.Results {
		if !res.OK {
			broken = append(broken, res)
		}
	}
	return broken
}

// CheckOpts configures [LinkChecker.Check].
type CheckOpts struct {
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Requests per second (default: 5)
}

// Prober requests a URL and reports the HTTP status.
type Prober interface {
	Probe(ctx context.Context, url string) (int, error)
}

// HTTPProber probes with HEAD, retrying with GET when the host rejects HEAD.
type HTTPProber struct {
	Client *http.Client
}

func (p HTTPProber) Probe(ctx context.Context, url string) (int, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	status, err := p.do(ctx, client, http.MethodHead, url)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = p.do(ctx, client, http.MethodGet, url)
	}
	return status, err
}

func (HTTPProber) do(ctx context.Context, client *http.Client, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// LinkChecker probes catalog links concurrently.
type LinkChecker struct {
	prober Prober
	logger *log.Logger
}

func NewLinkChecker(prober Prober, logger *log.Logger) *LinkChecker {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LinkChecker{prober: prober, logger: shared.WithLogger(logger, "task", "links")}
}

// Jobs lists the links of every video in courseID, or of the whole catalog when courseID is empty.
func Jobs(c *catalog.Catalog, courseID string) ([]LinkJob, error) {
	var courseIDs []string
	if courseID != "" {
		course, err := c.Course(courseID)
		if err != nil {
			return nil, err
		}
		courseIDs = []string{course.ID}
	} else {
		for _, course := range c.Courses() {
			courseIDs = append(courseIDs, course.ID)
		}
	}

	jobs := []LinkJob{}
	for _, id := range courseIDs {
		for _, v := range c.Videos(id) {
			base := LinkJob{CourseID: id, VideoID: v.ID, Title: v.Title}
			if v.YouTubeURL != "" {
				job := base
				job.Kind, job.URL, job.Probe = LinkVideo, v.YouTubeURL, catalog.ThumbnailURL(v.YouTubeURL)
				jobs = append(jobs, job)
			}
			if v.NotesURL != "" {
				job := base
				job.Kind, job.URL, job.Probe = LinkNotes, v.NotesURL, v.NotesURL
				jobs = append(jobs, job)
			}
			if v.CodingQuestionURL != "" {
				job := base
				job.Kind, job.URL, job.Probe = LinkPractice, v.CodingQuestionURL, v.CodingQuestionURL
				jobs = append(jobs, job)
			}
		}
	}
	return jobs, nil
}

type indexedJob struct {
	index int
	job   LinkJob
}

type indexedResult struct {
	index  int
	result LinkResult
}

// Check probes jobs with a worker pool and rate limiter.
//
// Individual failures are recorded on the report. The returned error is non-nil only when ctx is
// cancelled, in which case the partial report is still returned.
func (c *LinkChecker) Check(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	jobs []LinkJob,
	opts CheckOpts,
) (*CheckReport, error) {
	if c.prober == nil {
		return nil, fmt.Errorf("%w: prober not initialized", shared.ErrServiceUnavailable)
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	start := time.Now()
	sendProgress(prog, collectedUpdate(len(jobs)))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	queue := make(chan indexedJob, len(jobs))
	results := make(chan indexedResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go c.worker(ctx, &wg, limiter, queue, results)
	}

	go func() {
		defer close(queue)
		for i, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case queue <- indexedJob{index: i, job: job}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]indexedResult, 0, len(jobs))
	report := &CheckReport{}
	for res := range results {
		collected = append(collected, res)
		report.Checked++
		if res.result.OK {
			sendProgress(prog, linkOKUpdate(report.Checked, len(jobs), res.result))
		} else {
			report.Broken++
			c.logger.Warn("broken link", "video", res.result.VideoID, "kind", res.result.Kind, "url", res.result.URL, "error", res.result.Error)
			sendProgress(prog, linkBrokenUpdate(report.Checked, len(jobs), res.result))
		}
	}

	slices.SortFunc(collected, func(a, b indexedResult) int { return a.index - b.index })
	report.Results = make([]LinkResult, 0, len(collected))
	for _, res := range collected {
		report.Results = append(report.Results, res.result)
	}
	report.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (c *LinkChecker) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	queue <-chan indexedJob,
	results chan<- indexedResult,
) {
	defer wg.Done()

	for item := range queue {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		results <- indexedResult{index: item.index, result: c.probe(ctx, item.job)}
	}
}

func (c *LinkChecker) probe(ctx context.Context, job LinkJob) LinkResult {
	res := LinkResult{LinkJob: job}
	if job.Probe == "" {
		res.Error = "not a recognizable YouTube link"
		return res
	}

	status, err := c.prober.Probe(ctx, job.Probe)
	res.Status = status
	switch {
	case err != nil:
		res.Error = err.Error()
	case status >= 200 && status < 400:
		res.OK = true
	default:
		res.Error = http.StatusText(status)
		if res.Error == "" {
			res.Error = fmt.Sprintf("status %d", status)
		}
	}
	return res
}
