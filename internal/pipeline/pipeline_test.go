package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spigell/cold-mailer/internal/fetch"
	"github.com/spigell/cold-mailer/internal/outreach"
	"github.com/spigell/cold-mailer/internal/portfolio"
	"github.com/spigell/cold-mailer/internal/vectorstore"
	"go.uber.org/zap"
)

const stubProse = "Dear hiring manager, we would love to help."

const twoJobsPage = `<html><body>
<section><h2>Backend Engineer</h2><p>5 years. Go, PostgreSQL, Docker.</p></section>
<section><h2>ML Engineer</h2><p>3 years. Python, TensorFlow.</p></section>
</body></html>`

// scriptedGenerator answers the extraction prompt with jobsJSON and every
// drafting prompt with stubProse, failing drafts whose prompt contains failOn.
type scriptedGenerator struct {
	mu       sync.Mutex
	jobsJSON string
	failOn   string
	prompts  []string
}

func (g *scriptedGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prompts = append(g.prompts, prompt)

	if strings.Contains(prompt, "### VALID JSON (NO PREAMBLE):") {
		return g.jobsJSON, nil
	}
	if g.failOn != "" && strings.Contains(prompt, g.failOn) {
		return "", errors.New("model overloaded")
	}
	return stubProse, nil
}

func (g *scriptedGenerator) Model() string { return "scripted" }

func newPageServer(t *testing.T, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newApp(t *testing.T, gen *scriptedGenerator, isolate bool) *App {
	t.Helper()

	collection, err := vectorstore.Open(context.Background(), vectorstore.Options{
		Dir:      t.TempDir(),
		Embedder: vectorstore.NewHashEmbedder(0),
	})
	if err != nil {
		t.Fatalf("open collection: %v", err)
	}
	t.Cleanup(func() { _ = collection.Close() })

	persona := outreach.Persona{Name: "Jordan", Title: "Executive", Company: "Northwind", Pitch: "a consultancy"}

	app, err := New(Deps{
		Fetcher:            fetch.New(nil, nil),
		Portfolio:          portfolio.New(collection, portfolio.Seed(), nil),
		Extractor:          outreach.NewExtractor(gen, nil, 0),
		Writer:             outreach.NewWriter(gen, persona, nil, 0),
		Logger:             zap.NewNop(),
		IsolateJobFailures: isolate,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	return app
}

func TestRunEndToEnd(t *testing.T) {
	srv := newPageServer(t, twoJobsPage)
	gen := &scriptedGenerator{jobsJSON: `[
		{"role":"Backend Engineer","experience":"5 years","skills":["Go","PostgreSQL","Docker"],"description":"APIs"},
		{"role":"ML Engineer","experience":"3 years","skills":["Machine Learning","Python","TensorFlow"],"description":"models"}
	]`}

	res, err := newApp(t, gen, false).Run(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(res.Drafts))
	}
	for i, d := range res.Drafts {
		if !strings.Contains(d.Email, stubProse) {
			t.Fatalf("draft %d does not contain the model prose: %q", i, d.Email)
		}
		if len(d.Links) > portfolio.MaxMatches {
			t.Fatalf("draft %d has %d links", i, len(d.Links))
		}
	}

	if res.Drafts[0].Job.Role != "Backend Engineer" || res.Drafts[1].Job.Role != "ML Engineer" {
		t.Fatalf("drafts out of order: %+v", res.Drafts)
	}
	if res.Drafts[1].Links[0] != "https://example.com/ml-python-portfolio" {
		t.Fatalf("expected ml portfolio for the ML job, got %v", res.Drafts[1].Links)
	}

	extractPrompt := gen.prompts[0]
	if !strings.Contains(extractPrompt, "Backend Engineer") || strings.Contains(extractPrompt, "<section>") {
		t.Fatalf("expected cleaned page text in extraction prompt:\n%s", extractPrompt)
	}
	if len(gen.prompts) != 3 {
		t.Fatalf("expected 1 extraction and 2 drafting calls, got %d", len(gen.prompts))
	}
}

func TestRunJobWithoutSkills(t *testing.T) {
	srv := newPageServer(t, twoJobsPage)
	gen := &scriptedGenerator{jobsJSON: `{"role":"Office Manager","experience":"2 years","description":"keeps things running"}`}

	res, err := newApp(t, gen, false).Run(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(res.Drafts))
	}
	if links := res.Drafts[0].Links; links == nil || len(links) != 0 {
		t.Fatalf("expected empty link list, got %#v", links)
	}
	if !strings.Contains(gen.prompts[1], "portfolio: []") {
		t.Fatalf("expected [] in drafting prompt:\n%s", gen.prompts[1])
	}
}

func TestRunZeroJobs(t *testing.T) {
	srv := newPageServer(t, twoJobsPage)
	gen := &scriptedGenerator{jobsJSON: `[]`}

	res, err := newApp(t, gen, false).Run(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Drafts) != 0 || len(gen.prompts) != 1 {
		t.Fatalf("expected no drafts and no drafting calls, got %d drafts, %d calls", len(res.Drafts), len(gen.prompts))
	}
}

func TestRunFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	gen := &scriptedGenerator{}
	_, err := newApp(t, gen, false).Run(context.Background(), srv.URL)

	var fetchErr *fetch.Error
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if len(gen.prompts) != 0 {
		t.Fatalf("model must not be called after a fetch failure")
	}
}

func TestRunExtractionParseError(t *testing.T) {
	srv := newPageServer(t, twoJobsPage)
	gen := &scriptedGenerator{jobsJSON: "Sorry, the page is too long."}

	_, err := newApp(t, gen, false).Run(context.Background(), srv.URL)

	var parseErr *outreach.ExtractionParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected extraction parse error, got %v", err)
	}
}

func TestRunGenerationFailure(t *testing.T) {
	jobs := `[
		{"role":"First","skills":["Go"]},
		{"role":"Second","skills":["Python"]},
		{"role":"Third","skills":["Docker"]}
	]`

	t.Run("aborts by default", func(t *testing.T) {
		gen := &scriptedGenerator{jobsJSON: jobs, failOn: `"role": "Second"`}
		res, err := newApp(t, gen, false).Run(context.Background(), newPageServer(t, twoJobsPage).URL)

		var genErr *outreach.GenerationError
		if !errors.As(err, &genErr) {
			t.Fatalf("expected generation error, got %v", err)
		}
		if res != nil {
			t.Fatalf("expected no result on abort")
		}
		if len(gen.prompts) != 3 {
			t.Fatalf("expected the third job to be skipped, got %d calls", len(gen.prompts))
		}
	})

	t.Run("isolated", func(t *testing.T) {
		gen := &scriptedGenerator{jobsJSON: jobs, failOn: `"role": "Second"`}
		res, err := newApp(t, gen, true).Run(context.Background(), newPageServer(t, twoJobsPage).URL)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if len(res.Drafts) != 2 || len(res.Failed) != 1 {
			t.Fatalf("expected 2 drafts and 1 failure, got %d and %d", len(res.Drafts), len(res.Failed))
		}
		if res.Failed[0].Job.Role != "Second" {
			t.Fatalf("unexpected failed job %+v", res.Failed[0].Job)
		}
	})
}

type staticFetcher struct {
	hadDeadline bool
}

func (f *staticFetcher) Page(ctx context.Context, url string) (*fetch.Result, error) {
	_, f.hadDeadline = ctx.Deadline()
	return &fetch.Result{URL: url, Text: "nothing"}, nil
}

type noopPortfolio struct{}

func (noopPortfolio) EnsureLoaded(context.Context) (int, error) { return 0, nil }
func (noopPortfolio) Match(context.Context, []string) []string  { return []string{} }

// deadlineGenerator records the time left on each model call.
type deadlineGenerator struct {
	scriptedGenerator
	left []time.Duration
}

func (g *deadlineGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		g.left = append(g.left, time.Until(deadline))
	} else {
		g.left = append(g.left, 0)
	}
	return g.scriptedGenerator.GenerateContent(ctx, prompt)
}

func TestRunAppliesTimeouts(t *testing.T) {
	fetcher := &staticFetcher{}
	gen := &deadlineGenerator{scriptedGenerator: scriptedGenerator{jobsJSON: `[]`}}

	app, err := New(Deps{
		Fetcher:    fetcher,
		Portfolio:  noopPortfolio{},
		Extractor:  outreach.NewExtractor(gen, nil, 0),
		Writer:     outreach.NewWriter(gen, outreach.Persona{}, nil, 0),
		LLMTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := app.Run(context.Background(), "https://example.com/careers"); err != nil {
		t.Fatalf("run: %v", err)
	}

	// the fetcher budgets the request and the browser separately
	if fetcher.hadDeadline {
		t.Fatalf("expected no shared deadline around the fetch")
	}
	if len(gen.left) != 1 || gen.left[0] <= 0 || gen.left[0] > 5*time.Second {
		t.Fatalf("expected extraction deadline within 5s, got %v", gen.left)
	}
}

func TestNewRequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}
