package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/catalog"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/desertthunder/learnx/internal/store"
	tu "github.com/desertthunder/learnx/internal/testing"
	"github.com/urfave/cli/v3"
)

// scriptedPrompter answers prompts from fixed values and records the titles it was asked.
type scriptedPrompter struct {
	inputs  []string
	confirm bool
	asked   []string
}

func (p *scriptedPrompter) Input(title, _ string, _ bool) (string, error) {
	p.asked = append(p.asked, title)
	if len(p.inputs) == 0 {
		return "", errors.New("no scripted input left")
	}
	v := p.inputs[0]
	p.inputs = p.inputs[1:]
	return v, nil
}

func (p *scriptedPrompter) Confirm(title string, _ bool) (bool, error) {
	p.asked = append(p.asked, title)
	return p.confirm, nil
}

func (p *scriptedPrompter) Select(title string, options []string) (string, error) {
	p.asked = append(p.asked, title)
	return options[0], nil
}

type fixture struct {
	runner  *Runner
	output  *bytes.Buffer
	auth    *tu.FakeAuthService
	storage *tu.MemoryStorage
	prompt  *scriptedPrompter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := log.New(io.Discard)
	f := &fixture{
		output:  &bytes.Buffer{},
		auth:    tu.NewFakeAuthService(),
		storage: tu.NewMemoryStorage(),
		prompt:  &scriptedPrompter{},
	}
	f.runner = NewRunner(RunnerOpts{
		Config:     shared.DefaultConfig(),
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Auth:       f.auth,
		Storage:    f.storage,
		Catalog:    catalog.Embedded(logger),
		Logger:     logger,
		Output:     f.output,
		Prompter:   f.prompt,
	})
	t.Cleanup(f.runner.Close)
	return f
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	f.output.Reset()
	app := &cli.Command{Name: "learnx", Commands: f.runner.register()}
	return app.Run(context.Background(), append([]string{"learnx"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			auth := tu.NewFakeAuthService()
			storage := tu.NewMemoryStorage()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Auth:       auth,
				Storage:    storage,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.auth != auth {
				t.Error("expected auth to be set")
			}
			if runner.storage != storage {
				t.Error("expected storage to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected stdout output")
			}
			if runner.httpClient == nil || runner.httpClient.Timeout != runner.config.Auth.Timeout {
				t.Error("expected http client with the auth timeout")
			}
			if _, ok := runner.prompter.(huhPrompter); !ok {
				t.Error("expected huh prompter")
			}
			if runner.validator == nil {
				t.Error("expected validator")
			}
		})

		t.Run("auth requires configuration", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: shared.DefaultConfig()})
			runner.config.Auth.URL = ""

			if _, err := runner.Auth(); !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeJSON(map[string]int{"n": 1}, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if output.String() != "{\"n\":1}\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("writeJSON write failures", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := runner.writeJSON(map[string]int{"n": 1}, false); err == nil {
			t.Error("expected error from failing writer")
		}

		limited := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
		runner = NewRunner(RunnerOpts{Output: &limited})
		err := runner.writeJSON(map[string]int{"n": 1}, false)
		if err == nil || !strings.Contains(err.Error(), "newline") {
			t.Errorf("expected newline write failure, got %v", err)
		}
	})

	t.Run("Catalog from content dir", func(t *testing.T) {
		dir := t.TempDir()
		tu.MustWriteFile(t, filepath.Join(dir, "courses.json"), `{"courses":[{"id":"go-101","title":"Go Basics","difficulty":"beginner"}]}`)
		tu.MustWriteFile(t, filepath.Join(dir, "videos", "go-101.json"), `{"courseId":"go-101","videos":[{"id":"go-1","title":"Hello"}]}`)

		config := shared.DefaultConfig()
		config.Content.Dir = dir
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Storage: tu.NewMemoryStorage(), Logger: log.New(io.Discard), Output: output})

		app := &cli.Command{Name: "learnx", Commands: runner.register()}
		if err := app.Run(context.Background(), []string{"learnx", "courses", "list", "--json"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var rows []courseRow
		if err := json.Unmarshal(output.Bytes(), &rows); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(rows) != 1 || rows[0].ID != "go-101" || rows[0].Progress.Total != 1 {
			t.Errorf("expected the directory catalog, got %+v", rows)
		}
	})

	t.Run("Sessions bootstraps once", func(t *testing.T) {
		f := newFixture(t)
		f.auth.Current = tu.FakeSession("user-1", "a@b.com")

		first, err := f.runner.Sessions(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, _ := f.runner.Sessions(context.Background())
		if first != second {
			t.Error("expected the same store")
		}
		if first.User() == nil || first.User().ID != "user-1" {
			t.Errorf("expected restored user, got %+v", first.User())
		}

		gets := 0
		for _, call := range f.auth.Calls() {
			if call == "GetSession" {
				gets++
			}
		}
		if gets != 1 {
			t.Errorf("expected one GetSession call, got %d", gets)
		}
	})
}

func TestCourseCommands(t *testing.T) {
	t.Run("List JSON", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "courses", "list", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var rows []courseRow
		if err := json.Unmarshal(f.output.Bytes(), &rows); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(rows) != 3 || rows[0].ID != "dsa-foundations" {
			t.Errorf("unexpected rows %+v", rows)
		}
	})

	t.Run("Star And Filter", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "courses", "star", "graph-algorithms"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := f.run(t, "courses", "list", "--starred", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var rows []courseRow
		json.Unmarshal(f.output.Bytes(), &rows)
		if len(rows) != 1 || rows[0].ID != "graph-algorithms" || !rows[0].Starred {
			t.Errorf("expected only the starred course, got %+v", rows)
		}
	})

	t.Run("Unknown Course", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "courses", "star", "nope"); !errors.Is(err, shared.ErrCourseNotFound) {
			t.Errorf("expected ErrCourseNotFound, got %v", err)
		}
		if f.storage.Writes() != 0 {
			t.Error("unknown ids must not be recorded")
		}
	})

	t.Run("Search", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "courses", "search", "graph"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "Graph") {
			t.Errorf("expected graph results, got %q", f.output.String())
		}
	})
}

func TestVideoCommands(t *testing.T) {
	t.Run("Complete Updates Progress", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "videos", "complete", "dsa-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		progress, _ := f.runner.Progress()
		if !progress.IsVideoCompleted("dsa-1") {
			t.Error("expected dsa-1 completed")
		}
		if f.storage.Raw(store.ProgressKey) == "" {
			t.Error("expected progress to be persisted")
		}

		if err := f.run(t, "videos", "incomplete", "dsa-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if progress.IsVideoCompleted("dsa-1") {
			t.Error("expected dsa-1 incomplete")
		}
	})

	t.Run("Star Toggles", func(t *testing.T) {
		f := newFixture(t)
		f.run(t, "videos", "star", "graph-2")
		if !strings.Contains(f.output.String(), "Starred") {
			t.Errorf("unexpected output %q", f.output.String())
		}
		f.run(t, "videos", "star", "graph-2")
		if !strings.Contains(f.output.String(), "Unstarred") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})

	t.Run("Show JSON", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "videos", "show", "--json", "graph-2"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var row videoRow
		if err := json.Unmarshal(f.output.Bytes(), &row); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if row.CourseID != "graph-algorithms" || row.Completed {
			t.Errorf("unexpected row %+v", row)
		}
	})

	t.Run("Unknown Video", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "videos", "complete", "nope"); !errors.Is(err, shared.ErrVideoNotFound) {
			t.Errorf("expected ErrVideoNotFound, got %v", err)
		}
	})

	t.Run("Missing Argument", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "videos", "complete"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestProgressCommands(t *testing.T) {
	t.Run("Stats", func(t *testing.T) {
		f := newFixture(t)
		f.run(t, "videos", "complete", "dsa-1")
		f.run(t, "courses", "star", "dsa-foundations")

		if err := f.run(t, "progress", "stats", "--json"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var stats store.ProgressStats
		json.Unmarshal(f.output.Bytes(), &stats)
		if stats != (store.ProgressStats{CompletedVideos: 1, StarredCourses: 1}) {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("Export To File", func(t *testing.T) {
		f := newFixture(t)
		f.run(t, "videos", "complete", "dsa-1")

		path := filepath.Join(t.TempDir(), "out.md")
		if err := f.run(t, "progress", "export", "--format", "markdown", "--output", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected export file: %v", err)
		}
		if !strings.Contains(string(data), "# Learning Progress") {
			t.Errorf("unexpected export %q", string(data))
		}
	})

	t.Run("Export To Stdout", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "progress", "export", "--format", "csv"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(f.output.String(), "Course ID,Course,Video ID,Video,Completed,Starred") {
			t.Errorf("unexpected CSV %q", f.output.String())
		}
	})

	t.Run("Export Unknown Format", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "progress", "export", "--format", "pdf"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("Reset Declined", func(t *testing.T) {
		f := newFixture(t)
		f.run(t, "videos", "complete", "dsa-1")
		f.prompt.confirm = false

		if err := f.run(t, "progress", "reset"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		progress, _ := f.runner.Progress()
		if !progress.IsVideoCompleted("dsa-1") {
			t.Error("declined reset must keep progress")
		}
	})

	t.Run("Reset Confirmed", func(t *testing.T) {
		f := newFixture(t)
		f.run(t, "videos", "complete", "dsa-1")

		if err := f.run(t, "progress", "reset", "--yes"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		progress, _ := f.runner.Progress()
		if progress.Stats() != (store.ProgressStats{}) {
			t.Error("expected empty progress")
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("Login With Flags", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "auth", "login", "--email", "a@b.com", "--password", "secret1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "Signed in as User user-1 (a@b.com)") {
			t.Errorf("unexpected output %q", f.output.String())
		}
		if f.storage.Raw(store.SessionKey) == "" {
			t.Error("expected session to be persisted")
		}
	})

	t.Run("Login Prompts For Missing Values", func(t *testing.T) {
		f := newFixture(t)
		f.prompt.inputs = []string{"a@b.com", "secret1"}

		if err := f.run(t, "auth", "login"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(f.prompt.asked) != 2 {
			t.Errorf("expected two prompts, got %v", f.prompt.asked)
		}
	})

	t.Run("Login Validation Skips Remote Call", func(t *testing.T) {
		f := newFixture(t)
		f.prompt.inputs = []string{"", ""}

		err := f.run(t, "auth", "login")
		if !shared.IsKind(err, shared.KindValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
		for _, call := range f.auth.Calls() {
			if call == "SignInWithPassword" {
				t.Error("invalid input must not reach the auth service")
			}
		}
	})

	t.Run("Login Failure", func(t *testing.T) {
		f := newFixture(t)
		f.auth.SignInErr = shared.NewAuthError(shared.KindUnauthorized, "Invalid login credentials", nil)

		err := f.run(t, "auth", "login", "--email", "a@b.com", "--password", "wrong-pass")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected unauthorized error, got %v", err)
		}
	})

	t.Run("Status And Logout", func(t *testing.T) {
		f := newFixture(t)
		f.auth.Current = tu.FakeSession("user-1", "a@b.com")

		if err := f.run(t, "auth", "status"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "Signed in as") {
			t.Errorf("unexpected status %q", f.output.String())
		}

		if err := f.run(t, "auth", "logout"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "Signed out") {
			t.Errorf("unexpected output %q", f.output.String())
		}

		if err := f.run(t, "auth", "status"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "Not signed in") {
			t.Errorf("unexpected status %q", f.output.String())
		}
	})

	t.Run("Profile Requires Session", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "auth", "profile"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Profile Avatar Only Keeps Name Unset", func(t *testing.T) {
		f := newFixture(t)
		session := tu.FakeSession("user-1", "ada@b.com")
		session.User.UserMetadata = map[string]any{}
		f.auth.Current = session

		if err := f.run(t, "auth", "profile", "--avatar", "https://example.com/a.png"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sent := f.auth.LastMetadata()
		if _, ok := sent["full_name"]; ok {
			t.Errorf("full_name must not be sent when --name is absent, got %v", sent)
		}
		if sent["avatar_url"] != "https://example.com/a.png" {
			t.Errorf("expected avatar in patch, got %v", sent)
		}
	})

	t.Run("Profile Name", func(t *testing.T) {
		f := newFixture(t)
		f.auth.Current = tu.FakeSession("user-1", "a@b.com")

		if err := f.run(t, "auth", "profile", "--name", " Ada "); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sent := f.auth.LastMetadata()
		if len(sent) != 1 || sent["full_name"] != "Ada" {
			t.Errorf("expected only the trimmed name, got %v", sent)
		}
	})

	t.Run("Reset Password", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "auth", "reset", "--email", " a@b.com "); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "a@b.com") {
			t.Errorf("unexpected output %q", f.output.String())
		}
	})
}

func TestSetupConfig(t *testing.T) {
	f := newFixture(t)

	if err := f.run(t, "setup", "config", "--url", "https://demo.supabase.co", "--anon-key", "anon"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	config, err := shared.LoadConfig(f.runner.configPath)
	if err != nil {
		t.Fatalf("expected saved config: %v", err)
	}
	if config.Auth.URL != "https://demo.supabase.co" || config.Auth.AnonKey != "anon" {
		t.Errorf("unexpected auth config %+v", config.Auth)
	}
}
