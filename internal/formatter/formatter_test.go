package formatter

import (
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/catalog"
	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/desertthunder/learnx/internal/store"
	th "github.com/desertthunder/learnx/internal/testing"
)

var fixedTime = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func sampleReport(t *testing.T) *Report {
	t.Helper()
	logger := log.New(io.Discard)
	progress := store.NewProgressStore(th.NewMemoryStorage(), logger)
	progress.MarkVideoComplete("dsa-1")
	progress.ToggleVideoStarred("dsa-2")
	progress.ToggleCourseStarred("graph-algorithms")

	user := &models.User{ID: "u1", Email: "ada@example.com", UserMetadata: map[string]any{"full_name": "Ada"}}
	return BuildReport(catalog.Embedded(logger), progress, user, fixedTime)
}

func TestBuildReport(t *testing.T) {
	report := sampleReport(t)

	if report.Learner != "Ada" {
		t.Errorf("expected learner Ada, got %q", report.Learner)
	}
	if len(report.Courses) != 3 {
		t.Fatalf("expected 3 courses, got %d", len(report.Courses))
	}

	dsa := report.Courses[0]
	if dsa.Progress.Completed != 1 || dsa.Progress.Total != 3 {
		t.Errorf("unexpected progress %+v", dsa.Progress)
	}
	if !dsa.Videos[0].Completed || !dsa.Videos[1].Starred {
		t.Errorf("unexpected video flags %+v", dsa.Videos)
	}
	if !report.Courses[1].Starred {
		t.Error("expected graph course starred")
	}
	if report.Stats.CompletedVideos != 1 {
		t.Errorf("unexpected stats %+v", report.Stats)
	}
}

func TestExporters(t *testing.T) {
	report := sampleReport(t)

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(report)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if lines[0] != "Course ID,Course,Video ID,Video,Completed,Starred" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if len(lines) != 7 {
			t.Errorf("expected header plus 6 video rows, got %d", len(lines))
		}
		if !strings.HasPrefix(lines[1], "dsa-foundations,") || !strings.HasSuffix(lines[1], ",true,false") {
			t.Errorf("unexpected first row %s", lines[1])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(report)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Learning Progress",
			"**Learner**: Ada",
			"**Generated**: 2025-01-02T03:04:05Z",
			"**Progress**: 1/3 (33%)",
			"- [x] [",
			"_No videos yet._",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q", want)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(report)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Completed: 1  Starred videos: 1  Starred courses: 1") {
			t.Errorf("Text missing stats, got: %s", output)
		}
		if !strings.Contains(output, "  1. [x] ") {
			t.Errorf("Text missing completed video line, got: %s", output)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := Export(report, FormatJSON)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		var decoded Report
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded.Courses) != 3 || !decoded.GeneratedAt.Equal(fixedTime) {
			t.Errorf("unexpected decoded report %+v", decoded)
		}
	})

	t.Run("Anonymous", func(t *testing.T) {
		logger := log.New(io.Discard)
		empty := BuildReport(catalog.Embedded(logger), store.NewProgressStore(th.NewMemoryStorage(), logger), nil, fixedTime)
		data, _ := ExportToMarkdown(empty)
		if strings.Contains(string(data), "Learner") {
			t.Error("expected no learner line without a user")
		}
	})
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
	}{
		{in: "csv", want: FormatCSV},
		{in: ".md", want: FormatMarkdown},
		{in: "Markdown", want: FormatMarkdown},
		{in: "txt", want: FormatText},
		{in: "", want: FormatText},
		{in: "json", want: FormatJSON},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil || got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
			}
		})
	}

	if _, err := ParseFormat("pdf"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestWriteExport(t *testing.T) {
	report := sampleReport(t)
	dir := t.TempDir()

	t.Run("Explicit Path", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "report.md")
		written, err := WriteExport(report, FormatMarkdown, path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		th.AssertFileExists(t, written)
		if !strings.Contains(th.MustReadFile(t, written), "# Learning Progress") {
			t.Error("unexpected file content")
		}
	})

	t.Run("Default Path", func(t *testing.T) {
		orig := th.MustGetwd(t)
		th.MustChdir(t, dir)
		defer th.MustChdir(t, orig)

		written, err := WriteExport(report, FormatCSV, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != "progress.csv" {
			t.Errorf("expected progress.csv, got %s", written)
		}
		th.AssertFileExists(t, filepath.Join(dir, "progress.csv"))
	})
}
