// package formatter exports learning progress reports as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/learnx/internal/catalog"
	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/desertthunder/learnx/internal/store"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// Extension returns the file extension used for f.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	}
	return ".txt"
}

// VideoReport is one video line of a report.
type VideoReport struct {
	models.Video
	Completed bool `json:"completed"`
	Starred   bool `json:"starred"`
}

// CourseReport is one course section of a report.
type CourseReport struct {
	Course   models.Course    `json:"course"`
	Starred  bool             `json:"starred"`
	Progress catalog.Progress `json:"progress"`
	Videos   []VideoReport    `json:"videos"`
}

// Report is a point in time view of progress across the catalog.
type Report struct {
	GeneratedAt time.Time           `json:"generatedAt"`
	Learner     string              `json:"learner,omitempty"`
	Stats       store.ProgressStats `json:"stats"`
	Courses     []CourseReport      `json:"courses"`
}

// BuildReport joins catalog content with progress. A nil user leaves the learner blank.
func BuildReport(c *catalog.Catalog, p *store.ProgressStore, user *models.User, now time.Time) *Report {
	report := &Report{GeneratedAt: now.UTC(), Stats: p.Stats()}
	if user != nil {
		report.Learner = user.DisplayName()
	}

	for _, course := range c.Courses() {
		cr := CourseReport{
			Course:   course,
			Starred:  p.IsCourseStarred(course.ID),
			Progress: c.CourseProgress(course.ID, p),
		}
		for _, v := range c.Videos(course.ID) {
			cr.Videos = append(cr.Videos, VideoReport{
				Video:     v,
				Completed: p.IsVideoCompleted(v.ID),
				Starred:   p.IsVideoStarred(v.ID),
			})
		}
		report.Courses = append(report.Courses, cr)
	}
	return report
}

// ExportToCSV writes one row per video with columns: Course ID, Course, Video ID, Video, Completed, Starred
func ExportToCSV(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Course ID", "Course", "Video ID", "Video", "Completed", "Starred"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, course := range report.Courses {
		for _, v := range course.Videos {
			record := []string{
				course.Course.ID,
				course.Course.Title,
				v.ID,
				v.Title,
				strconv.FormatBool(v.Completed),
				strconv.FormatBool(v.Starred),
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func star(starred bool) string {
	if starred {
		return " ★"
	}
	return ""
}

// ExportToMarkdown renders a report with a task list per course.
func ExportToMarkdown(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Learning Progress\n\n")
	if report.Learner != "" {
		buf.WriteString(fmt.Sprintf("**Learner**: %s\n", report.Learner))
	}
	buf.WriteString(fmt.Sprintf("**Generated**: %s\n", report.GeneratedAt.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("**Completed videos**: %d\n\n", report.Stats.CompletedVideos))

	for _, course := range report.Courses {
		buf.WriteString(fmt.Sprintf("## %s%s\n\n", course.Course.Title, star(course.Starred)))
		if course.Course.Difficulty != "" {
			buf.WriteString(fmt.Sprintf("**Difficulty**: %s\n", course.Course.Difficulty))
		}
		buf.WriteString(fmt.Sprintf("**Progress**: %d/%d (%d%%)\n\n",
			course.Progress.Completed, course.Progress.Total, course.Progress.Percent))

		if len(course.Videos) == 0 {
			buf.WriteString("_No videos yet._\n\n")
			continue
		}
		for _, v := range course.Videos {
			title := v.Title
			if v.YouTubeURL != "" {
				title = fmt.Sprintf("[%s](%s)", v.Title, v.YouTubeURL)
			}
			buf.WriteString(fmt.Sprintf("- %s %s%s\n", checkbox(v.Completed), title, star(v.Starred)))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText renders a compact plain text summary.
func ExportToText(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	if report.Learner != "" {
		buf.WriteString(fmt.Sprintf("Learner: %s\n", report.Learner))
	}
	buf.WriteString(fmt.Sprintf("Completed: %d  Starred videos: %d  Starred courses: %d\n\n",
		report.Stats.CompletedVideos, report.Stats.StarredVideos, report.Stats.StarredCourses))

	for _, course := range report.Courses {
		buf.WriteString(fmt.Sprintf("%s%s  %d/%d (%d%%)\n", course.Course.Title, star(course.Starred),
			course.Progress.Completed, course.Progress.Total, course.Progress.Percent))
		for i, v := range course.Videos {
			buf.WriteString(fmt.Sprintf("  %d. %s %s%s\n", i+1, checkbox(v.Completed), v.Title, star(v.Starred)))
		}
	}

	return buf.Bytes(), nil
}

// Export renders report in format.
func Export(report *Report, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(report)
	case FormatMarkdown:
		return ExportToMarkdown(report)
	case FormatJSON:
		return shared.MarshalJSON(report, true)
	default:
		return ExportToText(report)
	}
}

// WriteExport writes report to path, creating parent directories.
//
// An empty path defaults to progress{ext} in the working directory.
func WriteExport(report *Report, format Format, path string) (string, error) {
	if path == "" {
		path = "progress" + format.Extension()
	}

	data, err := Export(report, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
