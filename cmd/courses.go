package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/learnx/internal/catalog"
	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/urfave/cli/v3"
)

// courseRow is the JSON form of a course in `courses list`.
type courseRow struct {
	models.Course
	Starred  bool             `json:"starred"`
	Progress catalog.Progress `json:"progress"`
}

// videoRow is the JSON form of a video in `courses show` and `videos show`.
type videoRow struct {
	models.Video
	CourseID  string `json:"courseId"`
	Completed bool   `json:"completed"`
	Starred   bool   `json:"starred"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

func starMark(starred bool) string {
	if starred {
		return "★ "
	}
	return "  "
}

func doneMark(done bool) string {
	if done {
		return "✓"
	}
	return "○"
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// CoursesList prints every course with completion and star state.
func (r *Runner) CoursesList(ctx context.Context, cmd *cli.Command) error {
	progress, err := r.Progress()
	if err != nil {
		return err
	}
	cat := r.Catalog()

	var difficulty models.Difficulty
	if d := cmd.String("difficulty"); d != "" {
		parsed, ok := models.ParseDifficulty(d)
		if !ok {
			return fmt.Errorf("%w: difficulty %q", shared.ErrInvalidFlag, d)
		}
		difficulty = parsed
	}

	rows := []courseRow{}
	for _, c := range cat.Courses() {
		starred := progress.IsCourseStarred(c.ID)
		if cmd.Bool("starred") && !starred {
			continue
		}
		if difficulty != "" && c.Difficulty != difficulty {
			continue
		}
		rows = append(rows, courseRow{Course: c, Starred: starred, Progress: cat.CourseProgress(c.ID, progress)})
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(rows) == 0 {
		return r.writePlain("No courses found\n")
	}
	for _, row := range rows {
		r.writePlain("%s%-32s %-13s %d/%d (%d%%)  [%s]\n", starMark(row.Starred), row.Title, row.Difficulty,
			row.Progress.Completed, row.Progress.Total, row.Progress.Percent, row.ID)
	}
	return nil
}

// CoursesShow prints a course and its videos.
func (r *Runner) CoursesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	progress, err := r.Progress()
	if err != nil {
		return err
	}
	cat := r.Catalog()

	course, err := cat.Course(id)
	if err != nil {
		return err
	}

	videos := []videoRow{}
	for _, v := range cat.Videos(course.ID) {
		videos = append(videos, videoRow{
			Video:     v,
			CourseID:  course.ID,
			Completed: progress.IsVideoCompleted(v.ID),
			Starred:   progress.IsVideoStarred(v.ID),
			Thumbnail: catalog.ThumbnailURL(v.YouTubeURL),
		})
	}
	p := cat.CourseProgress(course.ID, progress)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"course": courseRow{Course: course, Starred: progress.IsCourseStarred(course.ID), Progress: p},
			"videos": videos,
		}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(starMark(progress.IsCourseStarred(course.ID)) + course.Title)
	if course.Description != "" {
		r.writePlain("%s\n", course.Description)
	}
	if course.Difficulty != "" {
		r.writePlain("Difficulty: %s\n", course.Difficulty)
	}
	r.writePlain("Progress:   %d/%d (%d%%)\n\n", p.Completed, p.Total, p.Percent)

	if len(videos) == 0 {
		return r.writePlain("No videos available for this course yet.\n")
	}
	for i, v := range videos {
		r.writePlain("%2d. %s %s%s  [%s]\n", i+1, doneMark(v.Completed), starMark(v.Starred), v.Title, v.ID)
	}
	return nil
}

// CoursesSearch matches the query against course and video titles.
func (r *Runner) CoursesSearch(ctx context.Context, cmd *cli.Command) error {
	query, err := requireArg(cmd, "query")
	if err != nil {
		return err
	}

	results := r.Catalog().Search(query)
	if cmd.Bool("json") {
		if results == nil {
			results = []catalog.Result{}
		}
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	if len(results) == 0 {
		return r.writePlain("No matches for %q\n", query)
	}
	for _, res := range results {
		switch res.Kind {
		case catalog.ResultCourse:
			r.writePlain("course  %-40s [%s]\n", res.Course.Title, res.Course.ID)
		case catalog.ResultVideo:
			r.writePlain("video   %-40s [%s] in %s\n", res.Video.Title, res.Video.ID, res.Course.Title)
		}
	}
	return nil
}

// CoursesStar toggles the star on a course.
func (r *Runner) CoursesStar(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	course, err := r.Catalog().Course(id)
	if err != nil {
		return err
	}
	progress, err := r.Progress()
	if err != nil {
		return err
	}

	if progress.ToggleCourseStarred(course.ID) {
		return r.writePlain("★ Starred %s\n", course.Title)
	}
	return r.writePlain("☆ Unstarred %s\n", course.Title)
}

// CoursesAnnouncements prints the active announcements.
func (r *Runner) CoursesAnnouncements(ctx context.Context, cmd *cli.Command) error {
	items := r.Catalog().ActiveAnnouncements()
	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	if len(items) == 0 {
		return r.writePlain("No announcements\n")
	}
	for _, a := range items {
		if a.Type == models.AnnouncementQuote && a.Author != "" {
			r.writePlain("“%s” - %s\n", a.Content, a.Author)
			continue
		}
		r.writePlain("• %s\n", a.Content)
	}
	return nil
}
