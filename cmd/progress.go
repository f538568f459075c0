package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/learnx/internal/catalog"
	"github.com/desertthunder/learnx/internal/formatter"
	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/desertthunder/learnx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// videoFromArg resolves the id argument against the catalog so unknown ids never reach progress.
func (r *Runner) videoFromArg(cmd *cli.Command) (models.Video, string, error) {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return models.Video{}, "", err
	}
	return r.Catalog().Video(id)
}

// VideosShow prints a video and, with --open, launches it in the browser.
func (r *Runner) VideosShow(ctx context.Context, cmd *cli.Command) error {
	v, courseID, err := r.videoFromArg(cmd)
	if err != nil {
		return err
	}
	progress, err := r.Progress()
	if err != nil {
		return err
	}

	row := videoRow{
		Video:     v,
		CourseID:  courseID,
		Completed: progress.IsVideoCompleted(v.ID),
		Starred:   progress.IsVideoStarred(v.ID),
		Thumbnail: catalog.ThumbnailURL(v.YouTubeURL),
	}

	if cmd.Bool("open") {
		if v.YouTubeURL == "" {
			return fmt.Errorf("%w: video %s has no YouTube link", shared.ErrInvalidArgument, v.ID)
		}
		if err := shared.OpenBrowser(v.YouTubeURL); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(row, cmd.Bool("pretty"))
	}

	r.writePlain("%s %s%s\n", doneMark(row.Completed), starMark(row.Starred), v.Title)
	r.writePlain("Course: %s\n", courseID)
	if v.YouTubeURL != "" {
		r.writePlain("Watch:  %s\n", v.YouTubeURL)
	}
	if v.NotesURL != "" {
		r.writePlain("Notes:  %s\n", v.NotesURL)
	}
	if v.CodingQuestionURL != "" {
		r.writePlain("Practice: %s\n", v.CodingQuestionURL)
	}
	return nil
}

// VideosComplete marks a video completed. Repeating it changes nothing.
func (r *Runner) VideosComplete(ctx context.Context, cmd *cli.Command) error {
	v, _, err := r.videoFromArg(cmd)
	if err != nil {
		return err
	}
	progress, err := r.Progress()
	if err != nil {
		return err
	}

	progress.MarkVideoComplete(v.ID)
	return r.writePlain("✓ Completed %s\n", v.Title)
}

// VideosIncomplete clears completion for a video.
func (r *Runner) VideosIncomplete(ctx context.Context, cmd *cli.Command) error {
	v, _, err := r.videoFromArg(cmd)
	if err != nil {
		return err
	}
	progress, err := r.Progress()
	if err != nil {
		return err
	}

	progress.MarkVideoIncomplete(v.ID)
	return r.writePlain("○ Marked %s as not completed\n", v.Title)
}

// VideosStar toggles the star on a video.
func (r *Runner) VideosStar(ctx context.Context, cmd *cli.Command) error {
	v, _, err := r.videoFromArg(cmd)
	if err != nil {
		return err
	}
	progress, err := r.Progress()
	if err != nil {
		return err
	}

	if progress.ToggleVideoStarred(v.ID) {
		return r.writePlain("★ Starred %s\n", v.Title)
	}
	return r.writePlain("☆ Unstarred %s\n", v.Title)
}

// VideosCheck probes every catalog link and lists the broken ones.
func (r *Runner) VideosCheck(ctx context.Context, cmd *cli.Command) error {
	jobs, err := tasks.Jobs(r.Catalog(), cmd.String("course"))
	if err != nil {
		return err
	}

	checker := tasks.NewLinkChecker(tasks.HTTPProber{Client: r.httpClient}, r.logger)

	prog := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.logger.Debug(update.Message, "phase", update.Phase)
		}
	}()

	report, err := checker.Check(ctx, prog, jobs, tasks.CheckOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(prog)
	<-done
	if err != nil {
		return fmt.Errorf("link check interrupted: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Link Check")
	r.writePlain("Checked: %d  Broken: %d  (%s)\n", report.Checked, report.Broken, report.Duration.Round(time.Millisecond))
	for _, res := range report.BrokenLinks() {
		r.writePlain("✗ %s / %s [%s] %s: %s\n", res.CourseID, res.VideoID, res.Kind, res.URL, res.Error)
	}
	return nil
}

// ProgressStats prints set sizes.
func (r *Runner) ProgressStats(ctx context.Context, cmd *cli.Command) error {
	progress, err := r.Progress()
	if err != nil {
		return err
	}

	stats := progress.Stats()
	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	r.writePlain("Completed videos: %d\n", stats.CompletedVideos)
	r.writePlain("Starred videos:   %d\n", stats.StarredVideos)
	r.writePlain("Starred courses:  %d\n", stats.StarredCourses)
	return nil
}

// ProgressExport renders a report to stdout or a file.
//
// The learner name is included when a saved session exists; auth is never required.
func (r *Runner) ProgressExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	progress, err := r.Progress()
	if err != nil {
		return err
	}

	var user *models.User
	if r.config.Auth.Configured() {
		if sessions, err := r.Sessions(ctx); err == nil {
			user = sessions.User()
		}
	}

	report := formatter.BuildReport(r.Catalog(), progress, user, time.Now())

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteExport(report, format, output)
		if err != nil {
			return err
		}
		r.logger.Info("progress exported", "path", path, "format", format)
		return r.writePlain("✓ Progress exported to %s\n", path)
	}

	data, err := formatter.Export(report, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// ProgressReset forgets all progress after confirmation.
func (r *Runner) ProgressReset(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		if !r.interactive() {
			return fmt.Errorf("%w: pass --yes to reset without a prompt", shared.ErrMissingArgument)
		}
		ok, err := r.prompter.Confirm("Forget all completed and starred items on this device?", false)
		if err != nil {
			return err
		}
		if !ok {
			return r.writePlain("Cancelled\n")
		}
	}

	progress, err := r.Progress()
	if err != nil {
		return err
	}
	progress.Reset()
	return r.writePlain("✓ Progress reset\n")
}

// StorageList prints the keys held in the local database.
func (r *Runner) StorageList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.Storage(); err != nil {
		return err
	}
	if r.repo == nil {
		return fmt.Errorf("%w: storage is not database backed", shared.ErrNotImplemented)
	}

	entries, err := r.repo.List()
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	if len(entries) == 0 {
		return r.writePlain("Storage is empty\n")
	}
	for _, e := range entries {
		r.writePlain("%-20s %6d bytes  %s\n", e.Key, e.Size, e.UpdatedAt.Local().Format(time.DateTime))
	}
	return nil
}
