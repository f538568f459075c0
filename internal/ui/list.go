package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/learnx/internal/catalog"
	"github.com/desertthunder/learnx/internal/models"
)

var (
	_ list.Item = courseItem{}
	_ list.Item = videoItem{}
)

// courseItem wraps [models.Course] to implement [list.Item].
type courseItem struct {
	course   models.Course
	progress catalog.Progress
	starred  bool
}

func (i courseItem) FilterValue() string { return i.course.Title }
func (i courseItem) Title() string {
	if i.starred {
		return i.course.Title + " ★"
	}
	return i.course.Title
}
func (i courseItem) Description() string {
	parts := []string{}
	if i.course.Difficulty != "" {
		parts = append(parts, string(i.course.Difficulty))
	}
	if i.progress.Total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d videos (%d%%)", i.progress.Completed, i.progress.Total, i.progress.Percent))
	} else {
		parts = append(parts, "no videos yet")
	}
	return strings.Join(parts, " • ")
}

// videoItem wraps [models.Video] to implement [list.Item].
type videoItem struct {
	video     models.Video
	completed bool
	starred   bool
}

func (i videoItem) FilterValue() string { return i.video.Title }
func (i videoItem) Title() string {
	mark := "○"
	if i.completed {
		mark = "✓"
	}
	title := fmt.Sprintf("%s %s", mark, i.video.Title)
	if i.starred {
		title += " ★"
	}
	return title
}
func (i videoItem) Description() string {
	parts := []string{}
	if i.video.Type != "" {
		parts = append(parts, i.video.Type)
	}
	if id, ok := catalog.YouTubeID(i.video.YouTubeURL); ok {
		parts = append(parts, "youtube:"+id)
	}
	if i.video.NotesURL != "" {
		parts = append(parts, "notes")
	}
	return strings.Join(parts, " • ")
}
