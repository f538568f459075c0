package catalog

import (
	"strings"

	"github.com/desertthunder/learnx/internal/models"
)

// ResultKind distinguishes course hits from video hits.
type ResultKind string

const (
	ResultCourse ResultKind = "course"
	ResultVideo  ResultKind = "video"
)

// Result is one search hit. Video is set only for [ResultVideo].
type Result struct {
	Kind   ResultKind    `json:"kind"`
	Course models.Course `json:"course"`
	Video  *models.Video `json:"video,omitempty"`
}

// Search does a case-insensitive substring match over course titles and descriptions
// (both languages) and video titles. Results keep manifest order with each course before its videos.
func (c *Catalog) Search(query string) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var results []Result
	for _, course := range c.courses {
		if matches(q, course.Title, course.Description, course.TitleKN, course.DescriptionKN) {
			results = append(results, Result{Kind: ResultCourse, Course: course})
		}
		for _, v := range c.videos[course.ID] {
			if matches(q, v.Title) {
				video := v
				results = append(results, Result{Kind: ResultVideo, Course: course, Video: &video})
			}
		}
	}
	return results
}

func matches(q string, fields ...string) bool {
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
