package models

import "strings"

// Difficulty of a course.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Difficulties lists the known levels in ascending order.
var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// ParseDifficulty matches s case-insensitively. Unknown values report false.
func ParseDifficulty(s string) (Difficulty, bool) {
	s = strings.TrimSpace(s)
	for _, known := range Difficulties {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// Course is a catalog entry grouping videos.
type Course struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Thumbnail     string     `json:"thumbnail,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	TitleKN       string     `json:"title_kn,omitempty"`
	DescriptionKN string     `json:"description_kn,omitempty"`
}

// Video is a single lesson inside a course.
type Video struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Type              string `json:"type,omitempty"`
	YouTubeURL        string `json:"youtubeUrl,omitempty"`
	NotesURL          string `json:"notesUrl,omitempty"`
	CodingQuestionURL string `json:"codingQuestionUrl,omitempty"`
}

// CourseVideos is the on-disk shape of videos/<courseId>.json.
type CourseVideos struct {
	CourseID string  `json:"courseId"`
	Videos   []Video `json:"videos"`
}

// Announcement kinds.
const (
	AnnouncementQuote  = "quote"
	AnnouncementNotice = "announcement"
)

// Announcement is a dashboard notice or quote.
type Announcement struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Author   string `json:"author,omitempty"`
	IsActive bool   `json:"isActive"`
}
