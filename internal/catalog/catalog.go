// package catalog loads the read-only course content
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/shared"
)

//go:embed data
var sampleContent embed.FS

const (
	coursesFile       = "courses.json"
	announcementsFile = "announcements.json"
	videosDir         = "videos"
)

type coursesFileData struct {
	Courses []models.Course `json:"courses"`
}

type announcementsFileData struct {
	Items []models.Announcement `json:"items"`
}

// Catalog is an immutable view over the course manifests.
type Catalog struct {
	courses       []models.Course
	index         map[string]int
	videos        map[string][]models.Video
	announcements []models.Announcement
}

// Open loads content from dir, or the embedded sample content when dir is empty.
func Open(dir string, logger *log.Logger) *Catalog {
	if dir == "" {
		return Embedded(logger)
	}
	return Load(os.DirFS(dir), logger)
}

// Embedded loads the sample content compiled into the binary.
func Embedded(logger *log.Logger) *Catalog {
	sub, err := fs.Sub(sampleContent, "data")
	if err != nil {
		panic(fmt.Sprintf("embedded content missing: %v", err))
	}
	return Load(sub, logger)
}

// Load reads every manifest from fsys. It never fails: missing or malformed files
// are logged and read as empty.
func Load(fsys fs.FS, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	logger = shared.WithLogger(logger, "component", "catalog")

	c := &Catalog{
		index:  make(map[string]int),
		videos: make(map[string][]models.Video),
	}

	var cf coursesFileData
	if err := readJSON(fsys, coursesFile, &cf); err != nil {
		logger.Warn("no courses loaded", "file", coursesFile, "error", err)
	}
	for _, course := range cf.Courses {
		if course.ID == "" {
			logger.Warn("skipping course without id", "title", course.Title)
			continue
		}
		if _, dup := c.index[course.ID]; dup {
			logger.Warn("skipping duplicate course", "id", course.ID)
			continue
		}
		if d, ok := models.ParseDifficulty(string(course.Difficulty)); ok {
			course.Difficulty = d
		}
		c.index[course.ID] = len(c.courses)
		c.courses = append(c.courses, course)
	}

	for _, course := range c.courses {
		file := path.Join(videosDir, course.ID+".json")
		var cv models.CourseVideos
		if err := readJSON(fsys, file, &cv); err != nil {
			logger.Warn("no videos loaded", "course", course.ID, "error", err)
			continue
		}
		if cv.CourseID != "" && cv.CourseID != course.ID {
			logger.Warn("video manifest course id mismatch", "file", file, "courseId", cv.CourseID)
		}
		c.videos[course.ID] = cv.Videos
	}

	var af announcementsFileData
	if err := readJSON(fsys, announcementsFile, &af); err != nil {
		logger.Debug("no announcements loaded", "error", err)
	}
	c.announcements = af.Items

	logger.Debug("catalog loaded", "courses", len(c.courses), "announcements", len(c.announcements))
	return c
}

func readJSON(fsys fs.FS, name string, out any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", shared.ErrNotFound, name)
		}
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrInvalidManifest, name, err)
	}
	return nil
}

// Courses returns every course in manifest order.
func (c *Catalog) Courses() []models.Course {
	return slices.Clone(c.courses)
}

// Course looks up a course by id.
func (c *Catalog) Course(id string) (models.Course, error) {
	i, ok := c.index[id]
	if !ok {
		return models.Course{}, fmt.Errorf("%w: %s", shared.ErrCourseNotFound, id)
	}
	return c.courses[i], nil
}

// Videos returns the videos of a course, empty when the course has none or is unknown.
func (c *Catalog) Videos(courseID string) []models.Video {
	return slices.Clone(c.videos[courseID])
}

// VideoIDs returns the ids of a course's videos.
func (c *Catalog) VideoIDs(courseID string) []string {
	videos := c.videos[courseID]
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	return ids
}

// Video finds a video by id across all courses and returns it with its course id.
func (c *Catalog) Video(id string) (models.Video, string, error) {
	for _, course := range c.courses {
		for _, v := range c.videos[course.ID] {
			if v.ID == id {
				return v, course.ID, nil
			}
		}
	}
	return models.Video{}, "", fmt.Errorf("%w: %s", shared.ErrVideoNotFound, id)
}

// Announcements returns every announcement.
func (c *Catalog) Announcements() []models.Announcement {
	return slices.Clone(c.announcements)
}

// ActiveAnnouncements returns the announcements flagged active.
func (c *Catalog) ActiveAnnouncements() []models.Announcement {
	var active []models.Announcement
	for _, a := range c.announcements {
		if a.IsActive {
			active = append(active, a)
		}
	}
	return active
}

// CompletionCounter reports how many of ids are complete. Satisfied by the progress store.
type CompletionCounter interface {
	CompletedIn(ids []string) int
}

// Progress summarizes completion of one course.
type Progress struct {
	CourseID  string `json:"courseId"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Percent   int    `json:"percent"`
}

// CourseProgress computes completion for a course. Percent is rounded and 0 for empty courses.
func (c *Catalog) CourseProgress(courseID string, counter CompletionCounter) Progress {
	ids := c.VideoIDs(courseID)
	p := Progress{CourseID: courseID, Total: len(ids)}
	if p.Total == 0 {
		return p
	}
	p.Completed = counter.CompletedIn(ids)
	p.Percent = int(math.Round(float64(p.Completed) * 100 / float64(p.Total)))
	return p
}
