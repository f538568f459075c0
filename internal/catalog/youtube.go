package catalog

import (
	"fmt"
	"regexp"
)

var youtubeID = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

const youtubeIDLength = 11

// YouTubeID extracts the 11 character video id from the common YouTube URL shapes.
func YouTubeID(url string) (string, bool) {
	m := youtubeID.FindStringSubmatch(url)
	if m == nil || len(m[2]) != youtubeIDLength {
		return "", false
	}
	return m[2], true
}

// ThumbnailURL returns the high quality thumbnail for a YouTube URL, or "" when no id is found.
func ThumbnailURL(url string) string {
	id, ok := YouTubeID(url)
	if !ok {
		return ""
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", id)
}
