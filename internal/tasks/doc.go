// Package tasks runs long catalog jobs with real-time progress reporting.
//
// # Link Checking
//
// [LinkChecker.Check] probes every link a catalog video carries (the YouTube video, lecture notes and
// practice question) with a bounded worker pool. Requests are paced with a token bucket so a large
// catalog does not trip remote rate limits. YouTube videos are probed through their thumbnail, which
// the image host answers with 404 once a video is removed or made private.
//
// # Progress Reporting
//
// Operations accept a send-only [ProgressUpdate] channel, which may be nil.
// Updates use select with default to prevent blocking.
package tasks
