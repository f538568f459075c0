// Package models defines the entities shared by the stores, the auth service client and the catalog.
//
// The package contains two categories of types:
//
// 1. Account types: data owned by the hosted auth service
//   - [User] : identity plus a free-form metadata map (full_name, avatar_url)
//   - [Session] : opaque credential ([oauth2.Token]) paired with its [User]
//
// 2. Catalog types: read-only content shipped with the client
//   - [Course] : a group of videos with difficulty and localized copy
//   - [Video] : a single lesson with optional notes and exercise links
//   - [Announcement] : a notice shown on the dashboard while active
//
// Account types are cloned on the way out of the stores so callers never share maps with held state.
package models
