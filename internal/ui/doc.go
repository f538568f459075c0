// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [CourseListView] : Browse courses with progress and stars
//  2. [VideoListView] : Mark videos complete, star them or open them in the browser
//  3. [ProfileView] : The gated profile page with an inline sign-in form
//
// The profile view follows the auth gate. Gate transitions are forwarded into the program through a
// channel read by a waiting command, so the view changes as soon as the session store settles.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
