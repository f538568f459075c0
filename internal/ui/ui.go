package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/learnx/internal/catalog"
	"github.com/desertthunder/learnx/internal/gate"
	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/desertthunder/learnx/internal/store"
	"github.com/desertthunder/learnx/internal/validate"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CourseListView ViewState = iota
	VideoListView
	ProfileView
)

// Deps are the stores and services the TUI reads and drives.
type Deps struct {
	Catalog   *catalog.Catalog
	Progress  *store.ProgressStore
	Sessions  *store.SessionStore
	Gate      *gate.Gate
	Validator *validate.Validator
	// Open launches a URL. Defaults to [shared.OpenBrowser].
	Open func(url string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx  context.Context
	deps Deps
	view ViewState

	width  int
	height int

	courseList list.Model
	videoList  list.Model
	course     models.Course

	spinner  spinner.Model
	email    textinput.Model
	password textinput.Model
	busy     bool
	status   string
	err      error

	gateEvents chan gate.Transition
	stopGate   func()

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.Validator == nil {
		deps.Validator = validate.New()
	}
	if deps.Open == nil {
		deps.Open = shared.OpenBrowser
	}

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email:    "
	password := textinput.New()
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	m := &Model{
		ctx:        ctx,
		deps:       deps,
		view:       CourseListView,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		email:      email,
		password:   password,
		gateEvents: make(chan gate.Transition, 8),
		help:       help.New(),
		keys:       newKeyMap(),
	}

	m.courseList = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.courseList.Title = "Courses"
	m.videoList = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.refreshCourses()

	m.stopGate = deps.Gate.OnChange(func(t gate.Transition) {
		select {
		case m.gateEvents <- t:
		default:
		}
	})
	return m
}

// Close stops following the gate.
func (m *Model) Close() {
	if m.stopGate != nil {
		m.stopGate()
	}
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState { return m.view }

// Init starts the spinner, the gate listener and the session bootstrap.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForGate(), m.bootstrap())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.courseList.SetSize(msg.Width-4, msg.Height-6)
		m.videoList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case CourseListView:
			return m.handleCourseKeys(msg)
		case VideoListView:
			return m.handleVideoKeys(msg)
		case ProfileView:
			return m.handleProfileKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgGateChanged:
		t := msg.data.(gate.Transition)
		if t.To == gate.Authenticated {
			m.password.SetValue("")
			m.email.Blur()
			m.password.Blur()
		} else if t.To == gate.Unauthenticated && m.view == ProfileView {
			m.email.Focus()
		}
		return m, m.waitForGate()
	case MsgBootstrapped:
		m.err = msg.err()
	case MsgSignedIn:
		m.busy = false
		m.err = msg.err()
		if m.err == nil {
			m.status = "Signed in"
		}
	case MsgSignedOut:
		m.busy = false
		m.err = msg.err()
		if m.err == nil {
			m.status = "Signed out"
		}
	case MsgOpened:
		m.err = msg.err()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case CourseListView:
		return m.renderCourseList()
	case VideoListView:
		return m.renderVideoList()
	case ProfileView:
		return m.renderProfile()
	default:
		return ""
	}
}

func (m *Model) handleCourseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.courseList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.courseList, cmd = m.courseList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if item, ok := m.courseList.SelectedItem().(courseItem); ok {
			m.openCourse(item.course)
		}
		return m, nil
	case "s":
		if item, ok := m.courseList.SelectedItem().(courseItem); ok {
			m.deps.Progress.ToggleCourseStarred(item.course.ID)
			m.refreshCourses()
		}
		return m, nil
	case "p":
		m.openProfile()
		return m, nil
	}

	var cmd tea.Cmd
	m.courseList, cmd = m.courseList.Update(msg)
	return m, cmd
}

func (m *Model) handleVideoKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.videoList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.videoList, cmd = m.videoList.Update(msg)
		return m, cmd
	}

	item, selected := m.videoList.SelectedItem().(videoItem)

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = CourseListView
		m.refreshCourses()
		return m, nil
	case "c":
		if selected {
			if item.completed {
				m.deps.Progress.MarkVideoIncomplete(item.video.ID)
			} else {
				m.deps.Progress.MarkVideoComplete(item.video.ID)
			}
			m.refreshVideos()
		}
		return m, nil
	case "s":
		if selected {
			m.deps.Progress.ToggleVideoStarred(item.video.ID)
			m.refreshVideos()
		}
		return m, nil
	case "o":
		if selected && item.video.YouTubeURL != "" {
			return m, m.open(item.video.YouTubeURL)
		}
		return m, nil
	case "p":
		m.openProfile()
		return m, nil
	}

	var cmd tea.Cmd
	m.videoList, cmd = m.videoList.Update(msg)
	return m, cmd
}

func (m *Model) handleProfileKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.deps.Gate.State()

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = CourseListView
		m.email.Blur()
		m.password.Blur()
		m.err = nil
		m.status = ""
		return m, nil
	}

	switch state {
	case gate.Authenticated:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "x":
			if !m.busy {
				m.busy = true
				return m, m.signOut()
			}
		}
		return m, nil

	case gate.Unauthenticated:
		switch msg.String() {
		case "tab", "shift+tab", "down", "up":
			if m.email.Focused() {
				m.email.Blur()
				m.password.Focus()
			} else {
				m.password.Blur()
				m.email.Focus()
			}
			return m, nil
		case "enter":
			if m.busy {
				return m, nil
			}
			form, err := m.deps.Validator.SignIn(m.email.Value(), m.password.Value())
			if err != nil {
				m.err = err
				return m, nil
			}
			m.busy = true
			m.err = nil
			return m, m.signIn(form)
		}

		var cmd tea.Cmd
		if m.email.Focused() {
			m.email, cmd = m.email.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
		return m, cmd
	}

	if msg.String() == "q" {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CourseListView:
		m.courseList, cmd = m.courseList.Update(msg)
	case VideoListView:
		m.videoList, cmd = m.videoList.Update(msg)
	}
	return m, cmd
}

func (m *Model) openCourse(course models.Course) {
	m.course = course
	m.videoList.Title = course.Title
	m.videoList.ResetSelected()
	m.refreshVideos()
	m.view = VideoListView
}

func (m *Model) openProfile() {
	m.view = ProfileView
	m.err = nil
	m.status = ""
	if m.deps.Gate.State() == gate.Unauthenticated {
		m.email.Focus()
	}
}

func (m *Model) refreshCourses() {
	courses := m.deps.Catalog.Courses()
	items := make([]list.Item, len(courses))
	for i, c := range courses {
		items[i] = courseItem{
			course:   c,
			progress: m.deps.Catalog.CourseProgress(c.ID, m.deps.Progress),
			starred:  m.deps.Progress.IsCourseStarred(c.ID),
		}
	}
	m.courseList.SetItems(items)
}

func (m *Model) refreshVideos() {
	videos := m.deps.Catalog.Videos(m.course.ID)
	items := make([]list.Item, len(videos))
	for i, v := range videos {
		items[i] = videoItem{
			video:     v,
			completed: m.deps.Progress.IsVideoCompleted(v.ID),
			starred:   m.deps.Progress.IsVideoStarred(v.ID),
		}
	}
	m.videoList.SetItems(items)
}

func (m *Model) waitForGate() tea.Cmd {
	return func() tea.Msg {
		select {
		case t := <-m.gateEvents:
			return gateChangedMsg(t)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) bootstrap() tea.Cmd {
	return func() tea.Msg {
		return resultMsg(MsgBootstrapped, m.deps.Sessions.Bootstrap(m.ctx))
	}
}

func (m *Model) signIn(form validate.SignInForm) tea.Cmd {
	return func() tea.Msg {
		return resultMsg(MsgSignedIn, m.deps.Sessions.SignIn(m.ctx, form.Email, form.Password))
	}
}

func (m *Model) signOut() tea.Cmd {
	return func() tea.Msg {
		return resultMsg(MsgSignedOut, m.deps.Sessions.SignOut(m.ctx))
	}
}

func (m *Model) open(url string) tea.Cmd {
	return func() tea.Msg {
		return resultMsg(MsgOpened, m.deps.Open(url))
	}
}

func (m *Model) footer(keys ...key.Binding) string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(styles.err.Render("Error: "+shared.AsAuthError(m.err).Message) + "\n")
	} else if m.status != "" {
		b.WriteString(styles.ok.Render(m.status) + "\n")
	}
	b.WriteString(m.help.ShortHelpView(keys))
	return b.String()
}

func (m *Model) renderCourseList() string {
	stats := m.deps.Progress.Stats()
	summary := styles.help.Render(fmt.Sprintf("%d videos completed • %d starred", stats.CompletedVideos, stats.StarredVideos))
	return fmt.Sprintf("%s\n%s\n\n%s", m.courseList.View(), summary,
		m.footer(m.keys.enter, m.keys.star, m.keys.profile, m.keys.quit))
}

func (m *Model) renderVideoList() string {
	p := m.deps.Catalog.CourseProgress(m.course.ID, m.deps.Progress)
	summary := styles.help.Render(fmt.Sprintf("%d/%d complete (%d%%)", p.Completed, p.Total, p.Percent))
	if p.Total == 0 {
		summary = styles.warn.Render("No videos available for this course yet.")
	}
	if badge := styles.Badge(m.course.Difficulty); badge != "" {
		summary = badge + " " + summary
	}
	if m.deps.Progress.IsCourseStarred(m.course.ID) {
		summary = styles.star.Render("★") + " " + summary
	}
	return fmt.Sprintf("%s\n%s\n\n%s", m.videoList.View(), summary,
		m.footer(m.keys.complete, m.keys.star, m.keys.open, m.keys.back, m.keys.quit))
}

func (m *Model) renderProfile() string {
	switch m.deps.Gate.State() {
	case gate.Pending:
		return fmt.Sprintf("%s\n\n%s Loading session...", styles.title.Render("Profile"), m.spinner.View())

	case gate.Unauthenticated:
		title := styles.title.Render("Sign in to view your profile")
		form := fmt.Sprintf("%s\n%s", m.email.View(), m.password.View())
		if m.busy {
			form += "\n\n" + m.spinner.View() + " Signing in..."
		}
		return fmt.Sprintf("%s\n%s\n\n%s", title, form, m.footer(m.keys.next, m.keys.submit, m.keys.back))

	default:
		user := m.deps.Gate.User()
		if user == nil {
			return styles.title.Render("Profile")
		}
		title := styles.title.Render(user.DisplayName())
		info := fmt.Sprintf("Email:    %s\nProvider: %s\nJoined:   %s",
			user.Email, user.Provider(), user.CreatedAt.Format("January 2, 2006"))
		if avatar := user.AvatarURL(); avatar != "" {
			info += "\nAvatar:   " + avatar
		}
		if m.busy {
			info += "\n\n" + m.spinner.View() + " Signing out..."
		}
		return fmt.Sprintf("%s\n%s\n\n%s", title, info, m.footer(m.keys.signOut, m.keys.back, m.keys.quit))
	}
}
