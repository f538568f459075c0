package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/catalog"
	"github.com/desertthunder/learnx/internal/gate"
	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/desertthunder/learnx/internal/store"
	"github.com/desertthunder/learnx/internal/validate"
)

// SignInPath is where browsers are sent when a gated page needs a session.
const SignInPath = "/"

// API serves the catalog, local progress and the gated profile as JSON.
type API struct {
	catalog   *catalog.Catalog
	progress  *store.ProgressStore
	sessions  *store.SessionStore
	gate      *gate.Gate
	validator *validate.Validator
	logger    *log.Logger
}

// APIOpts contains the dependencies of an [API].
type APIOpts struct {
	Catalog   *catalog.Catalog
	Progress  *store.ProgressStore
	Sessions  *store.SessionStore
	Gate      *gate.Gate
	Validator *validate.Validator
	Logger    *log.Logger
}

// NewAPI creates an API. A nil validator or logger gets a default.
func NewAPI(opts APIOpts) *API {
	if opts.Validator == nil {
		opts.Validator = validate.New()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &API{
		catalog:   opts.Catalog,
		progress:  opts.Progress,
		sessions:  opts.Sessions,
		gate:      opts.Gate,
		validator: opts.Validator,
		logger:    shared.WithLogger(opts.Logger, "component", "api"),
	}
}

// Register adds every API route to r. Profile routes sit behind the gate.
func (a *API) Register(r *BasicRouter) {
	r.HandleFunc("GET", "/api/courses", a.listCourses)
	r.HandleFunc("GET", "/api/courses/{id}", a.getCourse)
	r.HandleFunc("POST", "/api/courses/{id}/star", a.toggleCourseStar)
	r.HandleFunc("GET", "/api/videos/{id}", a.getVideo)
	r.HandleFunc("PUT", "/api/videos/{id}/complete", a.setVideoComplete(true))
	r.HandleFunc("DELETE", "/api/videos/{id}/complete", a.setVideoComplete(false))
	r.HandleFunc("POST", "/api/videos/{id}/star", a.toggleVideoStar)
	r.HandleFunc("GET", "/api/progress", a.getProgress)
	r.HandleFunc("GET", "/api/search", a.search)
	r.HandleFunc("GET", "/api/announcements", a.listAnnouncements)
	r.HandleFunc("GET", "/api/session", a.getSession)

	guard := a.gate.Middleware(SignInPath)
	r.Handle("GET", "/api/profile", guard(http.HandlerFunc(a.getProfile)))
	r.Handle("PATCH", "/api/profile", guard(http.HandlerFunc(a.updateProfile)))
}

// CourseSummary is a course with this device's progress.
type CourseSummary struct {
	models.Course
	Starred  bool             `json:"starred"`
	Progress catalog.Progress `json:"progress"`
}

// VideoStatus is a video with this device's progress.
type VideoStatus struct {
	models.Video
	CourseID  string `json:"courseId"`
	Completed bool   `json:"completed"`
	Starred   bool   `json:"starred"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// CourseDetail is a course and its videos.
type CourseDetail struct {
	CourseSummary
	Videos []VideoStatus `json:"videos"`
}

// SessionView is the public view of the session store.
type SessionView struct {
	State string       `json:"state"`
	User  *models.User `json:"user"`
	Error string       `json:"error,omitempty"`
}

// Profile is the signed in user as shown on the profile page.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Provider    string `json:"provider"`
	CreatedAt   string `json:"createdAt"`
}

func newProfile(u *models.User) Profile {
	return Profile{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName(),
		AvatarURL:   u.AvatarURL(),
		Provider:    u.Provider(),
		CreatedAt:   u.CreatedAt.Format("2006-01-02"),
	}
}

func (a *API) summary(c models.Course) CourseSummary {
	return CourseSummary{
		Course:   c,
		Starred:  a.progress.IsCourseStarred(c.ID),
		Progress: a.catalog.CourseProgress(c.ID, a.progress),
	}
}

func (a *API) videoStatus(v models.Video, courseID string) VideoStatus {
	return VideoStatus{
		Video:     v,
		CourseID:  courseID,
		Completed: a.progress.IsVideoCompleted(v.ID),
		Starred:   a.progress.IsVideoStarred(v.ID),
		Thumbnail: catalog.ThumbnailURL(v.YouTubeURL),
	}
}

func (a *API) listCourses(w http.ResponseWriter, r *http.Request) {
	courses := a.catalog.Courses()
	out := make([]CourseSummary, 0, len(courses))
	for _, c := range courses {
		out = append(out, a.summary(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getCourse(w http.ResponseWriter, r *http.Request) {
	course, err := a.catalog.Course(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	videos := a.catalog.Videos(course.ID)
	detail := CourseDetail{CourseSummary: a.summary(course), Videos: make([]VideoStatus, 0, len(videos))}
	for _, v := range videos {
		detail.Videos = append(detail.Videos, a.videoStatus(v, course.ID))
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) toggleCourseStar(w http.ResponseWriter, r *http.Request) {
	course, err := a.catalog.Course(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"starred": a.progress.ToggleCourseStarred(course.ID)})
}

func (a *API) getVideo(w http.ResponseWriter, r *http.Request) {
	v, courseID, err := a.catalog.Video(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.videoStatus(v, courseID))
}

func (a *API) setVideoComplete(done bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _, err := a.catalog.Video(r.PathValue("id"))
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if done {
			a.progress.MarkVideoComplete(v.ID)
		} else {
			a.progress.MarkVideoIncomplete(v.ID)
		}
		writeJSON(w, http.StatusOK, map[string]bool{"completed": a.progress.IsVideoCompleted(v.ID)})
	}
}

func (a *API) toggleVideoStar(w http.ResponseWriter, r *http.Request) {
	v, _, err := a.catalog.Video(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"starred": a.progress.ToggleVideoStarred(v.ID)})
}

func (a *API) getProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"progress": a.progress.Snapshot(),
		"stats":    a.progress.Stats(),
	})
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	results := a.catalog.Search(r.URL.Query().Get("q"))
	if results == nil {
		results = []catalog.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *API) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.ActiveAnnouncements())
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	st := a.sessions.Snapshot()
	writeJSON(w, http.StatusOK, SessionView{
		State: gate.Resolve(st.IsLoading, st.User).String(),
		User:  st.User,
		Error: st.LastError,
	})
}

func (a *API) getProfile(w http.ResponseWriter, r *http.Request) {
	user := a.sessions.User()
	if user == nil {
		writeError(w, http.StatusUnauthorized, shared.ErrNotAuthenticated.Error())
		return
	}
	writeJSON(w, http.StatusOK, newProfile(user))
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	var body validate.ProfileForm
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	form, err := a.validator.Profile(body.FullName, body.AvatarURL)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  err.Error(),
			"fields": validate.Fields(err),
		})
		return
	}

	if err := a.sessions.UpdateProfile(r.Context(), form.Metadata()); err != nil {
		a.logger.Warn("profile update failed", "error", err, "id", RequestID(r.Context()))
		writeAuthError(w, err)
		return
	}

	user := a.sessions.User()
	if user == nil {
		writeError(w, http.StatusUnauthorized, shared.ErrNotAuthenticated.Error())
		return
	}
	writeJSON(w, http.StatusOK, newProfile(user))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeAuthError maps an auth failure kind onto an HTTP status.
func writeAuthError(w http.ResponseWriter, err error) {
	authErr := shared.AsAuthError(err)
	status := http.StatusInternalServerError
	switch authErr.Kind {
	case shared.KindValidation:
		status = http.StatusUnprocessableEntity
	case shared.KindUnauthorized:
		status = http.StatusUnauthorized
	case shared.KindNetwork:
		status = http.StatusBadGateway
	}
	writeError(w, status, authErr.Message)
}
