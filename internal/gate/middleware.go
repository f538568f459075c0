package gate

import (
	"encoding/json"
	"net/http"
	"strings"
)

// RetryAfterSeconds is sent with Pending responses.
const RetryAfterSeconds = "1"

type errorBody struct {
	Error string `json:"error"`
	State string `json:"state"`
}

func writeState(w http.ResponseWriter, status int, state State, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: message, State: state.String()})
}

// Middleware guards next behind the gate.
//
// Pending answers 503 with Retry-After, Unauthenticated answers 401 (or redirects browsers
// to signInPath), and Authenticated serves next.
func (g *Gate) Middleware(signInPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch state := g.State(); state {
			case Authenticated:
				next.ServeHTTP(w, r)
			case Pending:
				w.Header().Set("Retry-After", RetryAfterSeconds)
				writeState(w, http.StatusServiceUnavailable, state, "loading session")
			default:
				if strings.Contains(r.Header.Get("Accept"), "text/html") {
					http.Redirect(w, r, signInPath, http.StatusSeeOther)
					return
				}
				writeState(w, http.StatusUnauthorized, state, "sign in required: run `learnx auth login`")
			}
		})
	}
}
