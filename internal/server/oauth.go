package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// ExchangeFunc trades an authorization code for a session.
type ExchangeFunc func(ctx context.Context, code string) error

// CallbackResult is the outcome of a provider sign-in callback.
type CallbackResult struct {
	err error
}

func (c CallbackResult) Error() error {
	return c.err
}

// CallbackHandler receives the provider redirect of a PKCE sign-in.
//
// It checks the state parameter, runs the exchange and reports exactly one result.
type CallbackHandler struct {
	path       string
	state      string
	exchange   ExchangeFunc
	resultChan chan CallbackResult
	once       sync.Once
	mu         sync.Mutex
	hit        bool
}

// NewCallbackHandler creates a handler for path expecting state.
func NewCallbackHandler(path, state string, exchange ExchangeFunc) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		path:       path,
		state:      state,
		exchange:   exchange,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP handles the callback request.
//
// Requests with a foreign state are rejected without ending the sign-in. Only the first request
// carrying the expected state is processed.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("state") != h.state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	code := q.Get("code")
	if code == "" {
		err := fmt.Errorf("authorization failed: %s - %s", q.Get("error"), q.Get("error_description"))
		h.Send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	if err := h.exchange(r.Context(), code); err != nil {
		h.Send(CallbackResult{err: err})
		http.Error(w, "Sign in failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	h.Send(CallbackResult{})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, callbackPage)
}

// Send sends the result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

const callbackPage = `<!DOCTYPE html>
<html>
<head>
    <title>Signed In</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #4f46e5; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Signed In</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
