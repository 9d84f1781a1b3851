package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// operatorAuth guards the routes that change what viewers see: the demo
// toggle and settings updates. A zero value lets everything through.
type operatorAuth struct {
	user  string
	pass  string
	token string
}

func loadOperatorAuth() operatorAuth {
	a := operatorAuth{
		user:  os.Getenv("ADMIN_USERNAME"),
		pass:  os.Getenv("ADMIN_PASSWORD"),
		token: os.Getenv("ADMIN_TOKEN"),
	}
	if !a.enabled() {
		slog.Warn("operator auth not configured; demo toggle and settings updates are open",
			slog.String("component", "http"))
	}
	return a
}

func (a operatorAuth) enabled() bool {
	return a.token != "" || (a.user != "" && a.pass != "")
}

// permits accepts the X-Admin-Token header or basic auth.
func (a operatorAuth) permits(r *http.Request) bool {
	if a.token != "" && secretEqual(r.Header.Get("X-Admin-Token"), a.token) {
		return true
	}
	if a.user == "" || a.pass == "" {
		return false
	}
	user, pass, ok := r.BasicAuth()
	return ok && secretEqual(user, a.user) && secretEqual(pass, a.pass)
}

func (a operatorAuth) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.enabled() || a.permits(r) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="stream-avatars admin"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		slog.Warn("operator request rejected",
			slog.String("path", r.URL.Path),
			slog.String("ip", clientIP(r)),
			slog.String("component", "http"))
	})
}

func secretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// clickBudget is how many avatar clicks one viewer address may send per window.
// perClient == 0 turns the limit off.
type clickBudget struct {
	perClient int
	window    time.Duration
}

const (
	defaultClicksPerWindow = 30
	defaultClickWindow     = time.Minute
)

// loadClickBudget reads OVERLAY_CLICK_LIMIT (clicks, 0 disables) and
// OVERLAY_CLICK_WINDOW (a Go duration such as "30s").
func loadClickBudget() clickBudget {
	b := clickBudget{perClient: defaultClicksPerWindow, window: defaultClickWindow}
	if v := os.Getenv("OVERLAY_CLICK_LIMIT"); v != "" {
		if n := parseInt(v, -1); n >= 0 {
			b.perClient = n
		} else {
			slog.Warn("ignoring invalid OVERLAY_CLICK_LIMIT", slog.String("value", v), slog.String("component", "http"))
		}
	}
	if v := os.Getenv("OVERLAY_CLICK_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			b.window = d
		} else {
			slog.Warn("ignoring invalid OVERLAY_CLICK_WINDOW", slog.String("value", v), slog.String("component", "http"))
		}
	}
	return b
}

// clickLimiter keeps a sliding window of click times per viewer address.
type clickLimiter struct {
	budget clickBudget
	now    func() time.Time

	mu     sync.Mutex
	clicks map[string][]time.Time
}

// newClickLimiter starts a sweeper that forgets idle addresses until ctx ends.
func newClickLimiter(ctx context.Context, b clickBudget) *clickLimiter {
	l := &clickLimiter{budget: b, now: time.Now, clicks: make(map[string][]time.Time)}
	if b.perClient > 0 {
		go l.sweepLoop(ctx)
	}
	return l
}

func (l *clickLimiter) sweepLoop(ctx context.Context) {
	t := time.NewTicker(l.budget.window)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.sweep()
		}
	}
}

// sweep drops addresses whose clicks have all left the window.
func (l *clickLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.budget.window)
	for ip, times := range l.clicks {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(l.clicks, ip)
		}
	}
}

// take records a click from ip. When the budget is spent it returns false
// and how long until the oldest click leaves the window.
func (l *clickLimiter) take(ip string) (bool, time.Duration) {
	if l.budget.perClient == 0 {
		return true, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.budget.window)
	times := l.clicks[ip]
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	times = times[i:]
	if len(times) >= l.budget.perClient {
		l.clicks[ip] = times
		return false, times[0].Sub(cutoff)
	}
	l.clicks[ip] = append(times, now)
	return true, 0
}

func (l *clickLimiter) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ok, wait := l.take(ip)
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
			http.Error(w, "too many clicks", http.StatusTooManyRequests)
			slog.Debug("click rate limited", slog.String("ip", ip), slog.String("component", "http"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// originPolicy decides which browser origins may read the feed and call the
// API. In dev every origin is allowed.
type originPolicy struct {
	anyOrigin bool
	allowed   []string
}

func loadOriginPolicy() originPolicy {
	env := strings.ToLower(os.Getenv("ENV"))
	p := originPolicy{anyOrigin: env == "" || env == "dev" || env == "development"}
	if v := os.Getenv("CORS_PERMISSIVE"); v != "" {
		p.anyOrigin = v == "1" || v == "true"
	}
	for _, o := range strings.Split(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			p.allowed = append(p.allowed, o)
		}
	}
	if !p.anyOrigin && len(p.allowed) == 0 {
		slog.Warn("no CORS_ALLOWED_ORIGINS set; browser sources on other origins will be refused",
			slog.String("component", "http"))
	}
	return p
}

// allows matches exact origins and "*.domain" entries, which also cover the
// bare domain.
func (p originPolicy) allows(origin string) bool {
	if p.anyOrigin {
		return true
	}
	for _, a := range p.allowed {
		if origin == a {
			return true
		}
		domain, ok := strings.CutPrefix(a, "*.")
		if !ok {
			continue
		}
		if strings.HasSuffix(origin, "."+domain) || origin == "https://"+domain || origin == "http://"+domain {
			return true
		}
	}
	return false
}

const (
	corsMethods = "GET, POST, PUT, OPTIONS"
	corsHeaders = "Content-Type, Authorization, X-Admin-Token, X-Correlation-ID"
)

func (p originPolicy) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		origin := r.Header.Get("Origin")
		switch {
		case p.anyOrigin:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && p.allows(origin):
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}
		if h.Get("Access-Control-Allow-Origin") != "" {
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
