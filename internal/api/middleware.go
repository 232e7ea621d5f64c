package api

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"foodgram/internal/models"
)

type contextKey int

const userContextKey contextKey = iota

// authenticate resolves the Authorization header into a user and stores
// it in the request context. Requests without the header pass through as
// anonymous; requests with an invalid or expired token are rejected.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		key, ok := strings.CutPrefix(header, "Token ")
		if !ok {
			s.respondError(w, http.StatusUnauthorized, "authorization header must be of the form 'Token <key>'")
			return
		}

		user, err := s.svc.UserByToken(r.Context(), strings.TrimSpace(key))
		if err != nil {
			s.respondServiceError(w, err, "failed to authenticate token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the authenticated user, or nil for anonymous
// requests.
func currentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userContextKey).(*models.User)
	return user
}

// requireUser writes a 401 response and returns nil when the request is
// anonymous.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) *models.User {
	user := currentUser(r)
	if user == nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
	}
	return user
}

// normalizePath strips a trailing slash before routing so the
// Django-style URLs clients send ("/api/users/") resolve to the same
// handlers as the bare form. The root path is left alone.
func (s *Server) normalizePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
			trimmed := new(http.Request)
			*trimmed = *r
			trimmed.URL = new(url.URL)
			*trimmed.URL = *r.URL
			trimmed.URL.Path = strings.TrimSuffix(p, "/")
			if trimmed.URL.RawPath != "" {
				trimmed.URL.RawPath = strings.TrimSuffix(trimmed.URL.RawPath, "/")
			}
			r = trimmed
		}
		next.ServeHTTP(w, r)
	})
}

// checkHost enforces the ALLOWED_HOSTS setting outside debug mode. A "*"
// entry disables the check.
func (s *Server) checkHost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.debug || s.hostAllowed(r.Host) {
			next.ServeHTTP(w, r)
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid Host header")
	})
}

func (s *Server) hostAllowed(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	for _, allowed := range s.allowedHosts {
		if allowed == "*" || strings.EqualFold(allowed, host) {
			return true
		}
	}
	return false
}

// logRequests emits one line per request at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		s.logger.WithField("method", r.Method).WithField("path", r.URL.Path).Debug("request handled")
	})
}
