package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lexakit/lexa/internal/auth"
	"github.com/lexakit/lexa/internal/common"
)

// withRequestID tags every request with an ID, honoring a caller-supplied
// X-Request-ID so traces correlate across services.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(common.WithRequestID(r.Context(), reqID)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"req_id", common.RequestIDFromContext(r.Context()),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	origins := s.cfg.CORS.AllowedOrigins
	methods := strings.Join(s.cfg.CORS.AllowedMethods, ", ")
	headers := strings.Join(s.cfg.CORS.AllowedHeaders, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && originAllowed(origins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// requireAuth verifies the bearer token and checks the role claim before
// dispatch. A valid token with none of the wanted roles gets 403.
func (s *Server) requireAuth(next http.HandlerFunc, wantRoles ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, r, s.logger, common.NewAppError(
				"MISSING_TOKEN", "missing bearer token", common.ErrUnauthorized))
			return
		}

		claims, err := s.issuer.Verify(token)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}

		allowed := false
		for _, want := range wantRoles {
			if auth.HasRole(claims.Roles, want) {
				allowed = true
				break
			}
		}
		if !allowed {
			writeError(w, r, s.logger, common.NewAppError(
				"INSUFFICIENT_ROLE", "token does not grant access to this resource", common.ErrForbidden))
			return
		}

		ctx := common.WithUsername(r.Context(), claims.Subject)
		ctx = common.WithRoles(ctx, claims.Roles)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
