package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dgellow/mailgate/internal/config"
	jsonwriter "github.com/dgellow/mailgate/internal/json"
	"github.com/dgellow/mailgate/internal/log"
	"github.com/dgellow/mailgate/internal/servicecontext"
)

// MiddlewareFunc is a function that wraps an http.Handler
type MiddlewareFunc func(http.Handler) http.Handler

// ChainMiddleware chains multiple middleware functions. The first one
// listed ends up innermost.
func ChainMiddleware(h http.Handler, middlewares ...MiddlewareFunc) http.Handler {
	for _, mw := range middlewares {
		h = mw(h)
	}
	return h
}

// NewCORSMiddleware adds CORS headers to responses
func NewCORSMiddleware(allowedOrigins []string) MiddlewareFunc {
	allowedMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		allowedMap[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && allowedMap[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			} else if len(allowedOrigins) == 0 {
				// No allowed origins configured: allow all (development mode)
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id, Mcp-Protocol-Version")
			w.Header().Set("Access-Control-Max-Age", "3600")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriterDelegator wraps http.ResponseWriter to capture status and bytes written
// while properly delegating all optional interfaces through Unwrap
type responseWriterDelegator struct {
	http.ResponseWriter
	status      int
	written     int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriterDelegator {
	return &responseWriterDelegator{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

func (r *responseWriterDelegator) Status() int {
	return r.status
}

func (r *responseWriterDelegator) BytesWritten() int {
	return r.written
}

func (r *responseWriterDelegator) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseWriterDelegator) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.written += n
	return n, err
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController
func (r *responseWriterDelegator) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Flush implements http.Flusher; the SSE transport needs it
func (r *responseWriterDelegator) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

var _ http.ResponseWriter = (*responseWriterDelegator)(nil)
var _ http.Flusher = (*responseWriterDelegator)(nil)

// NewLoggerMiddleware assigns a request id and logs every request
func NewLoggerMiddleware(prefix string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 128 {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)
			r = r.WithContext(servicecontext.WithRequestID(r.Context(), requestID))

			wrapped := wrapResponseWriter(w)
			// Auth middleware runs inside us, so it reports back through the holder
			holder := &authHolder{}
			next.ServeHTTP(wrapped, r.WithContext(withAuthHolder(r.Context(), holder)))

			fields := map[string]any{
				"request_id":  requestID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
				"bytes":       wrapped.BytesWritten(),
				"remote_addr": r.RemoteAddr,
			}
			if holder.service != "" {
				fields["service"] = holder.service
			}

			log.LogInfoWithFields(prefix, "request", fields)
		})
	}
}

// NewRecoverMiddleware recovers from panics
func NewRecoverMiddleware(prefix string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					log.LogErrorWithFields(prefix, "Recovered from panic", map[string]any{
						"panic":      err,
						"path":       r.URL.Path,
						"request_id": servicecontext.GetRequestID(r.Context()),
					})
					jsonwriter.WriteInternalServerError(w, "Internal Server Error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NewBodyLimitMiddleware caps request bodies at maxBytes
func NewBodyLimitMiddleware(maxBytes int64) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				jsonwriter.WriteRequestTooLarge(w, "Request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

const authRealm = "mailgate"

// NewServiceAuthMiddleware authenticates backend services with bearer tokens
// or basic credentials. With no serviceAuths configured it lets everything
// through.
func NewServiceAuthMiddleware(serviceAuths []config.ServiceAuth) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if len(serviceAuths) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name, method, ok := authenticateService(serviceAuths, r)
			if !ok {
				jsonwriter.WriteUnauthorizedChallenge(w, "Unauthorized", authRealm, "Bearer", "Basic")
				return
			}

			if holder := authHolderFrom(r.Context()); holder != nil {
				holder.service = name
			}
			ctx := servicecontext.WithAuthInfo(r.Context(), name, method)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticateService(serviceAuths []config.ServiceAuth, r *http.Request) (name, method string, ok bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		log.LogTraceWithFields("service_auth", "Service auth failed: missing Authorization header", nil)
		return "", "", false
	}

	if token, found := strings.CutPrefix(authHeader, "Bearer "); found {
		for _, serviceAuth := range serviceAuths {
			if serviceAuth.Type != config.ServiceAuthTypeBearer {
				continue
			}
			for _, candidate := range serviceAuth.Tokens {
				if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) == 1 {
					return serviceAuth.Name, "bearer", true
				}
			}
		}
		log.LogTraceWithFields("service_auth", "Bearer token service auth failed: invalid token", nil)
		return "", "", false
	}

	if username, password, found := r.BasicAuth(); found {
		for _, serviceAuth := range serviceAuths {
			if serviceAuth.Type != config.ServiceAuthTypeBasic || serviceAuth.Username != username {
				continue
			}
			if err := bcrypt.CompareHashAndPassword([]byte(serviceAuth.HashedPassword), []byte(password)); err == nil {
				return serviceAuth.Name, "basic", true
			}
		}
		log.LogTraceWithFields("service_auth", "Basic service auth failed: invalid username or password", map[string]any{
			"username": username,
		})
		return "", "", false
	}

	log.LogTraceWithFields("service_auth", "Service auth failed: unsupported Authorization scheme", nil)
	return "", "", false
}

// authHolder lets the service auth middleware report the authenticated
// service back to the request logger wrapped around it.
type authHolder struct {
	service string
}

type authHolderKey struct{}

func withAuthHolder(ctx context.Context, h *authHolder) context.Context {
	return context.WithValue(ctx, authHolderKey{}, h)
}

func authHolderFrom(ctx context.Context) *authHolder {
	h, _ := ctx.Value(authHolderKey{}).(*authHolder)
	return h
}
