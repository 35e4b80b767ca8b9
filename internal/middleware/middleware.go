package middleware

import (
	"net/http"

	"erpbot/chatbot-backend/internal"

	corsutil "github.com/NYCU-SDC/summer/pkg/cors"
	traceutil "github.com/NYCU-SDC/summer/pkg/trace"
	"go.uber.org/zap"
)

// SessionHeader lets clients tag requests that carry no session id in the path.
const SessionHeader = "X-Chat-Session"

type Middleware struct {
	logger       *zap.Logger
	debug        bool
	allowOrigins []string
}

func New(logger *zap.Logger, debug bool, allowOrigins []string) *Middleware {
	logger.Info("HTTP middleware initialized", zap.Bool("debug", debug), zap.Strings("allow_origins", allowOrigins))
	return &Middleware{
		logger:       logger,
		debug:        debug,
		allowOrigins: allowOrigins,
	}
}

func (m Middleware) Trace(next http.HandlerFunc) http.HandlerFunc {
	return traceutil.TraceMiddleware(next, m.logger)
}

func (m Middleware) Recover(next http.HandlerFunc) http.HandlerFunc {
	return traceutil.RecoverMiddleware(next, m.logger, m.debug)
}

func (m Middleware) CORS(next http.HandlerFunc) http.HandlerFunc {
	return corsutil.CORSMiddleware(next, m.logger, m.allowOrigins)
}

// Session puts the chat session id into the request context so every log line of the
// request carries it. The path value wins over the header.
func (m Middleware) Session(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("sessionId")
		if sessionID == "" {
			sessionID = r.Header.Get(SessionHeader)
		}
		if sessionID != "" {
			r = r.WithContext(internal.WithSessionID(r.Context(), sessionID))
		}
		next(w, r)
	}
}
