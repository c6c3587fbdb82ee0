package http

import (
	"net/http"
	"time"

	"curriculum-service/internal/app"
	"curriculum-service/internal/auth"
	"curriculum-service/internal/metrics"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server exposes the curriculum and progress use cases over HTTP and the
// player websocket.
type Server struct {
	curricula *app.CurriculumService
	progress  *app.ProgressService
	auth      *auth.Authenticator
	logger    *zap.Logger
	metrics   *metrics.Metrics
	debounce  time.Duration
	upgrader  websocket.Upgrader
}

func NewServer(curricula *app.CurriculumService, progress *app.ProgressService, authn *auth.Authenticator, logger *zap.Logger, m *metrics.Metrics, debounce time.Duration) *Server {
	return &Server{
		curricula: curricula,
		progress:  progress,
		auth:      authn,
		logger:    logger,
		metrics:   m,
		debounce:  debounce,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes builds the request multiplexer.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.Handler) {
		mux.Handle(pattern, s.metrics.Middleware(pattern, h))
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", s.metrics.Handler())

	handle("GET /courses/{courseId}/curriculum", s.authenticated(s.getCurriculum))
	handle("PUT /courses/{courseId}/curriculum", s.authenticated(s.saveCurriculum))
	handle("PUT /courses/{courseId}/lectures/{lectureId}/progress", s.authenticated(s.saveLectureProgress))
	handle("POST /courses/{courseId}/lectures/{lectureId}/complete", s.authenticated(s.markComplete))
	handle("POST /courses/{courseId}/lectures/{lectureId}/quiz/answers", s.authenticated(s.submitQuizAnswer))
	handle("GET /courses/{courseId}/lectures/{lectureId}/quiz", s.authenticated(s.getQuizProgress))
	handle("GET /courses/{courseId}/progress", s.authenticated(s.getCourseProgress))
	handle("GET /ws/player", s.authenticated(s.servePlayer))
	return mux
}

type identityHandler func(w http.ResponseWriter, r *http.Request, identity auth.Identity)

func (s *Server) authenticated(next identityHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.auth.FromRequest(r)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		next(w, r, identity)
	})
}
