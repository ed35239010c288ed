package http

import (
	"html/template"
	"net/http"
	"time"

	"csv-quiz-service/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
)

// Options tune the HTTP surface.
type Options struct {
	StaticDir      string
	CookieSecure   bool
	SessionTTL     time.Duration
	AllowedOrigins []string
	UploadLimit    int64 // bytes
}

// Handler serves the quiz pages, the admin area and the live leaderboard.
type Handler struct {
	service   *app.QuizService
	sessions  app.SessionRepository
	admin     *AdminAuth
	templates *template.Template
	opts      Options
	upgrader  websocket.Upgrader
}

func NewHandler(service *app.QuizService, sessions app.SessionRepository, admin *AdminAuth, opts Options) *Handler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	if opts.UploadLimit <= 0 {
		opts.UploadLimit = 10 << 20
	}
	return &Handler{
		service:   service,
		sessions:  sessions,
		admin:     admin,
		templates: parseTemplates(),
		opts:      opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Get("/", h.Index)
	r.Post("/start", h.Start)
	r.Get("/question", h.Question)
	r.Post("/submit", h.Submit)
	r.Get("/feedback", h.Feedback)
	r.Post("/next", h.Next)
	r.Get("/result", h.Result)
	r.Get("/leaderboard", h.Leaderboard)
	r.Get("/ws/leaderboard", h.ServeLeaderboardWS)

	r.Route("/api", func(ar chi.Router) {
		ar.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
		ar.Get("/leaderboard", h.LeaderboardJSON)
	})

	r.Route("/admin", func(ar chi.Router) {
		ar.Get("/login", h.AdminLoginForm)
		ar.Post("/login", h.AdminLogin)
		ar.Post("/logout", h.AdminLogout)
		ar.Group(func(pr chi.Router) {
			pr.Use(h.admin.Require)
			pr.Get("/", func(w http.ResponseWriter, r *http.Request) { redirect(w, r, "/admin/dashboard") })
			pr.Get("/dashboard", h.AdminDashboard)
			pr.Post("/upload", h.AdminUpload)
			pr.Get("/export", h.AdminExport)
		})
	})

	if h.opts.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(h.opts.StaticDir))))
	}
	return r
}
