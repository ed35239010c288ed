package http

import (
	"log"
	"net/http"
	"time"

	"csv-quiz-service/internal/domain"
	"github.com/google/uuid"
)

const sessionCookie = "quiz_session"

// loadSession returns the quiz session behind the request's cookie. ok is false
// when there is no cookie or the session has expired.
func (h *Handler) loadSession(r *http.Request) (token string, session domain.QuizSession, ok bool, err error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return "", domain.QuizSession{}, false, nil
	}
	session, ok, err = h.sessions.Get(r.Context(), c.Value)
	if err != nil {
		return "", domain.QuizSession{}, false, err
	}
	return c.Value, session, ok, nil
}

// startSession stores session under a fresh token and drops the caller's
// previous one, so a new quiz always replaces the old.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, session domain.QuizSession) error {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		_ = h.sessions.Delete(r.Context(), c.Value)
	}
	token := uuid.NewString()
	if err := h.sessions.Save(r.Context(), token, session); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.opts.SessionTTL),
	})
	return nil
}

func (h *Handler) endSession(w http.ResponseWriter, r *http.Request, token string) {
	if err := h.sessions.Delete(r.Context(), token); err != nil {
		log.Printf("delete session: %v", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
