package http

import (
	"errors"
	"fmt"
	"net/http"

	"csv-quiz-service/internal/domain"
)

type indexPage struct {
	Error    string
	Nickname string
	Total    int
	Penalty  float64
}

type questionPage struct {
	View      domain.QuestionView
	TimeLimit int // seconds, display only
}

type feedbackPage struct {
	Feedback domain.Feedback
	Awaiting bool
}

type resultPage struct {
	Result domain.Result
	Limit  int
}

type leaderboardPage struct {
	Entries []domain.LeaderboardEntry
}

func (h *Handler) indexPage(errMsg, nickname string) indexPage {
	settings := h.service.Settings()
	return indexPage{Error: errMsg, Nickname: nickname, Total: settings.SampleSize, Penalty: settings.Penalty}
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "index.html", h.indexPage("", ""))
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	nickname := r.FormValue("nickname")

	var session domain.QuizSession
	err := h.service.Start(r.Context(), &session, nickname)
	switch {
	case errors.Is(err, domain.ErrInvalidNickname):
		h.render(w, http.StatusOK, "index.html", h.indexPage("請輸入有效的暱稱", nickname))
		return
	case errors.Is(err, domain.ErrInsufficientQuestions), errors.Is(err, domain.ErrQuestionBankMissing):
		msg := fmt.Sprintf("題庫不足 %d 題", h.service.Settings().SampleSize)
		h.render(w, http.StatusOK, "index.html", h.indexPage(msg, nickname))
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	}

	if err := h.startSession(w, r, session); err != nil {
		h.serverError(w, r, err)
		return
	}
	redirect(w, r, "/question")
}

func (h *Handler) Question(w http.ResponseWriter, r *http.Request) {
	token, session, ok, err := h.loadSession(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !ok {
		redirect(w, r, "/")
		return
	}

	view, err := h.service.CurrentQuestion(r.Context(), &session)
	if err != nil {
		h.quizError(w, r, token, err)
		return
	}
	h.render(w, http.StatusOK, "question.html", questionPage{
		View:      view,
		TimeLimit: int(view.TimeLimit.Seconds()),
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	token, session, ok, err := h.loadSession(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !ok {
		redirect(w, r, "/")
		return
	}

	fb, err := h.service.SubmitAnswer(r.Context(), &session, r.FormValue("answer"))
	if err != nil {
		h.quizError(w, r, token, err)
		return
	}
	if err := h.sessions.Save(r.Context(), token, session); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, http.StatusOK, "feedback.html", feedbackPage{Feedback: fb, Awaiting: session.AwaitingAdvance})
}

func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	token, session, ok, err := h.loadSession(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !ok {
		redirect(w, r, "/")
		return
	}
	if !session.AwaitingAdvance {
		redirect(w, r, "/question")
		return
	}

	fb, err := h.service.LastFeedback(r.Context(), &session)
	if err != nil {
		h.quizError(w, r, token, err)
		return
	}
	h.render(w, http.StatusOK, "feedback.html", feedbackPage{Feedback: fb, Awaiting: true})
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	token, session, ok, err := h.loadSession(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !ok {
		redirect(w, r, "/")
		return
	}

	err = h.service.Advance(&session)
	switch {
	case errors.Is(err, domain.ErrNothingToAdvance):
	case err != nil:
		h.quizError(w, r, token, err)
		return
	default:
		if err := h.sessions.Save(r.Context(), token, session); err != nil {
			h.serverError(w, r, err)
			return
		}
	}
	redirect(w, r, "/question")
}

func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	token, session, ok, err := h.loadSession(r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !ok {
		redirect(w, r, "/")
		return
	}

	result, err := h.service.Finalize(r.Context(), &session)
	if err != nil {
		h.quizError(w, r, token, err)
		return
	}
	h.endSession(w, r, token)
	h.render(w, http.StatusOK, "result.html", resultPage{Result: result, Limit: h.service.Settings().LeaderboardLimit})
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Leaderboard(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, http.StatusOK, "leaderboard.html", leaderboardPage{Entries: entries})
}

func (h *Handler) LeaderboardJSON(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Leaderboard(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "request failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// quizError maps state machine errors onto the page the user belongs on.
func (h *Handler) quizError(w http.ResponseWriter, r *http.Request, token string, err error) {
	switch {
	case errors.Is(err, domain.ErrNoActiveSession):
		redirect(w, r, "/")
	case errors.Is(err, domain.ErrQuizComplete):
		redirect(w, r, "/result")
	case errors.Is(err, domain.ErrQuizInProgress):
		redirect(w, r, "/question")
	case errors.Is(err, domain.ErrAwaitingAdvance):
		redirect(w, r, "/feedback")
	case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrQuestionBankMissing):
		// the bank was replaced under a running quiz; start over
		h.endSession(w, r, token)
		redirect(w, r, "/")
	default:
		h.serverError(w, r, err)
	}
}
