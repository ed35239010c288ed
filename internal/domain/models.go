package domain

import "time"

// Question is one multiple-choice entry of the question bank.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correctAnswer"`
	ErrorCount    int      `json:"errorCount"` // running count carried by the bank file
}

// QuizSession is the per-user quiz state. The HTTP layer owns it and hands it by
// reference to the quiz service; the zero value means "not started".
type QuizSession struct {
	Nickname     string    `json:"nickname"`
	QuestionIDs  []string  `json:"questionIds"`
	CurrentIndex int       `json:"currentIndex"`
	Score        float64   `json:"score"`
	Wrong        int       `json:"wrong"`
	StartedAt    time.Time `json:"startedAt"`

	// AwaitingAdvance is set while a feedback interstitial is shown and the
	// index has not moved yet.
	AwaitingAdvance bool   `json:"awaitingAdvance"`
	LastAnswer      string `json:"lastAnswer"`
	LastCorrect     bool   `json:"lastCorrect"`
	LastQuestionID  string `json:"lastQuestionId"`
}

// Active reports whether Start has populated the session.
func (s *QuizSession) Active() bool {
	return s != nil && s.Nickname != "" && len(s.QuestionIDs) > 0 && !s.StartedAt.IsZero()
}

// Finished reports whether every sampled question has been answered and no
// feedback is pending.
func (s *QuizSession) Finished() bool {
	return s.Active() && s.CurrentIndex >= len(s.QuestionIDs) && !s.AwaitingAdvance
}

// QuestionView is what the question page renders.
type QuestionView struct {
	Number    int           `json:"number"` // 1-based
	Total     int           `json:"total"`
	Question  Question      `json:"question"`
	TimeLimit time.Duration `json:"timeLimit"` // display only
}

// Feedback summarizes a single submission for the feedback page.
type Feedback struct {
	QuestionID    string  `json:"questionId"`
	Answer        string  `json:"answer"`
	Correct       bool    `json:"correct"`
	CorrectAnswer string  `json:"correctAnswer"`
	Score         float64 `json:"score"`
	Finished      bool    `json:"finished"`
}

// LeaderboardEntry is one completed attempt on the leaderboard.
type LeaderboardEntry struct {
	Nickname string  `json:"nickname"`
	Score    float64 `json:"score"`
	Time     int     `json:"time"` // elapsed whole seconds
}

// Result is returned by Finalize.
type Result struct {
	Entry LeaderboardEntry `json:"entry"`
	Rank  int              `json:"rank"` // 1-based; 0 when the entry did not make the board
	Wrong int              `json:"wrong"`
}

// Attempt is the archive record of a finished quiz.
type Attempt struct {
	Nickname   string
	Score      float64
	Time       int
	Wrong      int
	FinishedAt time.Time
}

// WrongAnswerStat is one row of the admin statistics view.
type WrongAnswerStat struct {
	QuestionID string `json:"questionId"`
	Prompt     string `json:"prompt"`
	Count      int    `json:"count"`
}
