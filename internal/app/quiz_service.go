package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"csv-quiz-service/internal/domain"
)

// StartingScore is the score every quiz begins with.
const StartingScore = 100

// SessionRepository abstracts where per-user quiz sessions live (in-memory, Redis).
type SessionRepository interface {
	Get(ctx context.Context, token string) (domain.QuizSession, bool, error)
	Save(ctx context.Context, token string, session domain.QuizSession) error
	Delete(ctx context.Context, token string) error
}

// QuestionRepository serves the current question bank.
type QuestionRepository interface {
	Questions(ctx context.Context) ([]domain.Question, error)
	Question(ctx context.Context, id string) (domain.Question, error)
	Replace(ctx context.Context, r io.Reader) ([]domain.Question, error)
}

// LeaderboardRepository persists the ranked leaderboard. Update must serialize
// the whole load-modify-save cycle.
type LeaderboardRepository interface {
	Load(ctx context.Context) ([]domain.LeaderboardEntry, error)
	Update(ctx context.Context, fn func([]domain.LeaderboardEntry) []domain.LeaderboardEntry) ([]domain.LeaderboardEntry, error)
	Export(ctx context.Context, w io.Writer) error
}

// WrongAnswerRecorder keeps the cumulative wrong-answer count per question.
type WrongAnswerRecorder interface {
	Increment(ctx context.Context, questionID string) error
	Counts(ctx context.Context) (map[string]int, error)
	Reset(ctx context.Context) error
}

// AttemptArchive stores the full history of finished attempts.
type AttemptArchive interface {
	Archive(ctx context.Context, attempt domain.Attempt) error
	Recent(ctx context.Context, limit int) ([]domain.Attempt, error)
}

// Settings are the deployment knobs of the quiz.
type Settings struct {
	SampleSize        int
	Penalty           float64
	ImmediateFeedback bool
	TimeLimit         time.Duration
	LeaderboardLimit  int
	Denylist          []string
}

// DefaultSettings mirrors the classic deployment: 40 questions, 2.5 points per miss.
func DefaultSettings() Settings {
	return Settings{
		SampleSize:       40,
		Penalty:          2.5,
		TimeLimit:        30 * time.Second,
		LeaderboardLimit: domain.DefaultLeaderboardLimit,
		Denylist:         DefaultDenylist,
	}
}

// QuizService drives a single user's quiz from start to result. It holds no
// per-user state; callers pass the session in by reference.
type QuizService struct {
	settings    Settings
	questions   QuestionRepository
	leaderboard LeaderboardRepository
	stats       WrongAnswerRecorder
	archive     AttemptArchive
	board       *Broadcaster
	now         func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand

	// recordMu keeps leaderboard saves and their publication in the same order.
	recordMu sync.Mutex
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithClock overrides time.Now, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithRand overrides the sampler's random source.
func WithRand(rnd *rand.Rand) Option {
	return func(s *QuizService) { s.rnd = rnd }
}

// WithArchive enables the attempt archive.
func WithArchive(archive AttemptArchive) Option {
	return func(s *QuizService) { s.archive = archive }
}

// WithBroadcaster publishes every new leaderboard to b.
func WithBroadcaster(b *Broadcaster) Option {
	return func(s *QuizService) { s.board = b }
}

func NewQuizService(settings Settings, questions QuestionRepository, leaderboard LeaderboardRepository, stats WrongAnswerRecorder, opts ...Option) *QuizService {
	defaults := DefaultSettings()
	if settings.SampleSize <= 0 {
		settings.SampleSize = defaults.SampleSize
	}
	if settings.Penalty <= 0 {
		settings.Penalty = defaults.Penalty
	}
	if settings.LeaderboardLimit <= 0 {
		settings.LeaderboardLimit = defaults.LeaderboardLimit
	}
	if settings.Denylist == nil {
		settings.Denylist = defaults.Denylist
	}

	s := &QuizService{
		settings:    settings,
		questions:   questions,
		leaderboard: leaderboard,
		stats:       stats,
		board:       NewBroadcaster(),
		now:         time.Now,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the effective settings.
func (s *QuizService) Settings() Settings {
	return s.settings
}

// Start validates the nickname, samples the quiz and resets session. On error
// session is left unchanged.
func (s *QuizService) Start(ctx context.Context, session *domain.QuizSession, nickname string) error {
	name, err := ValidateNickname(nickname, s.settings.Denylist)
	if err != nil {
		return err
	}

	bank, err := s.questions.Questions(ctx)
	if err != nil {
		return err
	}
	n := s.settings.SampleSize
	if len(bank) < n {
		return fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientQuestions, len(bank), n)
	}

	s.rndMu.Lock()
	perm := s.rnd.Perm(len(bank))
	s.rndMu.Unlock()

	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = bank[perm[i]].ID
	}

	*session = domain.QuizSession{
		Nickname:     name,
		QuestionIDs:  ids,
		CurrentIndex: 0,
		Score:        StartingScore,
		StartedAt:    s.now(),
	}
	return nil
}

// CurrentQuestion returns the next unanswered question.
func (s *QuizService) CurrentQuestion(ctx context.Context, session *domain.QuizSession) (domain.QuestionView, error) {
	if !session.Active() {
		return domain.QuestionView{}, domain.ErrNoActiveSession
	}
	if session.AwaitingAdvance {
		return domain.QuestionView{}, domain.ErrAwaitingAdvance
	}
	if session.CurrentIndex >= len(session.QuestionIDs) {
		return domain.QuestionView{}, domain.ErrQuizComplete
	}

	question, err := s.questions.Question(ctx, session.QuestionIDs[session.CurrentIndex])
	if err != nil {
		return domain.QuestionView{}, err
	}
	return domain.QuestionView{
		Number:    session.CurrentIndex + 1,
		Total:     len(session.QuestionIDs),
		Question:  question,
		TimeLimit: s.settings.TimeLimit,
	}, nil
}

// SubmitAnswer scores answer against the current question.
func (s *QuizService) SubmitAnswer(ctx context.Context, session *domain.QuizSession, answer string) (domain.Feedback, error) {
	if !session.Active() {
		return domain.Feedback{}, domain.ErrNoActiveSession
	}
	if session.AwaitingAdvance {
		return domain.Feedback{}, domain.ErrAwaitingAdvance
	}
	if session.CurrentIndex >= len(session.QuestionIDs) {
		return domain.Feedback{}, domain.ErrQuizComplete
	}

	questionID := session.QuestionIDs[session.CurrentIndex]
	question, err := s.questions.Question(ctx, questionID)
	if err != nil {
		return domain.Feedback{}, err
	}

	correct := answer == question.CorrectAnswer
	if !correct {
		session.Score -= s.settings.Penalty
		session.Wrong++
		if s.stats != nil {
			if err := s.stats.Increment(ctx, questionID); err != nil {
				log.Printf("record wrong answer for %s: %v", questionID, err)
			}
		}
	}
	session.LastAnswer = answer
	session.LastCorrect = correct
	session.LastQuestionID = questionID

	if s.settings.ImmediateFeedback {
		session.AwaitingAdvance = true
	} else {
		session.CurrentIndex++
	}

	return s.feedback(session, question), nil
}

// LastFeedback rebuilds the feedback for the most recent submission.
func (s *QuizService) LastFeedback(ctx context.Context, session *domain.QuizSession) (domain.Feedback, error) {
	if !session.Active() || session.LastQuestionID == "" {
		return domain.Feedback{}, domain.ErrNoActiveSession
	}
	question, err := s.questions.Question(ctx, session.LastQuestionID)
	if err != nil {
		return domain.Feedback{}, err
	}
	return s.feedback(session, question), nil
}

func (s *QuizService) feedback(session *domain.QuizSession, question domain.Question) domain.Feedback {
	remaining := len(session.QuestionIDs) - session.CurrentIndex
	if session.AwaitingAdvance {
		remaining--
	}
	return domain.Feedback{
		QuestionID:    question.ID,
		Answer:        session.LastAnswer,
		Correct:       session.LastCorrect,
		CorrectAnswer: question.CorrectAnswer,
		Score:         session.Score,
		Finished:      remaining <= 0,
	}
}

// Advance moves past a feedback interstitial.
func (s *QuizService) Advance(session *domain.QuizSession) error {
	if !session.Active() {
		return domain.ErrNoActiveSession
	}
	if !session.AwaitingAdvance {
		return domain.ErrNothingToAdvance
	}
	session.AwaitingAdvance = false
	session.CurrentIndex++
	return nil
}

// Finalize records a finished quiz on the leaderboard.
func (s *QuizService) Finalize(ctx context.Context, session *domain.QuizSession) (domain.Result, error) {
	if !session.Active() {
		return domain.Result{}, domain.ErrNoActiveSession
	}
	if !session.Finished() {
		return domain.Result{}, domain.ErrQuizInProgress
	}

	now := s.now()
	elapsed := int(now.Sub(session.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	entry := domain.LeaderboardEntry{
		Nickname: session.Nickname,
		Score:    session.Score,
		Time:     elapsed,
	}

	rank, err := s.record(ctx, entry)
	if err != nil {
		return domain.Result{}, err
	}

	if s.archive != nil {
		attempt := domain.Attempt{
			Nickname:   entry.Nickname,
			Score:      entry.Score,
			Time:       entry.Time,
			Wrong:      session.Wrong,
			FinishedAt: now,
		}
		if err := s.archive.Archive(ctx, attempt); err != nil {
			log.Printf("archive attempt for %s: %v", entry.Nickname, err)
		}
	}

	return domain.Result{Entry: entry, Rank: rank, Wrong: session.Wrong}, nil
}

// record inserts entry into the leaderboard and publishes the saved board.
func (s *QuizService) record(ctx context.Context, entry domain.LeaderboardEntry) (int, error) {
	s.recordMu.Lock()
	defer s.recordMu.Unlock()

	rank := 0
	board, err := s.leaderboard.Update(ctx, func(current []domain.LeaderboardEntry) []domain.LeaderboardEntry {
		var ranked []domain.LeaderboardEntry
		ranked, rank = domain.InsertRanked(current, entry, s.settings.LeaderboardLimit)
		return ranked
	})
	if err != nil {
		return 0, fmt.Errorf("update leaderboard: %w", err)
	}
	if s.board != nil {
		s.board.Publish(board)
	}
	return rank, nil
}

// Leaderboard returns the persisted ranking.
func (s *QuizService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.leaderboard.Load(ctx)
}

// Subscribe streams leaderboard snapshots, starting with the current one.
// The caller must invoke the returned cancel function.
func (s *QuizService) Subscribe(ctx context.Context) (<-chan []domain.LeaderboardEntry, func(), error) {
	current, err := s.leaderboard.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.board.Subscribe(current)
	return ch, cancel, nil
}

// ExportLeaderboard writes the persisted leaderboard file to w.
func (s *QuizService) ExportLeaderboard(ctx context.Context, w io.Writer) error {
	return s.leaderboard.Export(ctx, w)
}

// WrongAnswerStats lists every bank question with its cumulative wrong-answer
// count, most missed first.
func (s *QuizService) WrongAnswerStats(ctx context.Context) ([]domain.WrongAnswerStat, error) {
	bank, err := s.questions.Questions(ctx)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	if s.stats != nil {
		if counts, err = s.stats.Counts(ctx); err != nil {
			return nil, fmt.Errorf("load wrong answer counts: %w", err)
		}
	}

	stats := make([]domain.WrongAnswerStat, 0, len(bank))
	for _, q := range bank {
		stats = append(stats, domain.WrongAnswerStat{
			QuestionID: q.ID,
			Prompt:     q.Prompt,
			Count:      q.ErrorCount + counts[q.ID],
		})
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})
	return stats, nil
}

// RecentAttempts returns the newest archived attempts, or nil when no archive
// is configured.
func (s *QuizService) RecentAttempts(ctx context.Context, limit int) ([]domain.Attempt, error) {
	if s.archive == nil {
		return nil, nil
	}
	return s.archive.Recent(ctx, limit)
}

// ReplaceQuestionBank swaps in a new bank wholesale and clears the recorded
// wrong-answer counts, which belonged to the old bank.
func (s *QuizService) ReplaceQuestionBank(ctx context.Context, r io.Reader) (int, error) {
	bank, err := s.questions.Replace(ctx, r)
	if err != nil {
		return 0, err
	}
	if s.stats != nil {
		if err := s.stats.Reset(ctx); err != nil {
			log.Printf("reset wrong answer stats: %v", err)
		}
	}
	log.Printf("question bank replaced: %d questions", len(bank))
	return len(bank), nil
}
