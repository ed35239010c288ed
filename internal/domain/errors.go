package domain

import "errors"

var (
	// ErrInvalidNickname is returned when a nickname is blank or hits the denylist.
	ErrInvalidNickname = errors.New("invalid nickname")
	// ErrInsufficientQuestions means the bank holds fewer questions than one quiz samples.
	ErrInsufficientQuestions = errors.New("insufficient questions in bank")
	// ErrNoActiveSession is returned when an operation runs before Start.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrQuizComplete signals that every sampled question has been answered.
	ErrQuizComplete = errors.New("quiz complete")
	// ErrQuizInProgress is returned when Finalize runs before the last answer.
	ErrQuizInProgress = errors.New("quiz still in progress")
	// ErrAwaitingAdvance means feedback is pending and the user must move on explicitly.
	ErrAwaitingAdvance = errors.New("feedback pending, advance first")
	// ErrNothingToAdvance is returned by Advance when no feedback is pending.
	ErrNothingToAdvance = errors.New("no feedback pending")
	// ErrQuestionNotFound indicates a sampled question ID no longer exists in the bank.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrQuestionBankMissing indicates the question bank file does not exist.
	ErrQuestionBankMissing = errors.New("question bank missing")
	// ErrQuestionBankMalformed indicates required columns are absent or IDs repeat.
	ErrQuestionBankMalformed = errors.New("question bank malformed")
	// ErrLeaderboardCorrupt marks a persisted leaderboard row that could not be parsed.
	ErrLeaderboardCorrupt = errors.New("leaderboard row corrupt")
)
