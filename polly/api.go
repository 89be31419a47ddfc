package polly

import (
	"context"
)

// API defines the interface for Polly operations
type API interface {
	// Register creates a new user account
	Register(ctx context.Context, username, password string) (*RegisterResult, error)

	// Login authenticates and stores the bearer token for later calls
	Login(ctx context.Context, username, password string) (*LoginResult, error)

	// ListPolls fetches a single page of polls
	ListPolls(ctx context.Context, skip, limit int) (*PollPage, error)

	// GetAllPolls fetches every poll across all pages
	GetAllPolls(ctx context.Context) ([]Poll, error)

	// CreatePoll creates a poll owned by the logged-in user
	CreatePoll(ctx context.Context, question string, options []string) (*PollResult, error)

	// GetPoll fetches a single poll by ID
	GetPoll(ctx context.Context, pollID int64) (*PollResult, error)

	// Vote casts a vote for an option on a poll
	Vote(ctx context.Context, pollID, optionID int64) (*VoteResult, error)

	// GetPollResults fetches the vote tally for a poll
	GetPollResults(ctx context.Context, pollID int64) (*TallyResult, error)

	// Ping verifies the server is reachable
	Ping(ctx context.Context) error
}

// TokenHolder exposes the stored bearer token, for callers that persist
// sessions between runs
type TokenHolder interface {
	// Token returns the stored bearer token, or "" before login
	Token() string
}
