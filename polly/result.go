package polly

import "encoding/json"

// Envelope carries the normalized metadata shared by every successful
// operation result.
type Envelope struct {
	// StatusCode is the HTTP status the server answered with.
	StatusCode int
	// Warning is set when the response body does not match the shape the
	// server is documented to return. It is advisory; the operation still
	// succeeded and the decoded fields hold whatever could be extracted.
	Warning string
	// Raw is the response body as received.
	Raw json.RawMessage
}

// RegisterResult is the outcome of a successful Register call.
type RegisterResult struct {
	Envelope
	User User
}

// LoginResult is the outcome of a successful Login call. AccessToken is
// empty when the server answered without one; in that case the client keeps
// its previous token.
type LoginResult struct {
	Envelope
	AccessToken string
	TokenType   string
}

// PollPage is one page of polls from ListPolls.
type PollPage struct {
	Envelope
	// Polls holds every entry the server returned, including entries that
	// failed the shape check.
	Polls []Poll
	// Count is the number of entries in Polls.
	Count int
	// Valid is the number of entries that passed the shape check.
	Valid int
	// Skip and Limit echo the request parameters.
	Skip  int
	Limit int
}

// PollResult is the outcome of CreatePoll and GetPoll.
type PollResult struct {
	Envelope
	Poll Poll
}

// VoteResult is the outcome of a successful Vote call. The server's
// acknowledgment body is available through Raw.
type VoteResult struct {
	Envelope
}

// TallyResult is the outcome of GetPollResults.
type TallyResult struct {
	Envelope
	Tally Tally
}
