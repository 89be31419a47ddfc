package polly

import (
	"encoding/json"
	"math"
	"time"
)

// User represents a registered Polly account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Option represents a single choice within a poll.
type Option struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	PollID int64  `json:"poll_id"`
}

// Poll represents a poll with its options.
//
// CreatedAt is kept as the raw string from the server. Polly emits naive
// ISO 8601 timestamps without a timezone, which are not valid RFC 3339 and
// would fail a time.Time decode. Use CreatedTime to parse it.
type Poll struct {
	ID        int64    `json:"id"`
	Question  string   `json:"question"`
	CreatedAt string   `json:"created_at"`
	OwnerID   int64    `json:"owner_id"`
	Options   []Option `json:"options"`
}

// CreatedTime parses the poll's creation timestamp. It accepts RFC 3339
// (with or without fractional seconds), the naive form the server emits, and
// a bare date. The second return value is false when nothing matched.
func (p Poll) CreatedTime() (time.Time, bool) {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, p.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// OptionTally is one row of a poll's results.
type OptionTally struct {
	Text      string `json:"text"`
	VoteCount int64  `json:"vote_count"`
}

// Tally represents the vote counts for a poll.
type Tally struct {
	PollID   int64         `json:"poll_id"`
	Question string        `json:"question"`
	Results  []OptionTally `json:"results"`
}

// TotalVotes sums the vote counts across all options.
func (t Tally) TotalVotes() int64 {
	var total int64
	for _, r := range t.Results {
		total += r.VoteCount
	}
	return total
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createPollRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type voteRequest struct {
	OptionID int64 `json:"option_id"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Shape validators mirror the schemas the server is documented to return.
// They are shallow checks over the decoded JSON and feed the advisory
// Warning on results; a failed check never fails an operation.

func validUserShape(raw json.RawMessage) bool {
	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return false
	}
	return hasInt(m, "id") && hasString(m, "username")
}

func validPollShape(raw json.RawMessage) bool {
	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return false
	}
	if _, ok := m["created_at"]; !ok {
		return false
	}
	if !hasInt(m, "id") || !hasString(m, "question") || !hasInt(m, "owner_id") {
		return false
	}
	opts, ok := m["options"].([]any)
	if !ok {
		return false
	}
	for _, o := range opts {
		om, ok := o.(map[string]any)
		if !ok || !validOptionShape(om) {
			return false
		}
	}
	return true
}

func validOptionShape(m map[string]any) bool {
	return hasInt(m, "id") && hasString(m, "text") && hasInt(m, "poll_id")
}

// hasInt reports whether key holds a JSON integer. Numbers decode as float64
// in an untyped map, so integrality has to be checked explicitly.
func hasInt(m map[string]any, key string) bool {
	f, ok := m[key].(float64)
	return ok && f == math.Trunc(f)
}

func hasString(m map[string]any, key string) bool {
	_, ok := m[key].(string)
	return ok
}
