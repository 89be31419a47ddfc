package polly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// Warning messages set on results when a response fails its shape check.
const (
	warnUserShape = "response does not match the expected user shape"
	warnPollShape = "response does not match the expected poll shape"
	warnNotArray  = "response is not an array"
)

// Register creates a new user account. The server enforces username
// uniqueness and answers 400 for duplicates.
func (c *Client) Register(ctx context.Context, username, password string) (*RegisterResult, error) {
	if username == "" || password == "" {
		return nil, newValidationError("Username and password are required")
	}

	c.logger.Debug().Str("username", username).Msg("registering user")

	env, err := c.call(ctx, apiRequest{
		method:   http.MethodPost,
		endpoint: "/register",
		jsonBody: registerRequest{Username: username, Password: password},
	})
	if err != nil {
		return nil, err
	}

	res := &RegisterResult{Envelope: env}
	if !validUserShape(env.Raw) {
		res.Warning = warnUserShape
		c.logger.Warn().Str("username", username).Msg(warnUserShape)
	}
	// Decoding is best-effort; Warning already flags shape problems.
	_ = json.Unmarshal(env.Raw, &res.User)

	c.logger.Info().Int64("user_id", res.User.ID).Str("username", username).Msg("user registered")
	return res, nil
}

// Login authenticates against the server and stores the returned bearer
// token on the client for subsequent authenticated calls. The endpoint takes
// form-encoded credentials, not JSON. When the response carries no access
// token, the previous token (if any) is kept.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, newValidationError("Username and password are required")
	}

	c.logger.Debug().Str("username", username).Msg("logging in")

	env, err := c.call(ctx, apiRequest{
		method:   http.MethodPost,
		endpoint: "/login",
		formData: map[string]string{
			"username": username,
			"password": password,
		},
	})
	if err != nil {
		return nil, err
	}

	res := &LoginResult{Envelope: env}
	var lr loginResponse
	_ = json.Unmarshal(env.Raw, &lr)
	res.AccessToken = lr.AccessToken
	res.TokenType = lr.TokenType

	if lr.AccessToken == "" {
		c.logger.Warn().Str("username", username).Msg("login response carried no access token")
		return res, nil
	}

	c.setToken(lr.AccessToken)
	c.logger.Info().Str("username", username).Msg("login successful, token stored")
	return res, nil
}

// ListPolls fetches one page of polls. Skip must be >= 0 and limit must be
// > 0; the bounds are checked before any request is sent. Entries that fail
// the shape check are kept in the page and counted apart via Valid.
func (c *Client) ListPolls(ctx context.Context, skip, limit int) (*PollPage, error) {
	if skip < 0 || limit <= 0 {
		return nil, newValidationError("Skip must be >= 0 and limit must be > 0")
	}

	c.logger.Debug().Int("skip", skip).Int("limit", limit).Msg("fetching polls")

	env, err := c.call(ctx, apiRequest{
		method:   http.MethodGet,
		endpoint: "/polls",
		query: map[string]string{
			"skip":  strconv.Itoa(skip),
			"limit": strconv.Itoa(limit),
		},
	})
	if err != nil {
		return nil, err
	}

	page := &PollPage{Envelope: env, Skip: skip, Limit: limit}
	if !isJSONArray(env.Raw) {
		page.Warning = warnNotArray
		c.logger.Warn().Msg("poll list " + warnNotArray)
		return page, nil
	}

	var rawPolls []json.RawMessage
	if err := json.Unmarshal(env.Raw, &rawPolls); err != nil {
		page.Warning = warnNotArray
		return page, nil
	}

	page.Polls = make([]Poll, 0, len(rawPolls))
	for _, rp := range rawPolls {
		var p Poll
		_ = json.Unmarshal(rp, &p)
		if validPollShape(rp) {
			page.Valid++
		} else {
			c.logger.Warn().Int64("poll_id", p.ID).Msg("poll has invalid structure")
		}
		page.Polls = append(page.Polls, p)
	}
	page.Count = len(page.Polls)

	c.logger.Debug().Int("count", page.Count).Int("valid", page.Valid).Msg("fetched polls")
	return page, nil
}

// CreatePoll creates a new poll owned by the logged-in user. The token check
// runs before argument validation; a question and at least two options are
// required.
func (c *Client) CreatePoll(ctx context.Context, question string, options []string) (*PollResult, error) {
	token := c.Token()
	if token == "" {
		return nil, newAuthRequiredError("Please login first to create polls")
	}
	if question == "" || len(options) < 2 {
		return nil, newValidationError("Question and at least 2 options are required")
	}

	c.logger.Debug().Str("question", question).Int("options", len(options)).Msg("creating poll")

	env, err := c.call(ctx, apiRequest{
		method:   http.MethodPost,
		endpoint: "/polls",
		jsonBody: createPollRequest{Question: question, Options: options},
		bearer:   token,
	})
	if err != nil {
		return nil, err
	}

	res := &PollResult{Envelope: env}
	if !validPollShape(env.Raw) {
		res.Warning = warnPollShape
		c.logger.Warn().Msg("create poll " + warnPollShape)
	}
	_ = json.Unmarshal(env.Raw, &res.Poll)

	c.logger.Info().Int64("poll_id", res.Poll.ID).Msg("poll created")
	return res, nil
}

// GetPoll fetches a single poll by ID.
func (c *Client) GetPoll(ctx context.Context, pollID int64) (*PollResult, error) {
	if pollID <= 0 {
		return nil, newValidationError("Poll ID must be a positive integer")
	}

	c.logger.Debug().Int64("poll_id", pollID).Msg("fetching poll")

	env, err := c.call(ctx, apiRequest{
		method:   http.MethodGet,
		endpoint: fmt.Sprintf("/polls/%d", pollID),
	})
	if err != nil {
		return nil, err
	}

	res := &PollResult{Envelope: env}
	if !validPollShape(env.Raw) {
		res.Warning = warnPollShape
		c.logger.Warn().Int64("poll_id", pollID).Msg("poll " + warnPollShape)
	}
	_ = json.Unmarshal(env.Raw, &res.Poll)
	return res, nil
}

// Vote casts a vote for an option on a poll. The token check runs before the
// ID checks, and the poll ID is checked before the option ID.
func (c *Client) Vote(ctx context.Context, pollID, optionID int64) (*VoteResult, error) {
	token := c.Token()
	if token == "" {
		return nil, newAuthRequiredError("Please login first to vote on polls")
	}
	if pollID <= 0 {
		return nil, newValidationError("Poll ID must be a positive integer")
	}
	if optionID <= 0 {
		return nil, newValidationError("Option ID must be a positive integer")
	}

	c.logger.Debug().Int64("poll_id", pollID).Int64("option_id", optionID).Msg("voting")

	env, err := c.call(ctx, apiRequest{
		method:   http.MethodPost,
		endpoint: fmt.Sprintf("/polls/%d/vote", pollID),
		jsonBody: voteRequest{OptionID: optionID},
		bearer:   token,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info().Int64("poll_id", pollID).Int64("option_id", optionID).Msg("vote recorded")
	return &VoteResult{Envelope: env}, nil
}

// GetPollResults fetches the vote tally for a poll.
func (c *Client) GetPollResults(ctx context.Context, pollID int64) (*TallyResult, error) {
	if pollID <= 0 {
		return nil, newValidationError("Poll ID must be a positive integer")
	}

	c.logger.Debug().Int64("poll_id", pollID).Msg("fetching poll results")

	env, err := c.call(ctx, apiRequest{
		method:   http.MethodGet,
		endpoint: fmt.Sprintf("/polls/%d/results", pollID),
	})
	if err != nil {
		return nil, err
	}

	res := &TallyResult{Envelope: env}
	_ = json.Unmarshal(env.Raw, &res.Tally)
	return res, nil
}

// Ping verifies the server is reachable by requesting the first poll page.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListPolls(ctx, 0, 1)
	return err
}

// isJSONArray reports whether raw starts a JSON array. A body of "null"
// decodes into a nil slice without error, so the unmarshal result alone
// cannot distinguish an array from null.
func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
