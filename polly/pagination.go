package polly

import (
	"context"
	"errors"
	"fmt"
)

// GetAllPolls walks every page of polls and returns them in server order.
// Pages are fetched with the client's configured page size; the final short
// or empty page is included. The first page failure is returned as-is with
// no partial results.
func (c *Client) GetAllPolls(ctx context.Context) ([]Poll, error) {
	var all []Poll
	skip := 0
	pages := 0

	for {
		page, err := c.ListPolls(ctx, skip, c.pageSize)
		if err != nil {
			var apiErr *Error
			if errors.As(err, &apiErr) {
				return nil, err
			}
			// Anything outside the taxonomy gets wrapped rather than leaked.
			return nil, &Error{
				Kind:    KindUnexpected,
				Message: fmt.Sprintf("Error fetching all polls: %v", err),
				err:     err,
			}
		}

		pages++
		all = append(all, page.Polls...)
		// A short page means the server ran out of polls.
		if len(page.Polls) < c.pageSize {
			break
		}
		skip += c.pageSize
	}

	c.logger.Debug().Int("total", len(all)).Int("pages", pages).Msg("fetched all polls")
	return all, nil
}
