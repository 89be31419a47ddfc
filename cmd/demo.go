package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/avhagen/pollster/polly"
)

// demoCmd represents the demo command
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a guided walkthrough against the poll server",
	Long: `Exercise the full client flow against a live server: register a
throwaway account, log in, browse polls, create a poll, vote on it, and
show the results.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

const demoSteps = 8

func demoStep(n int, title string) {
	fmt.Printf("\n[%d/%d] %s\n", n, demoSteps, title)
	fmt.Println(strings.Repeat("-", 40))
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	username := fmt.Sprintf("demo_user_%s", uuid.NewString()[:8])
	password := "demo_password_123"

	fmt.Printf("Using server %s\n", client.BaseURL())

	demoStep(1, "Registering "+username)
	reg, err := client.Register(ctx, username, password)
	switch {
	case err == nil:
		fmt.Printf("✓ Registered with user ID %d\n", reg.User.ID)
	case polly.IsKind(err, polly.KindBadRequest):
		// A clashing username is survivable, login will tell
		fmt.Printf("✗ Registration rejected: %v\n", err)
	default:
		return err
	}

	demoStep(2, "Logging in")
	login, err := client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Logged in (token type: %s)\n", login.TokenType)

	demoStep(3, "Fetching the first five polls")
	page, err := client.ListPolls(ctx, 0, 5)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Server returned %d polls\n", page.Count)
	for i, poll := range page.Polls {
		fmt.Printf("  %d. %s (ID: %d)\n", i+1, truncate(poll.Question, 40), poll.ID)
	}

	demoStep(4, "Creating a new poll")
	created, err := client.CreatePoll(ctx, "What's the best way to learn programming?", []string{
		"Online tutorials and courses",
		"Books and documentation",
		"Practice projects",
		"Coding bootcamps",
	})
	if err != nil {
		return err
	}
	pollID := created.Poll.ID
	fmt.Printf("✓ Created poll %d with %d options\n", pollID, len(created.Poll.Options))

	demoStep(5, "Fetching the poll details")
	details, err := client.GetPoll(ctx, pollID)
	if err != nil {
		return err
	}
	fmt.Print(formatPoll(details.Poll))

	demoStep(6, "Voting")
	if len(details.Poll.Options) == 0 {
		return fmt.Errorf("poll %d has no options to vote on", pollID)
	}
	choice := details.Poll.Options[len(details.Poll.Options)/2]
	fmt.Printf("Voting for %q\n", choice.Text)
	if _, err := client.Vote(ctx, pollID, choice.ID); err != nil {
		return err
	}
	fmt.Println("✓ Vote recorded")

	// A second vote on the same poll shows the duplicate rejection
	if _, err := client.Vote(ctx, pollID, choice.ID); err != nil {
		fmt.Printf("✓ Second vote rejected as expected: %v\n", err)
	}

	demoStep(7, "Fetching the results")
	results, err := client.GetPollResults(ctx, pollID)
	if err != nil {
		return err
	}
	printTallyChart(results.Tally)

	demoStep(8, "Walking every page")
	all, err := client.GetAllPolls(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Retrieved all %d polls with automatic pagination\n", len(all))

	fmt.Println("\n✓ Demo complete!")
	return nil
}

// printTallyChart renders vote counts with a proportional bar.
func printTallyChart(tally polly.Tally) {
	total := tally.TotalVotes()
	fmt.Printf("Results for: %s\n", tally.Question)
	fmt.Printf("Total votes: %d\n\n", total)

	for i, entry := range tally.Results {
		var pct float64
		if total > 0 {
			pct = float64(entry.VoteCount) / float64(total) * 100
		}
		bar := strings.Repeat("█", int(pct/2))
		fmt.Printf("%d. %s\n", i+1, entry.Text)
		fmt.Printf("   %d votes (%.1f%%) %s\n", entry.VoteCount, pct, bar)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
