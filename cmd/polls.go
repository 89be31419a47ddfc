package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avhagen/pollster/filter"
	"github.com/avhagen/pollster/polly"
)

var (
	listSkip  int
	listLimit int

	pollQuestion string
	pollOptions  []string
)

// pollsCmd represents the polls command group
var pollsCmd = &cobra.Command{
	Use:   "polls",
	Short: "Browse, create, and vote on polls",
}

// pollsListCmd represents the polls list command
var pollsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of polls",
	Long: `List a single page of polls from the server, optionally narrowed
by a filter expression or a named preset from the config file.`,
	RunE: runPollsList,
}

// pollsAllCmd represents the polls all command
var pollsAllCmd = &cobra.Command{
	Use:   "all",
	Short: "List every poll using automatic pagination",
	Long: `Walk every page of polls on the server. With a filter, matching
runs concurrently across the fetched set.`,
	RunE: runPollsAll,
}

// pollsCreateCmd represents the polls create command
var pollsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new poll (requires login)",
	RunE:  runPollsCreate,
}

// pollsGetCmd represents the polls get command
var pollsGetCmd = &cobra.Command{
	Use:   "get <poll-id>",
	Short: "Show a single poll with its options",
	Args:  cobra.ExactArgs(1),
	RunE:  runPollsGet,
}

// pollsVoteCmd represents the polls vote command
var pollsVoteCmd = &cobra.Command{
	Use:   "vote <poll-id> <option-id>",
	Short: "Vote for an option on a poll (requires login)",
	Args:  cobra.ExactArgs(2),
	RunE:  runPollsVote,
}

// pollsResultsCmd represents the polls results command
var pollsResultsCmd = &cobra.Command{
	Use:   "results <poll-id>",
	Short: "Show the vote counts for a poll",
	Args:  cobra.ExactArgs(1),
	RunE:  runPollsResults,
}

func init() {
	rootCmd.AddCommand(pollsCmd)

	pollsCmd.AddCommand(pollsListCmd)
	pollsCmd.AddCommand(pollsAllCmd)
	pollsCmd.AddCommand(pollsCreateCmd)
	pollsCmd.AddCommand(pollsGetCmd)
	pollsCmd.AddCommand(pollsVoteCmd)
	pollsCmd.AddCommand(pollsResultsCmd)

	pollsListCmd.Flags().IntVar(&listSkip, "skip", 0, "number of polls to skip")
	pollsListCmd.Flags().IntVar(&listLimit, "limit", 0, "page size (defaults to the configured page size)")

	for _, c := range []*cobra.Command{pollsListCmd, pollsAllCmd} {
		c.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
		c.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	}

	pollsCreateCmd.Flags().StringVarP(&pollQuestion, "question", "q", "", "poll question")
	pollsCreateCmd.Flags().StringArrayVarP(&pollOptions, "option", "o", nil, "poll option, repeat for each choice")
}

// compileListFilter resolves and compiles the filter for a listing command.
// A nil filter means list everything.
func compileListFilter() (filter.CompiledFilter, error) {
	expr, err := getFilterExpression()
	if err != nil {
		return nil, err
	}
	if expr == "" {
		return nil, nil
	}

	compiled, err := filter.CompileFilter(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	logger.Info().Str("filter", expr).Msg("Searching polls")
	return compiled, nil
}

func runPollsList(cmd *cobra.Command, args []string) error {
	compiled, err := compileListFilter()
	if err != nil {
		return err
	}

	limit := listLimit
	if limit <= 0 {
		limit = cfg.Server.PageSize
	}

	ctx := context.Background()
	page, err := client.ListPolls(ctx, listSkip, limit)
	if err != nil {
		return err
	}
	if page.Warning != "" {
		logger.Warn().Str("warning", page.Warning).Msg("Server response looked unusual")
	}
	if page.Valid < page.Count {
		logger.Warn().Int("count", page.Count).Int("valid", page.Valid).Msg("Some polls did not match the expected shape")
	}

	polls := page.Polls
	if compiled != nil {
		polls = filter.Apply(compiled, polls)
	}

	displayPolls(polls)
	return nil
}

func runPollsAll(cmd *cobra.Command, args []string) error {
	compiled, err := compileListFilter()
	if err != nil {
		return err
	}

	ctx := context.Background()
	polls, err := client.GetAllPolls(ctx)
	if err != nil {
		return err
	}

	if compiled != nil {
		evaluator := filter.NewConcurrentEvaluator()
		polls, err = evaluator.Evaluate(ctx, compiled, polls)
		if err != nil {
			return fmt.Errorf("filter evaluation failed: %w", err)
		}
	}

	displayPolls(polls)
	return nil
}

// displayPolls prints the summary list shared by list and all.
func displayPolls(polls []polly.Poll) {
	if len(polls) == 0 {
		fmt.Println("No polls found matching the criteria.")
		return
	}

	pollText := "poll"
	if len(polls) != 1 {
		pollText = "polls"
	}
	fmt.Printf("\nFound %d %s:\n", len(polls), pollText)
	fmt.Println(strings.Repeat("-", 80))

	for _, poll := range polls {
		optionText := "option"
		if len(poll.Options) != 1 {
			optionText = "options"
		}
		fmt.Printf("• [%d] %s (%d %s)", poll.ID, poll.Question, len(poll.Options), optionText)
		if created, ok := poll.CreatedTime(); ok {
			fmt.Printf(" created %s", created.Format("2006-01-02"))
		}
		fmt.Println()
	}
}

func runPollsCreate(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(pollQuestion)
	options := make([]string, 0, len(pollOptions))
	for _, opt := range pollOptions {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			options = append(options, trimmed)
		}
	}

	// Prompt for whatever the flags did not provide
	reader := bufio.NewReader(os.Stdin)
	if question == "" {
		fmt.Printf("Question: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read question: %w", err)
		}
		question = strings.TrimSpace(line)
	}
	if len(options) == 0 {
		fmt.Println("Enter options one per line, blank line to finish:")
		for {
			fmt.Printf("Option %d: ", len(options)+1)
			line, err := reader.ReadString('\n')
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return fmt.Errorf("failed to read option: %w", err)
			}
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				break
			}
			options = append(options, trimmed)
		}
	}

	ctx := context.Background()
	result, err := client.CreatePoll(ctx, question, options)
	if err != nil {
		return err
	}

	if result.Warning != "" {
		logger.Warn().Str("warning", result.Warning).Msg("Server response looked unusual")
	}

	fmt.Println("✓ Poll created:")
	fmt.Println(strings.Repeat("-", 40))
	fmt.Print(formatPoll(result.Poll))
	return nil
}

func runPollsGet(cmd *cobra.Command, args []string) error {
	pollID, err := parseID(args[0], "poll ID")
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := client.GetPoll(ctx, pollID)
	if err != nil {
		return err
	}

	if result.Warning != "" {
		logger.Warn().Str("warning", result.Warning).Msg("Server response looked unusual")
	}

	fmt.Print(formatPoll(result.Poll))
	return nil
}

func runPollsVote(cmd *cobra.Command, args []string) error {
	pollID, err := parseID(args[0], "poll ID")
	if err != nil {
		return err
	}
	optionID, err := parseID(args[1], "option ID")
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := client.Vote(ctx, pollID, optionID); err != nil {
		return err
	}

	fmt.Printf("✓ Vote recorded on poll %d\n", pollID)
	fmt.Printf("Run 'pollster polls results %d' to see the tally.\n", pollID)
	return nil
}

func runPollsResults(cmd *cobra.Command, args []string) error {
	pollID, err := parseID(args[0], "poll ID")
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := client.GetPollResults(ctx, pollID)
	if err != nil {
		return err
	}

	tally := result.Tally
	total := tally.TotalVotes()

	fmt.Printf("Results for poll %d: %s\n", tally.PollID, tally.Question)
	fmt.Println(strings.Repeat("-", 60))

	for _, entry := range tally.Results {
		voteText := "vote"
		if entry.VoteCount != 1 {
			voteText = "votes"
		}
		line := fmt.Sprintf("%d %s", entry.VoteCount, voteText)
		if total > 0 {
			line = fmt.Sprintf("%s (%.1f%%)", line, float64(entry.VoteCount)/float64(total)*100)
		}
		fmt.Printf("  %-30s %s\n", entry.Text, line)
	}

	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("Total: %d\n", total)
	return nil
}

// formatPoll renders the full details block for a single poll.
func formatPoll(poll polly.Poll) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Poll ID: %d\n", poll.ID)
	fmt.Fprintf(&b, "Question: %s\n", poll.Question)
	fmt.Fprintf(&b, "Created: %s\n", formatCreated(poll))
	fmt.Fprintf(&b, "Owner ID: %d\n", poll.OwnerID)
	fmt.Fprintf(&b, "Options (%d):\n", len(poll.Options))
	for i, option := range poll.Options {
		fmt.Fprintf(&b, "  %d. %s (ID: %d)\n", i+1, option.Text, option.ID)
	}
	return b.String()
}

// formatCreated falls back to the raw server timestamp when it cannot
// be parsed.
func formatCreated(poll polly.Poll) string {
	if created, ok := poll.CreatedTime(); ok {
		return created.UTC().Format("2006-01-02 15:04:05") + " UTC"
	}
	return poll.CreatedAt
}

// parseID parses a positive integer command argument.
func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s '%s': must be a positive integer", what, arg)
	}
	return id, nil
}
