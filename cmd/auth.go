package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/avhagen/pollster/session"
)

var (
	authUsername string
	authPassword string
)

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register [username]",
	Short: "Create a new account on the poll server",
	Long:  `Create a new account on the configured poll server. Missing credentials are prompted for.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRegister,
}

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in and store the session for later commands",
	Long: `Log in to the poll server and store the access token so that
later commands such as 'polls create' and 'polls vote' are authenticated.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session for the current server",
	RunE:  runLogout,
}

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show which account the stored session belongs to",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVarP(&authUsername, "username", "u", "", "account username")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "account password (prompted when omitted)")
	}
}

func runRegister(cmd *cobra.Command, args []string) error {
	username, password, err := credentials(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := client.Register(ctx, username, password)
	if err != nil {
		return err
	}

	if result.Warning != "" {
		logger.Warn().Str("warning", result.Warning).Msg("Server response looked unusual")
	}

	fmt.Printf("✓ Registered %s (ID: %d)\n", result.User.Username, result.User.ID)
	fmt.Println("Run 'pollster login' to start voting.")
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	username, password, err := credentials(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	if client.Token() == "" {
		return fmt.Errorf("server did not return an access token")
	}
	logger.Debug().Str("token_type", result.TokenType).Msg("Login accepted")

	rec := session.Record{
		Token:    client.Token(),
		Username: username,
		SavedAt:  time.Now().UTC(),
	}
	if err := sessions.Save(cfg.Server.URL, rec); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist session, login lasts for this run only")
	}

	fmt.Printf("✓ Logged in as %s\n", username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	rec := currentSession()
	if rec == nil {
		fmt.Println("No stored session for this server.")
		return nil
	}

	if err := sessions.Delete(cfg.Server.URL); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}

	fmt.Printf("✓ Logged out %s\n", rec.Username)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	rec := currentSession()
	if rec == nil {
		fmt.Println("Not logged in.")
		return nil
	}

	fmt.Printf("Logged in as %s on %s\n", rec.Username, cfg.Server.URL)
	fmt.Printf("Session saved %s\n", rec.SavedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

// credentials resolves the username and password from the positional
// argument and flags, prompting for anything missing.
func credentials(args []string) (string, string, error) {
	username := strings.TrimSpace(authUsername)
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}
	password := authPassword

	reader := bufio.NewReader(os.Stdin)
	if username == "" {
		fmt.Printf("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if password == "" {
		fmt.Printf("Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}

	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password are required")
	}
	return username, password, nil
}
