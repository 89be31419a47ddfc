package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const updateRepo = "avhagen/pollster"

var checkOnly bool

// upgradeCmd represents the upgrade command
var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade pollster to the latest release",
	Long: `Check GitHub for a newer pollster release and replace the current
binary when one is available.`,
	RunE: runUpgrade,
}

func init() {
	rootCmd.AddCommand(upgradeCmd)

	upgradeCmd.Flags().BoolVar(&checkOnly, "check", false, "only check for a new version, do not install")
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	current := strings.TrimPrefix(appVersion, "v")
	if _, err := semver.Parse(current); err != nil {
		return fmt.Errorf("cannot upgrade a development build (version %q), install a released binary first", appVersion)
	}

	ctx := context.Background()

	fmt.Printf("Checking %s for releases...\n", updateRepo)
	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(updateRepo))
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s", updateRepo)
	}

	if latest.LessOrEqual(current) {
		fmt.Printf("✓ pollster %s is already the latest version\n", appVersion)
		return nil
	}

	fmt.Printf("New version available: %s (current: %s)\n", latest.Version(), appVersion)
	if latest.ReleaseNotes != "" {
		fmt.Printf("\nRelease notes:\n%s\n", strings.TrimSpace(latest.ReleaseNotes))
	}

	if checkOnly {
		fmt.Println("\nRun 'pollster upgrade' to install it.")
		return nil
	}

	fmt.Printf("\nUpgrade to %s? [y/N]: ", latest.Version())
	var response string
	fmt.Scanln(&response)
	if strings.ToLower(strings.TrimSpace(response)) != "y" {
		fmt.Println("Upgrade cancelled.")
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}

	fmt.Printf("→ Downloading %s... ", latest.AssetName)
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		fmt.Println("✗ Failed")
		return fmt.Errorf("failed to update binary: %w", err)
	}
	fmt.Println("✓ Done")

	fmt.Printf("\n✓ Successfully upgraded to %s\n", latest.Version())
	return nil
}
