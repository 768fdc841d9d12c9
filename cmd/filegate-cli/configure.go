package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/clientcli"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage server profiles",
	Long: `Manage server profiles in the configuration file.

Profiles store an endpoint and a user id so you can switch between
servers with --profile or FILEGATE_PROFILE.

Configuration is stored in ~/.filegate/config.yaml`,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured profiles",
	Long: `List all profiles configured in the config file.

The default profile is marked with an asterisk (*).`,
	Args: cobra.NoArgs,
	RunE: runConfigureList,
}

var configureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update a profile",
	Long: `Add a profile interactively.

You will be prompted for:
  - Endpoint URL
  - User id
  - Whether to set as default

The server health endpoint is checked before saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

var configureRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runConfigureRemove,
}

var configureSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureSetDefault,
}

var configureShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show profile details",
	Long: `Show details for a profile.

If no name is provided, shows the default profile.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigureShow,
}

func init() {
	configureCmd.AddCommand(configureListCmd)
	configureCmd.AddCommand(configureAddCmd)
	configureCmd.AddCommand(configureRemoveCmd)
	configureCmd.AddCommand(configureSetDefaultCmd)
	configureCmd.AddCommand(configureShowCmd)
}

func runConfigureList(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	cfg, err := clientcli.LoadConfigFile(getConfigPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg == nil || len(cfg.Profiles) == 0 {
		_, _ = fmt.Fprintln(out, "No profiles configured.")
		_, _ = fmt.Fprintln(out, "Run 'filegate-cli configure add <name>' to create one.")
		return nil
	}

	defaultProfile, err := cfg.GetDefaultProfile()
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileList(out, cfg.Profiles, defaultProfile.Name)
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	configPath := getConfigPath()
	out := cmd.OutOrStdout()

	cfg, err := clientcli.LoadConfigFile(configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = &clientcli.ConfigFile{}
	}

	existing, _ := cfg.GetProfile(name)
	if existing != nil {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Profile '%s' already exists. Update it", name),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			_, _ = fmt.Fprintln(out, "Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	defaultEndpoint := clientcli.DefaultEndpoint
	defaultUserID := ""
	if existing != nil {
		defaultEndpoint = existing.Endpoint
		defaultUserID = existing.UserID
	}

	endpointPrompt := promptui.Prompt{
		Label:    "Endpoint URL",
		Default:  defaultEndpoint,
		Validate: validateEndpoint,
	}
	endpointURL, err := endpointPrompt.Run()
	if err != nil {
		return handlePromptError(out, err)
	}

	userPrompt := promptui.Prompt{
		Label:   "User ID",
		Default: defaultUserID,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("user id is required")
			}
			return nil
		},
	}
	userIDVal, err := userPrompt.Run()
	if err != nil {
		return handlePromptError(out, err)
	}

	setAsDefault := len(cfg.Profiles) == 0 || (existing != nil && existing.Default)
	if !setAsDefault {
		defaultPrompt := promptui.Prompt{
			Label:     "Set as default profile",
			IsConfirm: true,
		}
		if _, promptErr := defaultPrompt.Run(); promptErr == nil {
			setAsDefault = true
		}
	}

	_, _ = fmt.Fprint(out, "Testing connection... ")
	if connErr := testServerConnection(cmd.Context(), endpointURL); connErr != nil {
		_, _ = fmt.Fprintln(out, "FAILED")
		_, _ = fmt.Fprintf(out, "Warning: Could not reach server: %v\n", connErr)

		continuePrompt := promptui.Prompt{
			Label:     "Save profile anyway",
			IsConfirm: true,
		}
		if _, promptErr := continuePrompt.Run(); promptErr != nil {
			_, _ = fmt.Fprintln(out, "Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	} else {
		_, _ = fmt.Fprintln(out, "OK")
	}

	profile := clientcli.Profile{
		Name:     name,
		Endpoint: strings.TrimSuffix(endpointURL, "/"),
		UserID:   strings.TrimSpace(userIDVal),
	}

	if existing != nil {
		err = cfg.UpdateProfile(profile)
	} else {
		err = cfg.AddProfile(profile)
	}
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	if setAsDefault {
		if err := cfg.SetDefault(name); err != nil {
			return err
		}
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	if existing != nil {
		_, _ = fmt.Fprintf(out, "Profile '%s' updated.\n", name)
	} else {
		_, _ = fmt.Fprintf(out, "Profile '%s' added.\n", name)
	}
	if setAsDefault {
		_, _ = fmt.Fprintln(out, "Set as default profile.")
	}

	return nil
}

func runConfigureRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	configPath := getConfigPath()
	out := cmd.OutOrStdout()

	cfg, err := clientcli.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err = cfg.GetProfile(name); err != nil {
		return err
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Remove profile '%s'", name),
		IsConfirm: true,
	}
	if _, promptErr := prompt.Run(); promptErr != nil {
		_, _ = fmt.Fprintln(out, "Cancelled.")
		return nil //nolint:nilerr // User cancelled, not an error
	}

	if err := cfg.RemoveProfile(name); err != nil {
		return fmt.Errorf("remove profile: %w", err)
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Profile '%s' removed.\n", name)
	return nil
}

func runConfigureSetDefault(cmd *cobra.Command, args []string) error {
	name := args[0]
	configPath := getConfigPath()

	cfg, err := clientcli.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.SetDefault(name); err != nil {
		return err
	}

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Default profile set to '%s'.\n", name)
	return nil
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	cfg, err := clientcli.LoadConfigFile(getConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	p, err := cfg.GetProfile(name)
	if err != nil {
		return err
	}

	defaultProfile, err := cfg.GetDefaultProfile()
	if err != nil {
		return err
	}

	return getFormatter().FormatProfileShow(cmd.OutOrStdout(), *p, p.Name == defaultProfile.Name)
}

func validateEndpoint(input string) error {
	if input == "" {
		return errors.New("endpoint URL is required")
	}
	parsedURL, err := url.Parse(input)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("URL must start with http:// or https://")
	}
	return nil
}

// testServerConnection checks the server's health endpoint.
func testServerConnection(ctx context.Context, endpointURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	healthURL := strings.TrimSuffix(endpointURL, "/") + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

// handlePromptError handles promptui errors.
func handlePromptError(out io.Writer, err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		_, _ = fmt.Fprintln(out, "\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		_, _ = fmt.Fprintln(out, "Cancelled.")
		return nil
	}
	return err
}
