package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/filegate/clientcli"
)

var (
	version = "dev"

	cfgFile     string
	profileName string
	endpoint    string
	userID      string
	jsonOutput  bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:     "filegate-cli",
	Version: version,
	Short:   "Client for the filegate upload service",
	Long: `filegate-cli - client for the filegate upload service

File bytes go straight to object storage through presigned URLs;
the server only records metadata and hands out signed links.

Connection settings are resolved in this order (later wins):
  1. profile from the config file (--profile, FILEGATE_PROFILE, or the default profile)
  2. environment (FILEGATE_ENDPOINT, FILEGATE_USER_ID)
  3. flags (--endpoint, --user-id)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.filegate/config.yaml, env: FILEGATE_CLI_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (env: FILEGATE_PROFILE)")
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (default: http://localhost:8080, env: FILEGATE_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user-id", "u", "", "user id sent as X-User-Id (env: FILEGATE_USER_ID)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if !errors.As(err, &exitErr) {
			_ = getFormatter().FormatError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// getConfigPath returns the config file path from flag, env, or default.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges profile, env vars, and flags (flags take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	name := profileName
	if name == "" {
		name = clientcli.ProfileFromEnv()
	}
	explicitFile := cfgFile != "" || clientcli.ConfigPathFromEnv() != ""

	// 1. Profile from config file
	if configPath := getConfigPath(); configPath != "" {
		configFile, err := clientcli.LoadConfigFile(configPath)
		switch {
		case err == nil:
			profile, profileErr := configFile.GetProfile(name)
			switch {
			case profileErr == nil:
				configs = append(configs, clientcli.ConfigFromProfile(profile))
			case name != "":
				return nil, profileErr
			case !errors.Is(profileErr, clientcli.ErrNoProfiles):
				return nil, profileErr
			}
		case errors.Is(err, fs.ErrNotExist) && !explicitFile && name == "":
			// No config file yet; env and flags may be enough.
		default:
			return nil, fmt.Errorf("load profile: %w", err)
		}
	}

	// 2. Environment variables
	configs = append(configs, clientcli.ConfigFromEnv())

	// 3. Flags
	configs = append(configs, &clientcli.Config{
		Endpoint: endpoint,
		UserID:   userID,
	})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}

	return clientcli.New(cfg)
}

// exitError is returned when results were already printed
// and only the exit code should change.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
