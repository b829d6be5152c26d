// Package cmd provides the Cobra commands for the sgctl CLI.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fluxbase-eu/socialgraph/cli/client"
	cliconfig "github.com/fluxbase-eu/socialgraph/cli/config"
	"github.com/fluxbase-eu/socialgraph/cli/output"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"

	// Global flags
	cfgFile     string
	profileName string
	outputFmt   string
	noHeaders   bool
	quiet       bool
	debug       bool

	// Shared across commands
	cfg       *cliconfig.Config
	apiClient *client.Client
	formatter *output.Formatter
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sgctl",
	Short: "sgctl - Talk to a SocialGraph server",
	Long: `sgctl provides command-line access to a SocialGraph GraphQL server.

Features:
  - GraphQL: Run queries and mutations, inspect the schema
  - Users: List users and member types
  - Config: Manage server profiles

Get started:
  sgctl config set-profile local --server http://localhost:8080
  sgctl --help`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Silence errors only when --quiet is used
		cmd.SilenceErrors = quiet
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ~/.socialgraph/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "",
		"profile to use (default is current profile)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "auto",
		"output format: auto, table, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false,
		"hide table headers")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"minimal output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug output")

	viper.SetEnvPrefix("SOCIALGRAPH")
	_ = viper.BindEnv("server")  // SOCIALGRAPH_SERVER
	_ = viper.BindEnv("token")   // SOCIALGRAPH_TOKEN
	_ = viper.BindEnv("profile") // SOCIALGRAPH_PROFILE
	_ = viper.BindEnv("debug")   // SOCIALGRAPH_DEBUG

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(graphqlCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(memberTypesCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(cliconfig.DefaultConfigDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// resolveProfile picks the profile to talk to. Environment variables win
// over the config file, and a missing profile falls back to the default
// server so the CLI works without any setup.
func resolveProfile(c *cliconfig.Config, name string) (*cliconfig.Profile, error) {
	if name == "" {
		name = viper.GetString("profile")
	}

	profile, err := c.GetProfile(name)
	if err != nil {
		if name != "" && name != c.CurrentProfile {
			return nil, err
		}
		profile = &cliconfig.Profile{Name: "default", Server: cliconfig.DefaultServer}
	}

	resolved := *profile
	if envServer := viper.GetString("server"); envServer != "" {
		resolved.Server = envServer
	}
	if envToken := viper.GetString("token"); envToken != "" {
		resolved.Token = envToken
	}
	if resolved.Server == "" {
		resolved.Server = cliconfig.DefaultServer
	}
	return &resolved, nil
}

// initializeClient sets up the API client for commands that need it
func initializeClient(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = cliconfig.LoadOrCreate(GetConfigPath())
	if err != nil {
		return err
	}

	profile, err := resolveProfile(cfg, profileName)
	if err != nil {
		return err
	}

	if viper.GetBool("debug") {
		debug = true
	}

	apiClient = client.NewClient(profile.Server,
		client.WithDebug(debug),
		client.WithToken(profile.Token),
	)

	// A profile default applies only when --output was not given
	format := outputFmt
	if !cmd.Flags().Changed("output") && profile.OutputFormat != "" {
		format = profile.OutputFormat
	}
	parsed, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	formatter = output.NewFormatter(parsed, noHeaders, quiet)

	return nil
}

// GetFormatter returns the output formatter (for use by subcommands)
func GetFormatter() *output.Formatter {
	if formatter == nil {
		format, _ := output.ParseFormat(outputFmt)
		formatter = output.NewFormatter(format, noHeaders, quiet)
	}
	return formatter
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return cliconfig.DefaultConfigPath()
}
