package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	cliconfig "github.com/fluxbase-eu/socialgraph/cli/config"
	"github.com/fluxbase-eu/socialgraph/cli/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and modify server profiles.`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display current configuration",
	Long: `Show the current CLI configuration. Tokens are masked.

Examples:
  sgctl config view
  sgctl config view --output yaml`,
	RunE: runConfigView,
}

var configSetProfileCmd = &cobra.Command{
	Use:   "set-profile [name]",
	Short: "Add or update a profile",
	Long: `Add or update a named server profile.

Examples:
  sgctl config set-profile local --server http://localhost:8080
  sgctl config set-profile prod --server https://graph.example.com --token $TOKEN --output-format json`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetProfile,
}

var configUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Switch the current profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUse,
}

var configProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List all profiles",
	RunE:  runConfigProfiles,
}

var (
	profileServer       string
	profileToken        string
	profileOutputFormat string
)

func init() {
	configSetProfileCmd.Flags().StringVar(&profileServer, "server", "", "Server URL")
	configSetProfileCmd.Flags().StringVar(&profileToken, "token", "", "Bearer token")
	configSetProfileCmd.Flags().StringVar(&profileOutputFormat, "output-format", "", "Default output format for this profile")

	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configSetProfileCmd)
	configCmd.AddCommand(configUseCmd)
	configCmd.AddCommand(configProfilesCmd)
}

func loadConfig() (*cliconfig.Config, error) {
	return cliconfig.LoadOrCreate(GetConfigPath())
}

func runConfigView(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	view := cliconfig.New()
	view.Version = c.Version
	view.CurrentProfile = c.CurrentProfile
	for name, p := range c.Profiles {
		masked := *p
		masked.Token = maskToken(p.Token)
		view.Profiles[name] = &masked
	}

	f := GetFormatter()
	if f.Format == output.FormatTable {
		f.Format = output.FormatYAML
		defer func() { f.Format = output.FormatTable }()
	}
	return f.Print(view)
}

func runConfigSetProfile(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	name := args[0]
	profile, err := c.GetProfile(name)
	if err != nil {
		profile = &cliconfig.Profile{Name: name, Server: cliconfig.DefaultServer}
	}

	if cmd.Flags().Changed("server") {
		profile.Server = profileServer
	}
	if cmd.Flags().Changed("token") {
		profile.Token = profileToken
	}
	if cmd.Flags().Changed("output-format") {
		if _, err := output.ParseFormat(profileOutputFormat); err != nil {
			return err
		}
		profile.OutputFormat = profileOutputFormat
	}

	c.SetProfile(profile)
	if err := c.Save(GetConfigPath()); err != nil {
		return err
	}

	GetFormatter().PrintSuccess(fmt.Sprintf("Profile '%s' saved.", name))
	return nil
}

func runConfigUse(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	if _, err := c.GetProfile(args[0]); err != nil {
		return err
	}
	c.CurrentProfile = args[0]
	if err := c.Save(GetConfigPath()); err != nil {
		return err
	}

	GetFormatter().PrintSuccess(fmt.Sprintf("Switched to profile '%s'.", args[0]))
	return nil
}

func runConfigProfiles(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	table := output.TableData{Headers: []string{"CURRENT", "NAME", "SERVER"}}
	for _, name := range c.ListProfiles() {
		current := ""
		if name == c.CurrentProfile {
			current = "*"
		}
		table.Rows = append(table.Rows, []string{current, name, c.Profiles[name].Server})
	}

	GetFormatter().PrintTable(table)
	return nil
}

func maskToken(token string) string {
	switch {
	case token == "":
		return ""
	case len(token) <= 8:
		return "****"
	default:
		return token[:4] + "****" + token[len(token)-4:]
	}
}
