package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suratkita/suratkita/pkg/buildinfo"
	"github.com/suratkita/suratkita/pkg/lifecycle"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Suratkita composes and exports community organization letters",
		Long:         `Suratkita renders invitations, proposals, financial reports and general letters of a community organization to print-ready PDF, one letter or a whole mail merge at a time.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/suratkita/config.toml)")
	root.PersistentFlags().StringVar(&c.role, "role", string(lifecycle.RoleAuthor), "acting role: author, reviewer, owner_admin, member")
	root.PersistentFlags().StringVar(&c.actorID, "actor", "", "acting user id (default $USER)")

	// Register all subcommands
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.templateCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.reviewCommands()...)
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())

	return root
}

// versionCommand prints build information.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
