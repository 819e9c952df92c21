package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"bangd/mcpserver"
	"bangd/syncer"
)

func (a *app) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Synchronize with the remote store once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			sy, err := syncer.New(reg, a.log)
			if err != nil {
				return err
			}
			action, err := sy.Sync(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bangs)\n", action, len(reg.Records()))
			return nil
		},
	}
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve bang tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			return mcpserver.Run(cmd.Context(), mcpserver.New(reg, a.version, a.log))
		},
	}
}
