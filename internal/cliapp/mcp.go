package cliapp

import (
	"distiller/internal/core/config"
	mcpserver "distiller/internal/mcp"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newMCPCmd(opts *globalOptions, std streams) *cobra.Command {
	var settings settingsFlags
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the distill_file tool over MCP stdio",
		Long: `Start an MCP server on stdin/stdout. Clients call distill_file with a path
inside the project root. Logs go to stderr.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := newRuntime(ctx, opts, func(cfg *config.Config) {
				settings.apply(cmd, cfg)
			})
			if err != nil {
				return err
			}
			defer rt.Close()

			version := rt.cfg.MCP.ServerVersion
			if version == "" {
				version = Version
			}
			srv, err := mcpserver.NewServer(mcpserver.ServerConfig{
				Name:        rt.cfg.MCP.ServerName,
				Version:     version,
				ProjectRoot: rt.paths.ProjectRoot,
			}, rt.pipeline)
			if err != nil {
				return err
			}
			return srv.Listen(ctx, std.in, std.out)
		},
	}
	settings.register(cmd)
	return cmd
}
