package cli

import (
	"github.com/spf13/cobra"

	"github.com/cooketh/flow/internal/server"
	"github.com/cooketh/flow/pkg/collab"
)

// serveCommand creates the serve command that runs the HTTP API and the
// collaboration websocket.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and live collaboration server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Store().Close()

			runner, err := c.newRunner(false)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := []server.Option{
				server.WithLogger(c.Logger),
				server.WithRunner(runner),
				server.WithGenerator(c.newGenerator()),
				server.WithAllowedOrigins(c.cfg.Server.AllowedOrigins...),
				server.WithStaleAfter(c.cfg.Editor.CursorStaleAfter),
				server.WithTimeouts(c.cfg.Server.ReadTimeout, c.cfg.Server.WriteTimeout),
			}
			if c.cfg.Collab.Backend == "redis" {
				rdb := c.redisClient()
				defer rdb.Close()
				opts = append(opts, server.WithChannel(collab.NewRedisChannel(rdb,
					collab.WithRedisPrefix(c.cfg.Redis.Prefix),
					collab.WithRedisLogger(c.Logger))))
			}

			printInfo("Listening on %s", StyleHighlight.Render(addr))
			printDetail("storage: %s, collaboration: %s", c.cfg.Storage.Backend, c.cfg.Collab.Backend)
			return server.New(ws, opts...).Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
