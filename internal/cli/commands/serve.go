package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/conduit-lang/filterkit/internal/cli/ui"
	"github.com/conduit-lang/filterkit/internal/web/router"
	"github.com/conduit-lang/filterkit/internal/web/server"
)

// NewServeCommand creates the serve command
func NewServeCommand(opts *Options) *cobra.Command {
	var (
		port      int
		withMongo bool
		routes    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the explain and query API over HTTP",
		Long: `Start an HTTP API over the configured filters.

The SQL query routes are enabled when database.url is set and the MongoDB
routes when --mongo is given. The explain routes never touch a database.`,
		Example: `  filterkit serve
  filterkit serve --port 9000 --mongo
  filterkit serve --routes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			routerOpts := router.Options{
				Engine:         a.engine,
				Logger:         a.logger,
				CacheTTL:       a.cfg.Cache.TTL,
				RequestTimeout: a.cfg.Server.RequestTimeout,
				DefaultLimit:   a.cfg.Server.DefaultLimit,
				MaxLimit:       a.cfg.Server.MaxLimit,
			}

			if !routes {
				store, err := openCache(ctx, a.cfg.Cache)
				if err != nil {
					fmt.Fprint(cmd.ErrOrStderr(), ui.ConnectionError("redis", err.Error(), a.noColor))
					return &reportedError{err: err}
				}
				if store != nil {
					defer store.Close()
					routerOpts.Cache = store
				}
			}

			var db *sql.DB
			if a.cfg.Database.URL != "" && !routes {
				db, err = openSQL(ctx, a.cfg.Database)
				if err != nil {
					fmt.Fprint(cmd.ErrOrStderr(), ui.ConnectionError("sql", err.Error(), a.noColor))
					return &reportedError{err: err}
				}
				defer db.Close()
				routerOpts.DB = db
			}

			var client *mongo.Client
			if withMongo && !routes {
				client, err = openMongo(ctx, a.cfg.MongoDB)
				if err != nil {
					fmt.Fprint(cmd.ErrOrStderr(), ui.ConnectionError("mongodb", err.Error(), a.noColor))
					return &reportedError{err: err}
				}
				defer client.Disconnect(context.Background())
				routerOpts.Mongo = client.Database(a.cfg.MongoDB.Database)
			}

			rt, err := router.NewRouter(routerOpts)
			if err != nil {
				return err
			}

			if routes {
				table := ui.NewTable(cmd.OutOrStdout(), []string{"Method", "Pattern"}, &ui.TableOptions{NoColor: a.noColor})
				for _, r := range rt.Routes() {
					table.AddRow(r.Method, r.Pattern)
				}
				table.Render()
				return nil
			}

			serverCfg := server.DefaultConfig(rt)
			serverCfg.Address = a.cfg.Server.Address()
			serverCfg.DB = db
			serverCfg.Logger = a.logger
			srv, err := server.New(serverCfg)
			if err != nil {
				return err
			}

			a.logger.Info("serving filters",
				zap.String("address", serverCfg.Address),
				zap.Strings("resources", a.engine.Resources()),
				zap.Bool("sql", db != nil),
				zap.Bool("mongo", client != nil),
				zap.String("cache", a.cfg.Cache.Driver))

			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on (default server.port)")
	cmd.Flags().BoolVar(&withMongo, "mongo", false, "Enable the MongoDB query routes")
	cmd.Flags().BoolVar(&routes, "routes", false, "Print the routes and exit")

	return cmd
}
