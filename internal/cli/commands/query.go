package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/filterkit/internal/cli/ui"
	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

// NewQueryCommand creates the query command
func NewQueryCommand(opts *Options) *cobra.Command {
	var (
		odm   bool
		count bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "query RESOURCE [QUERY...]",
		Short: "Run a filtered query and print the matching rows as JSON",
		Long: `Apply the filters of RESOURCE to a query string and run the result against
the configured SQL database, or against MongoDB with --odm.`,
		Example: `  filterkit query Dummy 'price[lte]=100&order[price]=asc' --limit 5
  filterkit query Dummy 'price[gt]=3' --count
  filterkit query Dummy 'quantity=3' --odm`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			resource := args[0]
			filters, err := parseFilters(args[1:])
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Server.DefaultLimit
			}
			if limit < 1 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if odm {
				if count {
					return fmt.Errorf("--count is only supported for SQL queries")
				}
				return a.queryMongo(ctx, cmd, resource, filters, limit)
			}
			return a.querySQL(ctx, cmd, resource, filters, limit, count)
		},
	}

	cmd.Flags().BoolVar(&odm, "odm", false, "Query MongoDB instead of the SQL database")
	cmd.Flags().BoolVar(&count, "count", false, "Print the number of matching rows instead of the rows")
	cmd.Flags().IntVar(&limit, "limit", 30, "Maximum number of rows (default server.default_limit)")

	return cmd
}

func (a *app) querySQL(ctx context.Context, cmd *cobra.Command, resource string, filters *webquery.Values, limit int, count bool) error {
	db, err := openSQL(ctx, a.cfg.Database)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConnectionError("sql", err.Error(), a.noColor))
		return &reportedError{err: err}
	}
	defer db.Close()

	qb, err := a.engine.QueryBuilder(resource, filters, db)
	if err != nil {
		return a.resourceError(cmd, resource, err)
	}

	if count {
		total, err := qb.Count(ctx)
		if err != nil {
			return err
		}
		return writeJSON(cmd, map[string]int{"count": total})
	}

	rows, err := qb.Limit(limit).All(ctx)
	if err != nil {
		return err
	}
	a.logger.Debug("query executed", zap.String("resource", resource), zap.Int("rows", len(rows)))

	if rows == nil {
		rows = []map[string]interface{}{}
	}
	return writeJSON(cmd, rows)
}

func (a *app) queryMongo(ctx context.Context, cmd *cobra.Command, resource string, filters *webquery.Values, limit int) error {
	meta, err := a.engine.Metadata(resource)
	if err != nil {
		return a.resourceError(cmd, resource, err)
	}

	client, err := openMongo(ctx, a.cfg.MongoDB)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConnectionError("mongodb", err.Error(), a.noColor))
		return &reportedError{err: err}
	}
	defer client.Disconnect(context.Background())

	coll := client.Database(a.cfg.MongoDB.Database).Collection(meta.TableName)
	b, err := a.engine.Pipeline(resource, filters, coll)
	if err != nil {
		return err
	}

	docs, err := b.Limit(int64(limit)).Execute(ctx)
	if err != nil {
		return err
	}
	a.logger.Debug("pipeline executed", zap.String("resource", resource), zap.Int("documents", len(docs)))

	if docs == nil {
		return writeJSON(cmd, []interface{}{})
	}
	return writeJSON(cmd, docs)
}
