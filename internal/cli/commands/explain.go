package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/filterkit/internal/cli/ui"
	webquery "github.com/conduit-lang/filterkit/pkg/web/query"
)

// NewExplainCommand creates the explain command
func NewExplainCommand(opts *Options) *cobra.Command {
	var (
		odm    bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "explain RESOURCE [QUERY...]",
		Short: "Show the SQL or aggregation pipeline built for a query string",
		Long: `Apply the filters of RESOURCE to a query string and print the result
without touching a database. Several QUERY arguments are joined with "&".`,
		Example: `  filterkit explain Dummy 'price[gt]=10&order[name]=desc'
  filterkit explain Dummy 'quantity[]=1' 'quantity[]=2' --odm
  filterkit explain Dummy 'relatedDummy.age[between]=18..65' --json`,
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

			out := cmd.OutOrStdout()

			if odm {
				explanation, err := a.engine.ExplainPipeline(resource, filters)
				if err != nil {
					return a.resourceError(cmd, resource, err)
				}
				if asJSON {
					return writeJSON(cmd, explanation)
				}

				kv := ui.NewKeyValueTable(out, a.noColor)
				kv.AddRow("Resource", explanation.Resource)
				kv.AddRow("Collection", explanation.Collection)
				kv.AddRow("Filters", filters.Encode())
				kv.Render()
				fmt.Fprintln(out)

				section := ui.NewSection(out, "Pipeline", a.noColor)
				for _, stage := range explanation.Pipeline {
					section.AddLine(string(stage))
				}
				section.Render()
				return nil
			}

			explanation, err := a.engine.Explain(resource, filters)
			if err != nil {
				return a.resourceError(cmd, resource, err)
			}
			if asJSON {
				return writeJSON(cmd, explanation)
			}

			kv := ui.NewKeyValueTable(out, a.noColor)
			kv.AddRow("Resource", explanation.Resource)
			kv.AddRow("Filters", filters.Encode())
			kv.AddRow("DQL", explanation.DQL)
			kv.AddRow("SQL", explanation.SQL)
			kv.Render()
			fmt.Fprintln(out)

			section := ui.NewSection(out, "Parameters", a.noColor)
			for _, p := range explanation.Parameters {
				line := fmt.Sprintf(":%s = %v", p.Name, p.Value)
				if p.Type != "" {
					line += " (" + p.Type + ")"
				}
				section.AddLine(line)
			}
			section.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&odm, "odm", false, "Explain the MongoDB aggregation pipeline instead of SQL")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")

	return cmd
}

// parseFilters joins query string fragments and parses them
func parseFilters(parts []string) (*webquery.Values, error) {
	filters, err := webquery.ParseQuery(strings.Join(parts, "&"))
	if err != nil {
		return nil, fmt.Errorf("invalid query string: %w", err)
	}
	return filters, nil
}
