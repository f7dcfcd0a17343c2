package commands

import (
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/filterkit/internal/cli/ui"
)

// NewDescribeCommand creates the describe command
func NewDescribeCommand(opts *Options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "describe RESOURCE",
		Short: "List the query parameters accepted for a resource",
		Example: `  filterkit describe Dummy
  filterkit describe Dummy --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			resource := args[0]
			description, err := a.engine.Describe(resource)
			if err != nil {
				return a.resourceError(cmd, resource, err)
			}

			if asJSON {
				return writeJSON(cmd, description)
			}

			keys := make([]string, 0, len(description))
			for key := range description {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			table := ui.NewTable(cmd.OutOrStdout(), []string{"Parameter", "Property", "Type", "Collection"}, &ui.TableOptions{NoColor: a.noColor})
			for _, key := range keys {
				d := description[key]
				table.AddRow(key, d.Property, d.Type, strconv.FormatBool(d.IsCollection))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}
