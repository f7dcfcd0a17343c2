package commands

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/filterkit/internal/cli/ui"
)

// NewResourcesCommand creates the resources command
func NewResourcesCommand(opts *Options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resources",
		Short: "List the configured resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if asJSON {
				return writeJSON(cmd, map[string]interface{}{"resources": a.engine.Resources()})
			}

			table := ui.NewTable(cmd.OutOrStdout(), []string{"Resource", "Table", "Parameters"}, &ui.TableOptions{NoColor: a.noColor})
			for _, name := range a.engine.Resources() {
				meta, err := a.engine.Metadata(name)
				if err != nil {
					return err
				}
				description, err := a.engine.Describe(name)
				if err != nil {
					return err
				}
				table.AddRow(name, meta.TableName, strconv.Itoa(len(description)))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

func writeJSON(cmd *cobra.Command, payload interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
