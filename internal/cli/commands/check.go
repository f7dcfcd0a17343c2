package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/filterkit/internal/cli/config"
	"github.com/conduit-lang/filterkit/internal/cli/ui"
)

// NewCheckCommand creates the check command
func NewCheckCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration",
		Long: `Load filterkit.yaml, validate every resource definition and build every
filter, then list the registered filters.`,
		Example: `  filterkit check
  filterkit check --config deploy/filterkit.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			table := ui.NewTable(out, []string{"Filter", "Kind", "Backend", "Resource", "Properties"}, &ui.TableOptions{NoColor: a.noColor})
			for _, f := range a.cfg.Filters {
				table.AddRow(f.Name, f.Kind, backendLabel(f), f.Resource, propertiesLabel(f))
			}
			if table.Len() > 0 {
				table.Render()
				fmt.Fprintln(out)
			} else {
				fmt.Fprint(out, ui.Warning("no filters configured", a.noColor))
			}

			fmt.Fprintln(out, ui.FormatSuccess(
				fmt.Sprintf("%d resources, %d filters", len(a.engine.Resources()), len(a.cfg.Filters)), a.noColor))
			return nil
		},
	}
}

func backendLabel(f config.FilterConfig) string {
	if f.Backend == "" {
		return "orm, odm"
	}
	return f.Backend
}

func propertiesLabel(f config.FilterConfig) string {
	props, err := f.FilterProperties()
	if err != nil || props == nil {
		return "*"
	}
	return strings.Join(props.Names(), ", ")
}
