package commands

import (
	"errors"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// Options holds the persistent flags shared by every command
type Options struct {
	ConfigPath string
	LogLevel   string
	NoColor    bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "filterkit",
		Short: "Numeric, order and range collection filters for SQL and MongoDB",
		Long: color.CyanString(`filterkit - collection filters for SQL and MongoDB

filterkit turns query strings such as

  price[gt]=10&quantity[]=1&quantity[]=2&order[relatedDummy.name]=desc

into SQL and MongoDB aggregation pipelines for the resources and filters
declared in filterkit.yaml.

Features:
  • Numeric equality and IN filters
  • Range filters (lt, lte, gt, gte, between)
  • Ordering with null placement policies
  • Nested properties through joins and $lookup stages`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "Config file (default ./filterkit.yaml)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Override logging.level")
	flags.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCheckCommand(opts))
	rootCmd.AddCommand(NewResourcesCommand(opts))
	rootCmd.AddCommand(NewDescribeCommand(opts))
	rootCmd.AddCommand(NewExplainCommand(opts))
	rootCmd.AddCommand(NewQueryCommand(opts))
	rootCmd.AddCommand(NewServeCommand(opts))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the filterkit version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)
			out := cmd.OutOrStdout()

			titleColor.Fprint(out, "filterkit version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// reportedError has already been shown to the user in full
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
