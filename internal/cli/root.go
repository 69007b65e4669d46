package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	envFile      string
	configFile   string
	workspace    string
	logLevel     string
	output       string
	otelEndpoint string
	otelProtocol string

	version string
}

// RootCmd builds the prolific command tree.
func RootCmd(env *Env, version string) *cobra.Command {
	flags := &globalFlags{version: version}

	cmd := &cobra.Command{
		Use:   "prolific",
		Short: "Inspect a Prolific workspace from the command line",
		Long: `prolific talks to the Prolific REST API using PROLIFIC_API_TOKEN.

Settings are read from the environment (PROLIFIC_*), an optional .env file
and an optional YAML config file. Environment variables win over files.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch flags.output {
			case outputTable, outputJSON:
				return nil
			default:
				return fmt.Errorf("invalid argument %q for --output: must be %s or %s", flags.output, outputTable, outputJSON)
			}
		},
	}
	cmd.SetOut(env.Stdout)
	cmd.SetErr(env.Stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", "", "read settings from this .env file")
	pf.StringVar(&flags.configFile, "config", "", "read settings from this YAML file")
	pf.StringVarP(&flags.workspace, "workspace", "w", "", "workspace id (overrides PROLIFIC_WORKSPACE_ID)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (overrides PROLIFIC_LOG_LEVEL)")
	pf.StringVarP(&flags.output, "output", "o", outputTable, "output format: table or json")
	pf.StringVar(&flags.otelEndpoint, "otel-endpoint", "", `export telemetry to this OTLP endpoint, or "stdout"`)
	pf.StringVar(&flags.otelProtocol, "otel-protocol", "http", "OTLP protocol: http or grpc")

	cmd.AddCommand(smokeCmd(env, flags))
	cmd.AddCommand(workspacesCmd(env, flags))
	cmd.AddCommand(projectsCmd(env, flags))
	cmd.AddCommand(studiesCmd(env, flags))
	cmd.AddCommand(filtersCmd(env, flags))
	cmd.AddCommand(overviewCmd(env, flags))

	return cmd
}
