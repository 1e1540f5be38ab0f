package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configPath string
	port       string
	questions  string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("JEOPARDY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "jeopardy-service",
		Short: "Single-host quiz show controller: one admin board, many phone buzzers",
	}

	fs := cmd.PersistentFlags()
	fs.StringVar(&configPath, "config", "config/config.yaml", "path to YAML config (env: JEOPARDY_CONFIG)")
	fs.StringVar(&port, "port", "", "port to listen on (env: JEOPARDY_PORT)")
	fs.StringVar(&questions, "questions", "", "path to the question board JSON file (env: JEOPARDY_QUESTIONS)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(NewStartCmd(&configPath, &port, &questions))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
