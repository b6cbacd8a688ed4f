// Command studenthousing runs one of the student-housing services.
//
// Usage:
//
//	studenthousing auth --port 3001
//	studenthousing notification --config ./config.yaml
//
// APP_ENV defaults to standalone and APP_SERVICE_VERSION to the build version,
// so a service starts with no environment at all.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	env        string
	configFile string
	port       int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "studenthousing",
		Short:         "Student housing services",
		Long:          `studenthousing runs the auth, housing, booking or notification service.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.applyEnv(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.env, "env", "standalone", "deployment environment: standalone, dev or pro (APP_ENV)")
	pf.StringVar(&flags.configFile, "config", "", "YAML config file (CONFIG_FILE)")
	pf.IntVar(&flags.port, "port", 0, "HTTP port, overrides server.port")

	for _, svc := range services {
		rootCmd.AddCommand(newServiceCmd(svc, flags))
	}

	return rootCmd
}

// applyEnv exports flags to the variables the app config reads. An explicit
// flag wins over the environment; a default only fills an unset variable.
func (f *rootFlags) applyEnv(cmd *cobra.Command) error {
	set := func(flag, env, value string) error {
		if value == "" {
			return nil
		}
		if fl := cmd.Flag(flag); (fl != nil && fl.Changed) || os.Getenv(env) == "" {
			return os.Setenv(env, value)
		}
		return nil
	}

	if err := set("env", "APP_ENV", f.env); err != nil {
		return err
	}
	if err := set("config", "CONFIG_FILE", f.configFile); err != nil {
		return err
	}
	if os.Getenv("APP_SERVICE_VERSION") == "" {
		return os.Setenv("APP_SERVICE_VERSION", version)
	}
	return nil
}
