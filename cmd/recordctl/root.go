package main

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stwalsh4118/recordbook/internal/client"
	"github.com/stwalsh4118/recordbook/internal/logger"
)

// app carries what every subcommand needs.
type app struct {
	v   *viper.Viper
	out io.Writer
}

// apiClient builds an API client from the bound flags and RECORDCTL_* variables.
func (a *app) apiClient() *client.Client {
	opts := []client.Option{client.WithTimeout(a.v.GetDuration("timeout"))}
	if a.v.GetBool("verbose") {
		opts = append(opts, client.WithLogger(logger.NewWithOptions(logger.Options{
			Env:    "development",
			Level:  "debug",
			Output: os.Stderr,
		})))
	}
	return client.New(a.v.GetString("api-url"), opts...)
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out}

	root := &cobra.Command{
		Use:           "recordctl",
		Short:         "Manage address-book records through the records API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.String("api-url", client.DefaultBaseURL, "base URL of the records API")
	flags.Duration("timeout", client.DefaultTimeout, "per-request timeout")
	flags.BoolP("verbose", "v", false, "log every API request to stderr")

	a.v.SetEnvPrefix("RECORDCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	for _, name := range []string{"api-url", "timeout", "verbose"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		newListCmd(a),
		newGetCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newCountCmd(a),
		newStatesCmd(a),
		newDistrictsCmd(a),
		newHealthCmd(a),
	)
	return root
}
