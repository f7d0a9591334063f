package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "states",
		Short: "List the states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			states, err := a.apiClient().States(cmd.Context())
			if err != nil {
				return describe(err)
			}
			for _, s := range states {
				fmt.Fprintln(a.out, s)
			}
			return nil
		},
	}
}

func newDistrictsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "districts <state>",
		Short: "List the districts of a state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			districts, err := a.apiClient().Districts(cmd.Context(), args[0])
			if err != nil {
				return describe(err)
			}
			for _, d := range districts {
				fmt.Fprintln(a.out, d)
			}
			return nil
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.apiClient().Health(cmd.Context())
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(a.out, "%s (env=%s, database=%s, uptime=%.0fs)\n", h.Status, h.Environment, h.Database, h.Uptime)
			return nil
		},
	}
}
