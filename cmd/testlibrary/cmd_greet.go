package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ochairo/testlibrary/pkg/testlibrary"
)

func greetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "greet <name>",
		Short: "Print a greeting",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.greeter()
			if err != nil {
				return err
			}
			greeting := g.Greet(args[0])
			return a.output(cmd.OutOrStdout(), map[string]string{"greeting": greeting}, func(w io.Writer) {
				fmt.Fprintln(w, greeting)
			})
		},
	}
}

func timeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "time",
		Short: "Print the current date and time",
		Long:  "Print the current date and time in medium style, in the zone set by TESTLIBRARY_TZ.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.greeter()
			if err != nil {
				return err
			}
			now := g.CurrentTimestamp()
			return a.output(cmd.OutOrStdout(), map[string]string{"time": now}, func(w io.Writer) {
				fmt.Fprintln(w, now)
			})
		},
	}
}

func addCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <a> <b>",
		Short: "Add two integers",
		Long:  "Add two integers. Exits with status 6 when the sum overflows.",
		Example: `  testlibrary add 2 3
  testlibrary add -- -7 4`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.Atoi(args[0])
			if err != nil {
				return invalidArgs(err)
			}
			y, err := strconv.Atoi(args[1])
			if err != nil {
				return invalidArgs(err)
			}

			g, err := a.greeter()
			if err != nil {
				return err
			}
			sum, err := g.Add(x, y)
			if err != nil {
				return err
			}
			return a.output(cmd.OutOrStdout(), map[string]int{"sum": sum}, func(w io.Writer) {
				fmt.Fprintln(w, sum)
			})
		},
	}
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the TestLibrary version",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.output(cmd.OutOrStdout(), map[string]string{"version": testlibrary.Version}, func(w io.Writer) {
				fmt.Fprintf(w, "testlibrary %s\n", testlibrary.Version)
			})
		},
	}
}
