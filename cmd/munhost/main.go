// Package main is munhost, a small command-line host for the Mun
// runtime: load an assembly, call one of its exported functions, or
// watch it and hot-reload on change. Grounded on the teacher's own
// pedumper.go cobra layout (a root command plus one subcommand per
// verb, flags bound with StringArrayVarP/IntVarP rather than parsed ad hoc).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mun-lang/mun-runtime/runtime"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "munhost",
		Short: "A command-line host for Mun assemblies",
		Long:  "munhost loads a Mun assembly, calls its exported functions, and can watch it for hot-reload.",
	}

	rootCmd.AddCommand(newLoadCmd())
	rootCmd.AddCommand(newCallCmd())
	rootCmd.AddCommand(newWatchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <path>",
		Short: "Load an assembly and report whether it loaded (exports are not listed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime.New(args[0], nil)
			if err != nil {
				return err
			}
			defer rt.Close()
			fmt.Printf("loaded %s\n", args[0])
			return nil
		},
	}
}

func newCallCmd() *cobra.Command {
	var argValues []string

	cmd := &cobra.Command{
		Use:   "call <path> <function>",
		Short: "Load an assembly and invoke one exported function",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime.New(args[0], nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			fn, ok := rt.FindFunction(args[1])
			if !ok {
				return fmt.Errorf("munhost: no exported function named %q", args[1])
			}
			defer fn.Release()

			callArgs := make([]any, len(argValues))
			for i, v := range argValues {
				callArgs[i] = v
			}
			result, err := fn.Invoke(callArgs)
			if err != nil {
				return err
			}
			fmt.Println(result)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&argValues, "arg", "a", nil, "argument to pass to the function, repeatable")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var intervalMS int

	cmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Load an assembly and hot-reload it as it changes on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime.New(args[0], nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Printf("watching %s, press Ctrl+C to stop\n", args[0])
			ticker := time.NewTicker(time.Duration(intervalMS) * time.Millisecond)
			defer ticker.Stop()
			for range ticker.C {
				if rt.Update() {
					fmt.Println("reloaded")
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&intervalMS, "interval", "i", 200, "polling interval in milliseconds for driving Update")
	return cmd
}
