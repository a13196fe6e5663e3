// Command etbcore is the example command-line entry point for the
// inference core: load a Datalog rule file, run a query against it, and
// print what the engine derives. Structured after the teacher's former
// single-binary demo entrypoint convention: a cobra root command with one
// subcommand per verb, a shared --state flag for the persisted-state file,
// and development-mode logging by default.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evidentialbus/etbcore/internal/obs"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var stateFile string
	var devLog bool

	root := &cobra.Command{
		Use:   "etbcore",
		Short: "Evidential Tool Bus inference core",
	}
	root.PersistentFlags().StringVar(&stateFile, "state", "etbcore-state.json", "persisted-state file shared across invocations")
	root.PersistentFlags().BoolVar(&devLog, "dev-log", true, "use human-readable console logging instead of JSON")

	root.AddCommand(newLoadCmd(&stateFile, &devLog))
	root.AddCommand(newQueryCmd(&stateFile, &devLog))
	return root
}

func newLogger(dev bool) *obs.Logger {
	if dev {
		return obs.NewDevelopment()
	}
	return obs.New()
}
