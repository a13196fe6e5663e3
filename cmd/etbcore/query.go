package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/evidentialbus/etbcore/internal/interp"
	"github.com/evidentialbus/etbcore/pkg/engine"
	"github.com/evidentialbus/etbcore/pkg/parse"
	"github.com/evidentialbus/etbcore/pkg/wire"
)

func newQueryCmd(stateFile *string, devLog *bool) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "query <goal-literal>",
		Short: "Load the persisted state, run a goal, and print its substitutions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*devLog)
			defer logger.Sync()

			fc := engine.New(logger)
			fc.SetInterpretState(interp.New(logger, 0))

			if data, err := os.ReadFile(*stateFile); err == nil {
				doc, err := wire.Unmarshal(data)
				if err != nil {
					return fmt.Errorf("query: parse state file %s: %w", *stateFile, err)
				}
				for _, wc := range doc.Rules {
					ic, err := wire.DecodeClause(fc.Factory, wc)
					if err != nil {
						logger.ParseError("skipping unreadable rule in state file", "error", err.Error())
						continue
					}
					fc.Inference.AddRule(ic)
				}
				if err := fc.AddGoalResults(doc); err != nil {
					return fmt.Errorf("query: load claims: %w", err)
				}
			}

			goalLit, err := parse.ParseLiteral(args[0])
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			il, _, err := fc.Query(ctx, goalLit)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			fc.Inference.CheckStuckGoals(ctx)
			fc.Close(il)

			subs, err := fc.GetSubstitutions(goalLit)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			printSubstitutions(goalLit.String(), subs)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abandon the query after this long (0 = no timeout)")
	return cmd
}

func printSubstitutions(goal string, subs []engine.Substitution) {
	if len(subs) == 0 {
		fmt.Printf("%s: no solutions\n", goal)
		return
	}
	fmt.Printf("%s: %d solution(s)\n", goal, len(subs))
	for i, sub := range subs {
		names := make([]string, 0, len(sub))
		for name := range sub {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("  [%d]", i)
		for _, name := range names {
			fmt.Printf(" %s=%s", name, sub[name].String())
		}
		fmt.Println()
	}
}
