package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/evidentialbus/etbcore/internal/interp"
	"github.com/evidentialbus/etbcore/internal/obs"
	"github.com/evidentialbus/etbcore/pkg/engine"
	"github.com/evidentialbus/etbcore/pkg/term"
	"github.com/evidentialbus/etbcore/pkg/wire"
)

func newLoadCmd(stateFile *string, devLog *bool) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "load <rules-file>",
		Short: "Load a Datalog rule file into the persisted state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rulesPath := args[0]
			logger := newLogger(*devLog)
			defer logger.Sync()

			if err := loadOnce(rulesPath, *stateFile, logger); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return watchAndReload(ctx, rulesPath, *stateFile, logger)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep re-loading rulesPath as it changes (via fsnotify)")
	return cmd
}

func loadOnce(rulesPath, stateFile string, logger *obs.Logger) error {
	fc := engine.New(logger)
	fc.SetInterpretState(interp.New(logger, 0))

	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return fmt.Errorf("load: read %s: %w", rulesPath, err)
	}
	if err := fc.LoadRules(string(data)); err != nil {
		logger.ParseError("one or more clauses were skipped", "error", err.Error())
	}

	doc, err := snapshot(fc)
	if err != nil {
		return err
	}
	out, err := wire.Marshal(doc)
	if err != nil {
		return fmt.Errorf("load: marshal state: %w", err)
	}
	if err := os.WriteFile(stateFile, out, 0o644); err != nil {
		return fmt.Errorf("load: write %s: %w", stateFile, err)
	}
	logger.Info("loaded rules", "rules", rulesPath, "state", stateFile, "claims", len(doc.Claims))
	return nil
}

func snapshot(fc *engine.Facade) (*wire.Document, error) {
	claims := fc.State.AllClaims()
	goals := fc.State.AllGoals()
	rules := fc.State.AllClauses()
	goalLits := make([]*term.IntLiteral, len(goals))
	for i, g := range goals {
		goalLits[i] = g.Literal
	}
	return wire.EncodeDocument(fc.Factory, claims, goalLits, rules)
}

func watchAndReload(ctx context.Context, rulesPath, stateFile string, logger *obs.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("load --watch: create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(rulesPath); err != nil {
		return fmt.Errorf("load --watch: watch %s: %w", rulesPath, err)
	}
	logger.Info("watching for changes", "file", rulesPath)

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(150*time.Millisecond, func() {
				if err := loadOnce(rulesPath, stateFile, logger); err != nil {
					logger.ParseError("reload failed", "error", err.Error())
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.WrapperError("watcher error", "error", err.Error())
		}
	}
}
