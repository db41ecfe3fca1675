// script_runner.go - Runs scenario scripts in parallel, one board each

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ScriptResult is the captured output of one scenario.
type ScriptResult struct {
	Path   string
	Output string
	Err    error
}

// RunScripts executes each script on its own freshly built board. Boards share
// nothing, so scripts run concurrently. A failing script is reported in its
// result and does not stop the others. Results are returned in argument order.
func RunScripts(ctx context.Context, cfg BoardConfig, paths []string) ([]ScriptResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mask, _ := ParseLogMask(cfg.Log)

	results := make([]ScriptResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			var out bytes.Buffer
			defer func() {
				results[i].Path = path
				results[i].Output = out.String()
			}()

			board, err := NewBoard(cfg, NewGuestLog(&out, mask))
			if err != nil {
				results[i].Err = err
				return fmt.Errorf("%s: %w", path, err)
			}
			host := NewScriptHost(board, &out)
			defer host.Close()

			results[i].Err = host.RunFile(ctx, path)
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

// PrintScriptResults writes each result under a header line.
func PrintScriptResults(w io.Writer, results []ScriptResult) {
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Fprintf(w, "== %s: %s\n", r.Path, status)
		if r.Output != "" {
			fmt.Fprint(w, r.Output)
		}
	}
}
