package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/aretw0/espalier/internal/sanitize"
	"github.com/aretw0/espalier/pkg/adapters/fs"
	"github.com/aretw0/espalier/pkg/domain"
)

// RunOptions configures the interactive dispatch loop and one-shot dispatch.
type RunOptions struct {
	// Root is the directory scanned for node contracts.
	Root string
	// Node selects which node's contract drives dispatch.
	Node string
	// LogLevel controls engine log verbosity (debug, info, warn, error).
	LogLevel string
	// JSON switches the loop to NDJSON: one request in, one response out.
	JSON bool
	// Watch reloads the contract when its file changes on disk.
	Watch bool
}

// RunREPL starts the interactive dispatch loop on stdin/stdout.
func RunREPL(opts RunOptions) error {
	logger := newLogger(opts.LogLevel)

	if !opts.JSON && isTerminal() {
		tui.PrintBanner(espalier.Version)
	}

	source, err := fs.New(opts.Root)
	if err != nil {
		return fmt.Errorf("failed to open contract root: %w", err)
	}

	engine, err := createEngine(opts.Node, source, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The watcher only flags the contract as stale; the loop rebuilds the
	// engine right before the next dispatch so a reload never interrupts a
	// blocking read on stdin.
	var stale atomic.Bool
	var refresh func() *espalier.Engine

	if opts.Watch {
		events, werr := source.Watch(ctx)
		if werr != nil {
			return fmt.Errorf("failed to watch contracts: %w", werr)
		}
		go func() {
			for node := range events {
				if node != opts.Node {
					continue
				}
				stale.Store(true)
				if !opts.JSON {
					fmt.Println()
					printSystemMessage("Change detected in '%s'; reloading on next dispatch.", node)
					fmt.Print("> ")
				}
			}
		}()

		refresh = func() *espalier.Engine {
			if !stale.Swap(false) {
				return nil
			}
			fresh, rerr := createEngine(opts.Node, source, logger)
			if rerr != nil {
				printSystemMessage("Reload failed: %v", rerr)
				return nil
			}
			if !opts.JSON {
				printSystemMessage("Contract reloaded.")
			}
			return fresh
		}
	}

	if !opts.JSON {
		fmt.Printf("--- Espalier Dispatch (%s) ---\n", opts.Node)
		fmt.Println("Type an action name, or 'exit' to quit.")
	}

	return runLoop(ctx, engine, refresh, opts.JSON, os.Stdin, os.Stdout)
}

// runLoop reads lines from in and dispatches them until exit or EOF.
// In plain mode each line is an action name; in JSON mode each line is a
// full request document.
func runLoop(ctx context.Context, engine *espalier.Engine, refresh func() *espalier.Engine, jsonMode bool, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	for {
		if !jsonMode {
			fmt.Fprint(out, "> ")
		}

		line, readErr := reader.ReadString('\n')
		input := strings.TrimSpace(line)

		if input == "exit" || input == "quit" {
			if !jsonMode {
				fmt.Fprintln(out, "Bye!")
			}
			return nil
		}

		if input != "" {
			if refresh != nil {
				if fresh := refresh(); fresh != nil {
					engine = fresh
				}
			}
			dispatchLine(ctx, engine, input, jsonMode, out)
		}

		if readErr != nil {
			if !jsonMode {
				fmt.Fprintln(out)
			}
			return nil
		}
	}
}

// dispatchLine turns one input line into a request, dispatches it, and
// writes the response or error to out.
func dispatchLine(ctx context.Context, engine *espalier.Engine, input string, jsonMode bool, out io.Writer) {
	var req domain.Request

	if jsonMode {
		if err := json.Unmarshal([]byte(input), &req); err != nil {
			writeError(out, jsonMode, fmt.Errorf("invalid request: %w", err))
			return
		}
	} else {
		req.Action = input
	}

	clean, err := sanitize.ActionName(req.Action)
	if err != nil {
		writeError(out, jsonMode, fmt.Errorf("action rejected: %w", err))
		return
	}
	req.Action = clean

	resp, err := engine.Dispatch(ctx, req)
	if err != nil {
		writeError(out, jsonMode, err)
		return
	}

	if jsonMode {
		data, merr := json.Marshal(resp)
		if merr != nil {
			writeError(out, jsonMode, merr)
			return
		}
		fmt.Fprintln(out, string(data))
		return
	}

	fmt.Fprintf(out, "[%s] %s (v%s)\n", resp.Status, resp.Message, resp.Version)
}

func writeError(out io.Writer, jsonMode bool, err error) {
	if jsonMode {
		data, merr := json.Marshal(map[string]string{"error": err.Error()})
		if merr == nil {
			fmt.Fprintln(out, string(data))
		}
		return
	}
	fmt.Fprintf(out, "Error: %v\n", err)
}
