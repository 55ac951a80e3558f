package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/espalier/internal/sanitize"
	"github.com/aretw0/espalier/pkg/adapters/fs"
	"github.com/aretw0/espalier/pkg/domain"
)

// RunOnce dispatches a single action against a node and prints the
// response as indented JSON.
func RunOnce(opts RunOptions, action, version, payloadJSON string) error {
	logger := newLogger(opts.LogLevel)

	source, err := fs.New(opts.Root)
	if err != nil {
		return fmt.Errorf("failed to open contract root: %w", err)
	}

	engine, err := createEngine(opts.Node, source, logger)
	if err != nil {
		return err
	}

	clean, err := sanitize.ActionName(action)
	if err != nil {
		return fmt.Errorf("action rejected: %w", err)
	}

	req := domain.Request{Action: clean, Version: version}
	if payloadJSON != "" {
		if err := json.Unmarshal([]byte(payloadJSON), &req.Payload); err != nil {
			return fmt.Errorf("invalid payload: %w", err)
		}
	}

	resp, err := engine.Dispatch(context.Background(), req)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
