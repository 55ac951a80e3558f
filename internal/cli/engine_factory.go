package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/ports"
)

// createEngine builds a dispatch engine for a node backed by the given
// contract source.
func createEngine(node string, source ports.ContractSource, logger *slog.Logger) (*espalier.Engine, error) {
	engine, err := espalier.New(node,
		espalier.WithSource(source),
		espalier.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
