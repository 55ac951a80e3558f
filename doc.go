/*
Package espalier is a contract-driven state transition interpreter for building
services whose action routing lives in declarative YAML contracts instead of code.

It separates the transition contract (what reacts to which action, in which
order) from the executors (what a transition does) and from the host's main
logic (the response). The interpreter core is transport-free; adapters embed it
in any interface: CLI, HTTP server, or MCP agent infrastructure.

# Concept

Each node ships a contract file (contracts/contract_state_transitions.yaml)
declaring its state transitions: a name, the triggers it reacts to, a priority,
and a kind (simple, tool_based, conditional, or anything the host registers an
executor for). At dispatch time the engine matches the inbound action against
the triggers, applies the matching transitions in priority order, and then
hands control to the host. Contracts are loaded once per engine and every load
problem degrades to an empty set, so a broken contract never takes the host
down with it.

# Key Features

  - Declarative Routing: transition behavior changes by editing YAML, not code.
  - Fail-Open Loading: missing or malformed contracts degrade to "no
    transitions"; the dispatch still completes.
  - Pluggable Executors: register your own executor per transition kind; the
    built-ins only observe and log.
  - Hexagonal Architecture: sources (filesystem, memory, loam), caches
    (memory, redis), and transports (HTTP, MCP) are all adapters around the
    same core.

# Usage

Initialize the engine with the node name. By default it discovers the node's
contract on the filesystem under the current directory.

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/espalier"
		"github.com/aretw0/espalier/pkg/domain"
	)

	func main() {
		// Discover the "checkout" contract under ./flows
		eng, err := espalier.New("checkout", espalier.WithRoot("./flows"))
		if err != nil {
			log.Fatal(err)
		}

		resp, err := eng.Dispatch(context.Background(), domain.Request{
			Action:  "confirm_order",
			Version: "1.2.0",
			Payload: map[string]any{"order_id": "A-1042"},
		})
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println(resp.Status, resp.Message)
	}
*/
package espalier
