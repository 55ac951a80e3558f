/*
Package dsl provides a Go DSL (Domain Specific Language) for programmatically
constructing transition contracts.

It allows developers to define a node's contract using a type-safe, fluent
builder pattern instead of relying on external YAML files. This is
particularly useful for dynamic contract generation, unit testing, and
leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"github.com/aretw0/espalier"
		"github.com/aretw0/espalier/pkg/dsl"
	)

	func main() {
		contract := dsl.New("orders").
			Describe("Order lifecycle contract")

		contract.Add("audit_order").
			On("confirm_order", "cancel_order").
			Priority(10).
			Update("last_event", "{action}")

		contract.Add("charge_customer").
			On("confirm_order").
			Priority(5).
			Tool("payment_gateway", map[string]any{"provider": "stripe"})

		// The resulting source plugs into the engine like any other.
		source, _ := contract.Build()
		eng, _ := espalier.New("orders", espalier.WithSource(source))
		_ = eng
	}
*/
package dsl
