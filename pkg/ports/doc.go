/*
Package ports defines the driven ports (interfaces) for the Espalier engine.

These interfaces decouple the interpreter core from external implementations,
allowing contracts to be loaded from various backends and memoized sets to be
shared across processes.

# Key Interfaces

  - ContractSource: Responsible for discovering and reading a node's raw contract.
  - TransitionCache: Responsible for sharing loaded TransitionSets (e.g., Redis).
  - Executor: Applies a single matched transition.
  - MainLogic: The host's own processing step, invoked after transitions.
  - Dispatcher: The engine surface consumed by hosting adapters (HTTP, MCP).
*/
package ports
