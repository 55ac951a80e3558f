/*
Package domain contains the core domain models for the Espalier interpreter.

It defines the fundamental entities of contract-driven dispatch, such as
Transitions, TransitionSets, and the Request/Response pair exchanged with the
host. This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Transition: A single declarative rule (name, triggers, priority, kind).
  - TransitionSet: The ordered, immutable result of loading a node's contract.
  - Request/Response: The unit of work the host dispatches and the reply it gets.
  - Invocation: What an executor sees when a matched transition is applied.
*/
package domain
