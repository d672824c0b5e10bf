/*
Package ports defines the driven ports (interfaces) for the psys simulator.

These interfaces decouple the core logic from external implementations, allowing
the simulator to read rules from various sources and to record runs in various
storage backends.

# Key Interfaces

  - RuleLoader: Responsible for producing a validated RuleSet (e.g., from files or memory).
  - RunStore: Responsible for persisting and loading RunRecords.
  - Simulator: What transport adapters need from a loaded simulator.
*/
package ports
