/*
Package domain contains the core models of the psys simulator.

It defines the alphabet, the multiset arithmetic the engine relies on, and
the rule and run types shared by the runtime and its adapters. This package
is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Symbol: one of the five objects a, b, c, d, e.
  - Multiset: a count per symbol, with containment, addition and subtraction.
  - Rule: a pair of multisets (consumed, produced); the consumed part is never empty.
  - RuleSet: the ordered rule list; its order fixes how a step is applied.
  - Result / RunRecord: the outcome of a run, in memory and in persisted form.
  - LifecycleHooks: callbacks through which observers see each step.
*/
package domain
