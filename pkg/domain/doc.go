/*
Package domain contains the canonical in-memory model of the slotflow dialogue engine.

It defines the data templates that describe what to collect, the flattened
collection plan, the per-slot runtime state, the outer task graph and the
session snapshot. The package is kept pure and free of I/O; every loader
normalizes its input into these types at the boundary.

# Key Entities

  - DataTemplateNode: one piece of information to collect, optionally owning sub-items.
  - PlanEntry: one flattened unit of work derived from a template.
  - SlotState: escalation counters, phase and captured value of the active target.
  - Graph: directed flow graph of nodes holding FlowTasks.
  - Session: the inspectable runtime snapshot of an orchestrator.
*/
package domain
