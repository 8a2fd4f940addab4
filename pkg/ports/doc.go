/*
Package ports defines the driven ports (interfaces) of the slotflow engine.

These interfaces decouple the dialogue core from its collaborators: where the
flow graph comes from, how template keys become text, which extractor judges
an answer, how backend calls run and where sessions are persisted.

# Key Interfaces

  - GraphProvider: supplies the flow graph (tasks, templates, edges).
  - Translations: maps template keys to display text for the active locale.
  - Extractor: returns a match verdict for free text and an expected kind.
  - Backend: executes BackendCall tasks.
  - EdgeSelector: picks one edge when a node branches.
  - SessionStore: persists session snapshots.
  - DistributedLocker: coordinates session access across replicas.
*/
package ports
