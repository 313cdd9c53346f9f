/*
Package ports defines the driven ports (interfaces) of the rental assistant.

These interfaces decouple the conversation core from external implementations,
so the router works the same against in-memory fakes, Redis, a flat-file
catalog or a hosted language model.

# Key Interfaces

  - SessionStore: persists per-user Session state and evicts idle sessions.
  - DistributedLocker: serialises turns for one user across replicas.
  - Catalog: listing search, details and viewing slots.
  - Understander / Generator: intent analysis and reply phrasing.
  - HistoryStore / AppointmentSink: transcript and booking side effects.
*/
package ports
