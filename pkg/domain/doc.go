/*
Package domain contains the core models of the rental assistant.

It defines the per-user Session, the typed booking and intake state carried in
it, the inbound Turn and outbound Reply wire shapes, and the recoverable error
kinds. The package has no I/O and no third-party dependencies.

# Key Entities

  - Session: everything the server keeps for one user_id between turns.
  - Criteria: the fixed-shape search preference accumulated across turns.
  - Booking / Intake: the viewing-booking state machine data.
  - Property / Card / Slot / Details: catalog data as the client sees it.
  - Error: a recoverable failure whose message is safe to show the user.
*/
package domain
