/*
Package rentbot is a conversational assistant for renting homes. It turns
free-text requests ("2 bedroom in Austin under $1500, pets ok") and explicit
actions into searches over a listing catalog, then walks the renter through
booking a viewing and collecting their contact details.

# Architecture

Each user_id owns a session: accumulated search criteria, the candidate
listings of the last search and the booking sub-state. A turn is processed
by the router in one critical section per user:

  - the language model (or the keyword heuristic) extracts intent and entities;
  - the criteria merger folds the new entities into the session;
  - the market gate rejects cities outside the served markets;
  - the catalog adapter filters, sorts and renders listing cards;
  - the booking controller offers slots, runs contact intake and confirms.

Sessions live in memory or in Redis, optionally sealed with AES-GCM and
serialized across replicas with a Redis lock. Confirmed appointments go to a
SQLite ledger and to calendar and SMS notifiers.

# Usage

	cfg, err := config.Load("rentbot.yaml")
	if err != nil {
		log.Fatal(err)
	}
	app, err := rentbot.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()
	go app.Run(ctx)

	reply, err := app.Handle(ctx, domain.Turn{UserID: "u1", Query: "2 bedroom in Austin"})

The same App backs the HTTP API, the MCP server and the terminal chat in
cmd/rentbot.
*/
package rentbot
