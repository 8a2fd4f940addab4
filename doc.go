/*
Package slotflow runs slot-filling dialogues over a flow graph.

A flow is a directed graph of nodes. Each node carries an ordered list of
tasks: messages are said, getData tasks collect the values a data template
describes, and backend tasks wait for an external outcome. The orchestrator
walks the graph, asks for each value, escalates through no-input and no-match
prompts, confirms captured values and advances along edges when a node's tasks
are done.

# Usage

	o, err := slotflow.Open("flow.yaml", slotflow.WithSessionID("demo"))
	if err != nil {
		log.Fatal(err)
	}
	turn, err := o.Start(ctx)
	for turn.Status == domain.StatusWaitingUserInput {
		// show turn.Messages, read a line
		turn, err = o.HandleUserInput(ctx, line)
	}

The orchestrator is single-threaded. For concurrent access and persistence use
pkg/session, which serializes calls per session and saves snapshots to any
ports.SessionStore (memory, file, SQLite or Redis adapters are provided).

The slotflow command line wraps all of this: run, serve (HTTP), mcp, validate,
plan and graph.
*/
package slotflow
