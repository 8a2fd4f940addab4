/*
Package runner drives a slotflow dialogue over line-based IO.

The runner starts (or resumes) a session through a session.Manager, prints
each turn through an IOHandler and feeds every line it reads back as user
input until the flow stops waiting.

# Key Components

  - Runner: the read/eval loop.
  - IOHandler: how turns are printed and lines are read.
  - TextHandler: interactive terminal usage, optionally markdown-rendered.
  - JSONHandler: NDJSON turns for scripted hosts.

Lines starting with a slash are commands: /stop halts the session, /skip
completes the waiting task as saturated and /abort abandons it.

# Usage

	r := runner.New(manager,
		runner.WithSessionID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
