/*
Package session runs dialogues against persisted sessions.

The Manager serializes every operation on one session (a local mutex per ID
plus an optional ports.DistributedLocker) and performs load, restore,
operate and save as one unit, so any replica can serve the next turn.
*/
package session
