// Package statemachine provides a generic, stateless transition table.
//
// A Table maps (state, event) pairs to target states, optionally gated by
// guards that inspect per-call data. Because the table stores no current
// state, the caller loads a record, asks for the next state and persists the
// result itself:
//
//	type status string
//	type event string
//
//	table := statemachine.New(
//	    statemachine.Allow[status, event, *Order]("draft", "submit", "in_review"),
//	    statemachine.Allow("in_review", "approve", "approved", isOwner),
//	)
//
//	next, err := table.Next(ctx, order.Status, "approve", order)
//	if statemachine.IsNoTransitionAvailableError(err) { /* not in the table */ }
//	if statemachine.IsTransitionRejectedError(err)   { /* guards refused */ }
//
// Several transitions may share a from/event pair to express guard-based
// branching; they are tried in declaration order.
package statemachine
