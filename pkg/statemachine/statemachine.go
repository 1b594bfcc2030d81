package statemachine

import (
	"context"
	"fmt"
)

// Guard decides at runtime whether a transition applies to data.
type Guard[S, E comparable, D any] func(ctx context.Context, from S, event E, data D) bool

// Transition is one edge of the table. All guards must pass.
type Transition[S, E comparable, D any] struct {
	From   S
	To     S
	Event  E
	Guards []Guard[S, E, D]
}

// Table is a stateless transition table: it holds no current state, so one
// table can validate transitions for any number of independently stored
// records. It is safe for concurrent use once built.
type Table[S, E comparable, D any] struct {
	transitions map[S]map[E][]Transition[S, E, D]
}

// New builds a table from transitions. Several transitions may share the same
// from/event pair; the first one whose guards pass wins.
func New[S, E comparable, D any](transitions ...Transition[S, E, D]) *Table[S, E, D] {
	t := &Table[S, E, D]{transitions: make(map[S]map[E][]Transition[S, E, D])}
	for _, tr := range transitions {
		if _, ok := t.transitions[tr.From]; !ok {
			t.transitions[tr.From] = make(map[E][]Transition[S, E, D])
		}
		t.transitions[tr.From][tr.Event] = append(t.transitions[tr.From][tr.Event], tr)
	}
	return t
}

// Allow is shorthand for a Transition literal.
func Allow[S, E comparable, D any](from S, event E, to S, guards ...Guard[S, E, D]) Transition[S, E, D] {
	return Transition[S, E, D]{From: from, To: to, Event: event, Guards: guards}
}

// Next returns the state reached from "from" on event.
// It fails with *ErrNoTransitionAvailable when the pair is not in the table
// and with *ErrTransitionRejected when every candidate's guards refused.
func (t *Table[S, E, D]) Next(ctx context.Context, from S, event E, data D) (S, error) {
	candidates := t.transitions[from][event]
	if len(candidates) == 0 {
		var zero S
		return zero, NewErrNoTransitionAvailable(fmt.Sprint(from), fmt.Sprint(event))
	}

	for _, tr := range candidates {
		if guardsPass(ctx, tr, data) {
			return tr.To, nil
		}
	}

	var zero S
	return zero, NewErrTransitionRejected(fmt.Sprint(from), fmt.Sprint(event))
}

// CanFire reports whether Next would succeed.
func (t *Table[S, E, D]) CanFire(ctx context.Context, from S, event E, data D) bool {
	_, err := t.Next(ctx, from, event, data)
	return err == nil
}

// Events lists the events with at least one transition out of from.
func (t *Table[S, E, D]) Events(from S) []E {
	events := make([]E, 0, len(t.transitions[from]))
	for e := range t.transitions[from] {
		events = append(events, e)
	}
	return events
}

func guardsPass[S, E comparable, D any](ctx context.Context, tr Transition[S, E, D], data D) bool {
	for _, guard := range tr.Guards {
		if guard != nil && !guard(ctx, tr.From, tr.Event, data) {
			return false
		}
	}
	return true
}
