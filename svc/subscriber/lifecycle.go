package subscriber

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/newsletter/pkg/statemachine"
)

// State is a lifecycle state. Persisted statuses map one to one; StateAbsent
// stands for "no record".
type State string

const (
	StateAbsent       State = "absent"
	StatePending      State = State(StatusPending)
	StateActive       State = State(StatusActive)
	StateUnsubscribed State = State(StatusUnsubscribed)
)

// Event is a lifecycle event.
type Event string

const (
	EventSubscribe        Event = "subscribe"
	EventConfirm          Event = "confirm"
	EventResend           Event = "resend_confirmation"
	EventUnsubscribe      Event = "unsubscribe"
	EventImport           Event = "import"
	EventForceUnsubscribe Event = "force_unsubscribe"
)

type guardInput struct {
	sub *Subscriber
	now time.Time
}

type guard = statemachine.Guard[State, Event, guardInput]

func tokenExpired(_ context.Context, _ State, _ Event, in guardInput) bool {
	return in.sub != nil && in.sub.ConfirmationExpired(in.now)
}

func tokenValid(ctx context.Context, from State, ev Event, in guardInput) bool {
	return !tokenExpired(ctx, from, ev, in)
}

func allow(from State, ev Event, to State, guards ...guard) statemachine.Transition[State, Event, guardInput] {
	return statemachine.Allow(from, ev, to, guards...)
}

// lifecycle is the full transition table. An expired pending record moves to
// StateAbsent: the record is deleted and the request still fails.
var lifecycle = statemachine.New(
	allow(StateAbsent, EventSubscribe, StatePending),
	allow(StatePending, EventSubscribe, StatePending, tokenValid),
	allow(StatePending, EventSubscribe, StateAbsent, tokenExpired),

	allow(StatePending, EventConfirm, StateActive, tokenValid),
	allow(StatePending, EventConfirm, StateAbsent, tokenExpired),
	allow(StateActive, EventConfirm, StateActive),

	allow(StatePending, EventResend, StatePending, tokenValid),
	allow(StatePending, EventResend, StateAbsent, tokenExpired),

	allow(StatePending, EventUnsubscribe, StateUnsubscribed),
	allow(StateActive, EventUnsubscribe, StateUnsubscribed),
	allow(StateUnsubscribed, EventUnsubscribe, StateUnsubscribed),

	allow(StateAbsent, EventImport, StateActive),

	allow(StatePending, EventForceUnsubscribe, StateUnsubscribed),
	allow(StateActive, EventForceUnsubscribe, StateUnsubscribed),
	allow(StateUnsubscribed, EventForceUnsubscribe, StateUnsubscribed),
)

// rejections hold the client-facing error for pairs missing from the table.
var rejections = map[Event]map[State]*Error{
	EventSubscribe: {
		StateActive:       {Kind: KindConflict, Message: MsgAlreadySubscribed},
		StateUnsubscribed: {Kind: KindForbidden, Message: MsgPreviouslyUnsubscribed},
	},
	EventConfirm: {
		StateAbsent:       {Kind: KindInvalid, Message: MsgInvalidConfirmationToken},
		StateUnsubscribed: {Kind: KindInvalid, Message: MsgInvalidConfirmationToken},
	},
	EventResend: {
		StateAbsent:       {Kind: KindNotFound, Message: MsgNoPendingSubscription},
		StateActive:       {Kind: KindNotFound, Message: MsgNoPendingSubscription},
		StateUnsubscribed: {Kind: KindNotFound, Message: MsgNoPendingSubscription},
	},
	EventUnsubscribe: {
		StateAbsent: {Kind: KindNotFound, Message: MsgInvalidUnsubscribeToken},
	},
	EventImport: {
		StatePending:      {Kind: KindConflict, Message: MsgAlreadyExists},
		StateActive:       {Kind: KindConflict, Message: MsgAlreadyExists},
		StateUnsubscribed: {Kind: KindConflict, Message: MsgAlreadyExists},
	},
	EventForceUnsubscribe: {
		StateAbsent: {Kind: KindNotFound, Message: MsgSubscriberNotFound},
	},
}

// stateOf maps a possibly nil record to its lifecycle state.
func stateOf(sub *Subscriber) State {
	if sub == nil {
		return StateAbsent
	}
	return sub.state()
}

// transition consults the lifecycle table and converts refusals into *Error.
func transition(ctx context.Context, sub *Subscriber, ev Event, now time.Time) (State, error) {
	from := stateOf(sub)
	next, err := lifecycle.Next(ctx, from, ev, guardInput{sub: sub, now: now})
	if err == nil {
		return next, nil
	}
	if rej, ok := rejections[ev][from]; ok {
		return "", &Error{Kind: rej.Kind, Message: rej.Message, Err: err}
	}
	return "", newError(KindInternal, MsgRequestFailed, errors.Join(ErrInvalidTransition, err))
}
