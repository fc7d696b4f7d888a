package events

import "ubichain/core/types"

// Event represents a structured state change emitted by the chain.
type Event interface {
	EventType() string
}

// Payload is implemented by events that can render themselves as the generic
// key/value event used in block receipts.
type Payload interface {
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Buffer collects events until Flush forwards them. The node uses one buffer
// per transaction so events of a reverted transaction are never published.
type Buffer struct {
	pending []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.pending = append(b.pending, evt)
}

// Events returns the buffered events in emission order.
func (b *Buffer) Events() []Event {
	if b == nil {
		return nil
	}
	return append([]Event(nil), b.pending...)
}

// Flush forwards every buffered event to dst and empties the buffer.
func (b *Buffer) Flush(dst Emitter) {
	if b == nil {
		return
	}
	if dst != nil {
		for _, evt := range b.pending {
			dst.Emit(evt)
		}
	}
	b.pending = nil
}

// Reset discards the buffered events.
func (b *Buffer) Reset() {
	if b == nil {
		return
	}
	b.pending = nil
}

// Fanout delivers each event to every emitter in order.
type Fanout []Emitter

// Emit implements the Emitter interface.
func (f Fanout) Emit(evt Event) {
	for _, emitter := range f {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}
