package events

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type named string

func (n named) EventType() string { return string(n) }

type recorder struct {
	seen []string
}

func (r *recorder) Emit(evt Event) { r.seen = append(r.seen, evt.EventType()) }

func TestBufferFlushForwardsInOrder(t *testing.T) {
	var buf Buffer
	buf.Emit(named("a"))
	buf.Emit(nil)
	buf.Emit(named("b"))
	require.Len(t, buf.Events(), 2)

	rec := &recorder{}
	buf.Flush(rec)
	require.Equal(t, []string{"a", "b"}, rec.seen)
	require.Empty(t, buf.Events())
}

func TestBufferResetDropsEvents(t *testing.T) {
	var buf Buffer
	buf.Emit(named("a"))
	buf.Reset()

	rec := &recorder{}
	buf.Flush(rec)
	require.Empty(t, rec.seen)
}

func TestFanoutSkipsNilEmitters(t *testing.T) {
	first, second := &recorder{}, &recorder{}
	Fanout{first, nil, second, NoopEmitter{}}.Emit(named("x"))
	require.Equal(t, []string{"x"}, first.seen)
	require.Equal(t, []string{"x"}, second.seen)
}
