package behavior

import (
	"errors"
	"fmt"
	"io"

	"dsnode/internal/debuglog"
	"dsnode/internal/metrics"
	"dsnode/internal/node"
	"dsnode/internal/proto"
	"dsnode/internal/store"
)

// ErrValueType reports a broadcast decoded with a different value type than
// the behavior stores.
var ErrValueType = errors.New("broadcast value type mismatch")

// Broadcast accumulates every distinct message it is sent and remembers the
// latest topology. It does not relay messages to its neighbors.
type Broadcast[ID any, T any] struct {
	node.Base[ID]
	messages *store.Set[T]
	topology map[string][]string
	metrics  *metrics.Metrics
}

func NewBroadcast[ID any, T any](ids node.Sequence[ID], m *metrics.Metrics) *Broadcast[ID, T] {
	return &Broadcast[ID, T]{
		Base:     node.NewBase(ids),
		messages: store.NewSet[T](),
		topology: make(map[string][]string),
		metrics:  m,
	}
}

// Decode decodes the broadcast family with this behavior's value type. It
// does not touch the receiver, so a nil *Broadcast can supply the decoder.
func (*Broadcast[ID, T]) Decode(typ string, raw []byte) (proto.BroadcastPayload, error) {
	return proto.DecodeBroadcast[T](typ, raw)
}

func (b *Broadcast[ID, T]) Step(msg proto.Envelope[ID, proto.BroadcastPayload], out io.Writer) error {
	switch p := msg.Body.Payload.(type) {
	case proto.Broadcast[T]:
		added, err := b.messages.Add(p.Message)
		if err != nil {
			return fmt.Errorf("store message: %w", err)
		}
		if added {
			b.metrics.IncBroadcastNew()
		} else {
			b.metrics.IncBroadcastDuplicate()
			debuglog.Debugf("duplicate broadcast from %s", msg.Src)
		}
		return proto.Link(msg, b.NextID(), proto.BroadcastOk{}).Send(out)
	case proto.Read:
		return proto.Link(msg, b.NextID(), proto.ReadOk[T]{Messages: b.messages.Snapshot()}).Send(out)
	case proto.Topology:
		b.topology = cloneTopology(p.Topology)
		b.metrics.IncTopologyUpdate()
		debuglog.Debugf("topology replaced: %d nodes, neighbors=%v", len(b.topology), b.topology[b.NodeID()])
		return proto.Link(msg, b.NextID(), proto.TopologyOk{}).Send(out)
	}
	if msg.Body.Payload.Type() == proto.MsgTypeBroadcast {
		return fmt.Errorf("%w: got %T", ErrValueType, msg.Body.Payload)
	}
	return nil
}

// Messages returns the accumulated messages in arrival order.
func (b *Broadcast[ID, T]) Messages() []T {
	return b.messages.Snapshot()
}

func (b *Broadcast[ID, T]) Topology() map[string][]string {
	return cloneTopology(b.topology)
}

// Neighbors lists this node's neighbors in the current topology.
func (b *Broadcast[ID, T]) Neighbors() []string {
	return append([]string(nil), b.topology[b.NodeID()]...)
}

func cloneTopology(t map[string][]string) map[string][]string {
	out := make(map[string][]string, len(t))
	for k, v := range t {
		out[k] = append([]string(nil), v...)
	}
	return out
}
