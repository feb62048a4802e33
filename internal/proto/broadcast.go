package proto

import "fmt"

const (
	MsgTypeBroadcast   = "broadcast"
	MsgTypeBroadcastOk = "broadcast_ok"
	MsgTypeRead        = "read"
	MsgTypeReadOk      = "read_ok"
	MsgTypeTopology    = "topology"
	MsgTypeTopologyOk  = "topology_ok"
)

type BroadcastPayload interface {
	Payload
	broadcastPayload()
}

type Broadcast[T any] struct {
	Message T `json:"message"`
}

type BroadcastOk struct{}

type Read struct{}

type ReadOk[T any] struct {
	Messages []T `json:"messages"`
}

// Topology maps each node id to its neighbor ids.
type Topology struct {
	Topology map[string][]string `json:"topology"`
}

type TopologyOk struct{}

func (Broadcast[T]) Type() string { return MsgTypeBroadcast }
func (BroadcastOk) Type() string  { return MsgTypeBroadcastOk }
func (Read) Type() string         { return MsgTypeRead }
func (ReadOk[T]) Type() string    { return MsgTypeReadOk }
func (Topology) Type() string     { return MsgTypeTopology }
func (TopologyOk) Type() string   { return MsgTypeTopologyOk }

func (Broadcast[T]) broadcastPayload() {}
func (BroadcastOk) broadcastPayload()  {}
func (Read) broadcastPayload()         {}
func (ReadOk[T]) broadcastPayload()    {}
func (Topology) broadcastPayload()     {}
func (TopologyOk) broadcastPayload()   {}

// DecodeBroadcast decodes the broadcast family with message values of type T.
func DecodeBroadcast[T any](typ string, raw []byte) (BroadcastPayload, error) {
	switch typ {
	case MsgTypeBroadcast:
		var p Broadcast[T]
		if err := decodeFields(raw, &p, "message"); err != nil {
			return nil, err
		}
		return p, nil
	case MsgTypeBroadcastOk:
		return BroadcastOk{}, nil
	case MsgTypeRead:
		return Read{}, nil
	case MsgTypeReadOk:
		var p ReadOk[T]
		if err := decodeFields(raw, &p, "messages"); err != nil {
			return nil, err
		}
		return p, nil
	case MsgTypeTopology:
		var p Topology
		if err := decodeFields(raw, &p, "topology"); err != nil {
			return nil, err
		}
		if p.Topology == nil {
			p.Topology = make(map[string][]string)
		}
		return p, nil
	case MsgTypeTopologyOk:
		return TopologyOk{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
}
