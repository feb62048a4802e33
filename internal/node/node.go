package node

import (
	"errors"
	"fmt"
	"io"

	"dsnode/internal/proto"
)

var (
	ErrNoInit         = errors.New("input ended before init message")
	ErrInitOk         = errors.New("cannot build a node from init_ok")
	ErrNotInitialized = errors.New("node is not initialized")
)

// Node is one protocol behavior. Step handles a single decoded message and
// writes any linked replies to out; it returns an error only when the
// behavior cannot continue.
type Node[ID any, P proto.Payload] interface {
	Init(init proto.Init)
	NextID() ID
	Step(msg proto.Envelope[ID, P], out io.Writer) error
}

// Build constructs a fresh node from newNode and initializes it from the
// handshake message.
func Build[ID any, P proto.Payload](newNode func() Node[ID, P], msg proto.Envelope[ID, proto.InitPayload]) (Node[ID, P], error) {
	switch p := msg.Body.Payload.(type) {
	case proto.Init:
		n := newNode()
		n.Init(p)
		return n, nil
	case proto.InitOk:
		return nil, ErrInitOk
	default:
		return nil, fmt.Errorf("unexpected init payload %T", p)
	}
}
