package behavior

import (
	"io"

	"dsnode/internal/node"
	"dsnode/internal/proto"
)

// Echo answers every echo with the same string.
type Echo[ID any] struct {
	node.Base[ID]
}

func NewEcho[ID any](ids node.Sequence[ID]) *Echo[ID] {
	return &Echo[ID]{Base: node.NewBase(ids)}
}

func (e *Echo[ID]) Step(msg proto.Envelope[ID, proto.EchoPayload], out io.Writer) error {
	switch p := msg.Body.Payload.(type) {
	case proto.Echo:
		return proto.Link(msg, e.NextID(), proto.EchoOk{Echo: p.Echo}).Send(out)
	}
	return nil
}
