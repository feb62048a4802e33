package behavior

import (
	"fmt"
	"io"

	"dsnode/internal/node"
	"dsnode/internal/proto"
)

// Unique generates ids that are unique across the cluster by prefixing the
// local counter with this node's id. Cluster-wide uniqueness relies on the
// harness assigning distinct node ids.
type Unique[ID any] struct {
	node.Base[ID]
}

func NewUnique[ID any](ids node.Sequence[ID]) *Unique[ID] {
	return &Unique[ID]{Base: node.NewBase(ids)}
}

func (u *Unique[ID]) Step(msg proto.Envelope[ID, proto.UniquePayload], out io.Writer) error {
	switch msg.Body.Payload.(type) {
	case proto.Generate:
		init, ok := u.InitState()
		if !ok {
			return fmt.Errorf("generate: %w", node.ErrNotInitialized)
		}
		// The counter is read before the reply reserves it, so the generated
		// value matches the reply's msg_id.
		id := init.NodeID + fmt.Sprint(u.CurrentID())
		return proto.Link(msg, u.NextID(), proto.GenerateOk{ID: id}).Send(out)
	}
	return nil
}
