package node

import "dsnode/internal/proto"

// Base is the state every behavior shares: its id sequence and the init
// record received during the handshake.
type Base[ID any] struct {
	ids  Sequence[ID]
	init *proto.Init
}

func NewBase[ID any](ids Sequence[ID]) Base[ID] {
	return Base[ID]{ids: ids}
}

func (b *Base[ID]) Init(init proto.Init) {
	v := init
	v.NodeIDs = append([]string(nil), init.NodeIDs...)
	b.init = &v
}

func (b *Base[ID]) InitState() (proto.Init, bool) {
	if b.init == nil {
		return proto.Init{}, false
	}
	return *b.init, true
}

func (b *Base[ID]) NodeID() string {
	if b.init == nil {
		return ""
	}
	return b.init.NodeID
}

func (b *Base[ID]) NextID() ID {
	return b.ids.Reserve()
}

func (b *Base[ID]) CurrentID() ID {
	return b.ids.Current()
}
