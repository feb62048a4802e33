package proto

import "fmt"

const (
	MsgTypeInit   = "init"
	MsgTypeInitOk = "init_ok"
)

type InitPayload interface {
	Payload
	initPayload()
}

// Init is the handshake record naming this node and the cluster membership.
type Init struct {
	NodeID  string   `json:"node_id"`
	NodeIDs []string `json:"node_ids"`
}

type InitOk struct{}

func (Init) Type() string   { return MsgTypeInit }
func (InitOk) Type() string { return MsgTypeInitOk }

func (Init) initPayload()   {}
func (InitOk) initPayload() {}

func DecodeInit(typ string, raw []byte) (InitPayload, error) {
	switch typ {
	case MsgTypeInit:
		var p Init
		if err := decodeFields(raw, &p, "node_id", "node_ids"); err != nil {
			return nil, err
		}
		return p, nil
	case MsgTypeInitOk:
		return InitOk{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
}
