package proto

import "fmt"

const (
	MsgTypeEcho   = "echo"
	MsgTypeEchoOk = "echo_ok"
)

type EchoPayload interface {
	Payload
	echoPayload()
}

type Echo struct {
	Echo string `json:"echo"`
}

type EchoOk struct {
	Echo string `json:"echo"`
}

func (Echo) Type() string   { return MsgTypeEcho }
func (EchoOk) Type() string { return MsgTypeEchoOk }

func (Echo) echoPayload()   {}
func (EchoOk) echoPayload() {}

func DecodeEcho(typ string, raw []byte) (EchoPayload, error) {
	switch typ {
	case MsgTypeEcho:
		var p Echo
		if err := decodeFields(raw, &p, "echo"); err != nil {
			return nil, err
		}
		return p, nil
	case MsgTypeEchoOk:
		var p EchoOk
		if err := decodeFields(raw, &p, "echo"); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
}
