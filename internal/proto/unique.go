package proto

import "fmt"

const (
	MsgTypeGenerate   = "generate"
	MsgTypeGenerateOk = "generate_ok"
)

type UniquePayload interface {
	Payload
	uniquePayload()
}

type Generate struct{}

type GenerateOk struct {
	ID string `json:"id"`
}

func (Generate) Type() string   { return MsgTypeGenerate }
func (GenerateOk) Type() string { return MsgTypeGenerateOk }

func (Generate) uniquePayload()   {}
func (GenerateOk) uniquePayload() {}

func DecodeUnique(typ string, raw []byte) (UniquePayload, error) {
	switch typ {
	case MsgTypeGenerate:
		return Generate{}, nil
	case MsgTypeGenerateOk:
		var p GenerateOk
		if err := decodeFields(raw, &p, "id"); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
}
