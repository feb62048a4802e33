package proto

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrUnknownType = errors.New("unknown payload type")
	ErrUnlinked    = errors.New("message must be linked before it is sent")
)

// Payload is one variant of a behavior's tagged message union.
type Payload interface {
	Type() string
}

// Decoder builds the payload variant named by typ from the raw body object.
type Decoder[P Payload] func(typ string, raw []byte) (P, error)

type Body[ID any, P Payload] struct {
	MsgID     *ID
	InReplyTo *ID
	Payload   P
}

type Envelope[ID any, P Payload] struct {
	Src  string      `json:"src"`
	Dest string      `json:"dest"`
	Body Body[ID, P] `json:"body"`
}

type wireEnvelope struct {
	Src  *string         `json:"src"`
	Dest *string         `json:"dest"`
	Body json.RawMessage `json:"body"`
}

type wireHeader[ID any] struct {
	Type      string `json:"type"`
	MsgID     *ID    `json:"msg_id"`
	InReplyTo *ID    `json:"in_reply_to"`
}

// MarshalJSON flattens the payload fields into the body next to type,
// msg_id and in_reply_to. Absent ids are omitted.
func (b Body[ID, P]) MarshalJSON() ([]byte, error) {
	if any(b.Payload) == nil {
		return nil, fmt.Errorf("missing payload")
	}
	raw, err := json.Marshal(b.Payload)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("payload %s is not an object: %w", b.Payload.Type(), err)
	}
	typ, err := json.Marshal(b.Payload.Type())
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	delete(fields, "msg_id")
	delete(fields, "in_reply_to")
	if b.MsgID != nil {
		if fields["msg_id"], err = json.Marshal(*b.MsgID); err != nil {
			return nil, err
		}
	}
	if b.InReplyTo != nil {
		if fields["in_reply_to"], err = json.Marshal(*b.InReplyTo); err != nil {
			return nil, err
		}
	}
	return json.Marshal(fields)
}

func DecodeEnvelope[ID any, P Payload](data []byte, decode Decoder[P]) (Envelope[ID, P], error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return Envelope[ID, P]{}, err
	}
	if w.Src == nil || w.Dest == nil {
		return Envelope[ID, P]{}, fmt.Errorf("missing src or dest")
	}
	if len(w.Body) == 0 || string(w.Body) == "null" {
		return Envelope[ID, P]{}, fmt.Errorf("missing body")
	}
	var hdr wireHeader[ID]
	if err := json.Unmarshal(w.Body, &hdr); err != nil {
		return Envelope[ID, P]{}, fmt.Errorf("decode body header: %w", err)
	}
	if hdr.Type == "" {
		return Envelope[ID, P]{}, fmt.Errorf("missing body type")
	}
	p, err := decode(hdr.Type, w.Body)
	if err != nil {
		return Envelope[ID, P]{}, fmt.Errorf("decode %s body: %w", hdr.Type, err)
	}
	return Envelope[ID, P]{
		Src:  *w.Src,
		Dest: *w.Dest,
		Body: Body[ID, P]{MsgID: hdr.MsgID, InReplyTo: hdr.InReplyTo, Payload: p},
	}, nil
}

// Outbound is an addressed reply. Only Link produces a sendable one; the zero
// value is unlinked and refuses to encode.
type Outbound[ID any, P Payload] struct {
	env    Envelope[ID, P]
	linked bool
}

// Link addresses payload as the reply to in: source and destination swap,
// msg_id is id and in_reply_to is the inbound msg_id (nil stays nil).
func Link[ID any, IP Payload, OP Payload](in Envelope[ID, IP], id ID, payload OP) Outbound[ID, OP] {
	var inReplyTo *ID
	if in.Body.MsgID != nil {
		v := *in.Body.MsgID
		inReplyTo = &v
	}
	return Outbound[ID, OP]{
		env: Envelope[ID, OP]{
			Src:  in.Dest,
			Dest: in.Src,
			Body: Body[ID, OP]{MsgID: &id, InReplyTo: inReplyTo, Payload: payload},
		},
		linked: true,
	}
}

func (o Outbound[ID, P]) Linked() bool {
	return o.linked
}

func (o Outbound[ID, P]) Envelope() Envelope[ID, P] {
	return o.env
}

func (o Outbound[ID, P]) Encode() ([]byte, error) {
	if !o.linked {
		return nil, ErrUnlinked
	}
	data, err := json.Marshal(o.env)
	if err != nil {
		return nil, fmt.Errorf("encode %s reply: %w", typeOf(o.env.Body.Payload), err)
	}
	return data, nil
}

// Send writes the reply as one newline-terminated record.
func (o Outbound[ID, P]) Send(w io.Writer) error {
	data, err := o.Encode()
	if err != nil {
		return err
	}
	if err := WriteLine(w, data); err != nil {
		return fmt.Errorf("write %s reply: %w", typeOf(o.env.Body.Payload), err)
	}
	return nil
}

func typeOf(p Payload) string {
	if p == nil {
		return "<nil>"
	}
	return p.Type()
}

// decodeFields unmarshals raw into v after checking that every required key
// is present in the body object.
func decodeFields(raw []byte, v any, required ...string) error {
	if len(required) > 0 {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return err
		}
		for _, k := range required {
			if _, ok := fields[k]; !ok {
				return fmt.Errorf("missing field %q", k)
			}
		}
	}
	return json.Unmarshal(raw, v)
}
