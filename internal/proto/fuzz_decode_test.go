package proto

import (
	"bytes"
	"strings"
	"testing"

	"dsnode/internal/testutil"
)

func FuzzReadLines(f *testing.F) {
	f.Add([]byte("{}\n\n{\"a\":1}\n"))
	f.Add([]byte(strings.Repeat("x", 128)))
	f.Fuzz(func(t *testing.T, data []byte) {
		data = testutil.CapBytes(data, testutil.DefaultMaxFuzzBytes)
		testutil.WithTimeout(t, testutil.DefaultFuzzTimeout, func() {
			r := NewLineReader(bytes.NewReader(data))
			for {
				if _, err := r.Next(); err != nil {
					return
				}
			}
		})
	})
}

func FuzzDecodeBroadcastEnvelope(f *testing.F) {
	f.Add([]byte(`{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":1,"message":3}}`))
	f.Add([]byte(`{"src":"c1","dest":"n1","body":{"type":"topology","topology":{"n1":["n2"]}}}`))
	f.Fuzz(func(t *testing.T, data []byte) {
		data = testutil.CapBytes(data, testutil.DefaultMaxFuzzBytes)
		testutil.WithTimeout(t, testutil.DefaultFuzzTimeout, func() {
			env, err := DecodeEnvelope[uint64, BroadcastPayload](data, DecodeBroadcast[int64])
			if err != nil {
				return
			}
			var id uint64
			if env.Body.MsgID != nil {
				id = *env.Body.MsgID + 1
			}
			if _, err := Link(env, id, BroadcastOk{}).Encode(); err != nil {
				t.Fatalf("encode reply failed: %v", err)
			}
		})
	})
}

func FuzzDecodeInit(f *testing.F) {
	f.Add([]byte(`{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1","node_ids":["n1"]}}`))
	f.Fuzz(func(t *testing.T, data []byte) {
		data = testutil.CapBytes(data, testutil.DefaultMaxFuzzBytes)
		testutil.WithTimeout(t, testutil.DefaultFuzzTimeout, func() {
			_, _ = DecodeEnvelope[uint64, InitPayload](data, DecodeInit)
		})
	})
}
