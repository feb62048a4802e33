package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"dsnode/internal/behavior"
	"dsnode/internal/metrics"
	"dsnode/internal/network"
	"dsnode/internal/node"
	"dsnode/internal/proto"
)

const (
	RoleEcho      = "echo"
	RoleUnique    = "unique"
	RoleBroadcast = "broadcast"
)

// Roles lists the behaviors a node can run, in usage order.
var Roles = []string{RoleEcho, RoleUnique, RoleBroadcast}

var ErrUnknownRole = errors.New("unknown role")

// MsgID is the identifier type used on the wire by every role.
type MsgID = uint64

// BroadcastValue keeps broadcast messages as raw JSON, so any value the
// harness sends is stored and read back exactly.
type BroadcastValue = json.RawMessage

func KnownRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Session runs a fresh node of the given role over in and out until in is exhausted.
func Session(role string, in io.Reader, out io.Writer, m *metrics.Metrics) error {
	opts := node.Options{Metrics: m}
	switch role {
	case RoleEcho:
		m.IncSessions()
		return node.Run[MsgID, proto.EchoPayload](in, out, func() node.Node[MsgID, proto.EchoPayload] {
			return behavior.NewEcho[MsgID](node.NewCounter())
		}, proto.DecodeEcho, opts)
	case RoleUnique:
		m.IncSessions()
		return node.Run[MsgID, proto.UniquePayload](in, out, func() node.Node[MsgID, proto.UniquePayload] {
			return behavior.NewUnique[MsgID](node.NewCounter())
		}, proto.DecodeUnique, opts)
	case RoleBroadcast:
		m.IncSessions()
		return broadcastSession[BroadcastValue](in, out, m, opts)
	}
	return fmt.Errorf("%w: %s", ErrUnknownRole, role)
}

// broadcastSession takes the decoder from the behavior type so the decoded
// message values always match the stored ones.
func broadcastSession[T any](in io.Reader, out io.Writer, m *metrics.Metrics, opts node.Options) error {
	var decoder *behavior.Broadcast[MsgID, T]
	return node.Run[MsgID, proto.BroadcastPayload](in, out, func() node.Node[MsgID, proto.BroadcastPayload] {
		return behavior.NewBroadcast[MsgID, T](node.NewCounter(), m)
	}, decoder.Decode, opts)
}

// Serve runs one independent session per accepted QUIC stream until ctx is done.
func Serve(ctx context.Context, ln *network.Listener, role string, m *metrics.Metrics) error {
	if !KnownRole(role) {
		return fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	return ln.Serve(ctx, func(ctx context.Context, remote string, rw io.ReadWriter) error {
		return Session(role, rw, rw, m)
	})
}

// Relay forwards in to a remote session and copies its replies to out. It
// returns once the remote side has finished writing.
func Relay(ctx context.Context, addr string, opts network.DialOptions, in io.Reader, out io.Writer) error {
	c, err := network.Dial(ctx, addr, opts)
	if err != nil {
		return err
	}
	defer c.Close()

	sent := make(chan error, 1)
	go func() {
		_, err := io.Copy(c, in)
		if cerr := c.CloseWrite(); err == nil {
			err = cerr
		}
		sent <- err
	}()
	if _, err := io.Copy(out, c); err != nil {
		return fmt.Errorf("relay replies: %w", err)
	}
	select {
	case err := <-sent:
		if err != nil {
			return fmt.Errorf("relay input: %w", err)
		}
	default:
	}
	return nil
}
