package node

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"dsnode/internal/debuglog"
	"dsnode/internal/metrics"
	"dsnode/internal/proto"
)

type Options struct {
	Metrics *metrics.Metrics
}

// Run drives one node over a line-delimited JSON stream. The first record
// must be an init message; it is answered with init_ok before any other
// input is read. Every later record is decoded with decode and handed to
// Step. Run returns nil at end of input and stops at the first error.
func Run[ID any, P proto.Payload](in io.Reader, out io.Writer, newNode func() Node[ID, P], decode proto.Decoder[P], opts Options) error {
	r := proto.NewLineReader(in)
	w := &lineCounter{w: out}

	line, err := r.Next()
	if errors.Is(err, io.EOF) {
		return ErrNoInit
	}
	if err != nil {
		return fmt.Errorf("read init: %w", err)
	}
	initMsg, err := proto.DecodeEnvelope[ID, proto.InitPayload](line, proto.DecodeInit)
	if err != nil {
		return fmt.Errorf("decode init (line %d): %w", r.Line(), err)
	}
	opts.Metrics.IncRecv(initMsg.Body.Payload.Type())
	n, err := Build(newNode, initMsg)
	if err != nil {
		return fmt.Errorf("build node (line %d): %w", r.Line(), err)
	}
	if err := proto.Link(initMsg, n.NextID(), proto.InitOk{}).Send(w); err != nil {
		return fmt.Errorf("reply init_ok: %w", err)
	}
	opts.Metrics.AddReplied(w.take())
	if init, ok := initMsg.Body.Payload.(proto.Init); ok {
		debuglog.Debugf("node %s initialized, cluster=%v", init.NodeID, init.NodeIDs)
	}

	for {
		line, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		msg, err := proto.DecodeEnvelope[ID, P](line, decode)
		if err != nil {
			typ, _ := proto.SniffType(line)
			return fmt.Errorf("decode line %d (type %q): %w", r.Line(), typ, err)
		}
		typ := msg.Body.Payload.Type()
		opts.Metrics.IncRecv(typ)
		if err := n.Step(msg, w); err != nil {
			return fmt.Errorf("step %s (line %d): %w", typ, r.Line(), err)
		}
		if replies := w.take(); replies > 0 {
			opts.Metrics.AddReplied(replies)
		} else {
			opts.Metrics.IncIgnored()
			debuglog.Debugf("no reply for %s from %s", typ, msg.Src)
		}
	}
}

// lineCounter counts records written since the last take.
type lineCounter struct {
	w     io.Writer
	lines int
}

func (c *lineCounter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.lines += bytes.Count(p[:n], []byte{'\n'})
	return n, err
}

func (c *lineCounter) take() int {
	n := c.lines
	c.lines = 0
	return n
}
