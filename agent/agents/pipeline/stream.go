package pipeline

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
	nodex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/nodes/pipeline"
)

const streamBuffer = 8

// RespondStream runs the gated pipeline and emits the reply as it is
// generated: zero or more fragment events, then one done event carrying the
// thread id. A reply that produced no fragments, such as a blocked message or
// a canned fallback, arrives as a single fragment.
//
// The run is detached from the caller's cancellation: closing the reader
// stops delivery, but generation and persistence finish so the stored thread
// always matches a completed pipeline pass.
func (p *Pipeline) RespondStream(ctx context.Context, threadID string, text string) *schema.StreamReader[contractx.StreamEvent] {
	sr, sw := schema.Pipe[contractx.StreamEvent](streamBuffer)

	go func() {
		defer sw.Close()

		unlock := p.locks.lock(strings.TrimSpace(threadID))
		defer unlock()

		emitted := 0
		emit := func(fragment string) {
			emitted++
			sw.Send(contractx.StreamEvent{
				Kind:     contractx.StreamEventFragment,
				Fragment: fragment,
			}, nil)
		}

		out, err := p.graphRunner.Invoke(context.WithoutCancel(ctx), nodex.GraphInput{
			ThreadID: threadID,
			Text:     text,
			Emit:     emit,
		})
		if err != nil {
			sw.Send(contractx.StreamEvent{}, err)
			return
		}

		if emitted == 0 {
			sw.Send(contractx.StreamEvent{
				Kind:     contractx.StreamEventFragment,
				Fragment: out.Reply,
			}, nil)
		}
		sw.Send(contractx.StreamEvent{
			Kind:     contractx.StreamEventDone,
			ThreadID: out.ThreadID,
		}, nil)
	}()

	return sr
}
