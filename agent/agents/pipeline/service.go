// Package pipeline runs the guarded conversation loop. Every user message
// passes an input gate before the generator sees it and an output gate before
// the reply is shown or persisted, so an off-topic question or an unsafe
// draft never leaks into the thread record.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/contract"
	nodex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/nodes/pipeline"
	statex "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidThread  = nodex.ErrInvalidThread
)

type Pipeline struct {
	store  statex.Store
	models contractx.Registry

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
	locks       *threadLocks

	now func() time.Time
}

func New(store statex.Store, models contractx.Registry) (*Pipeline, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}

	p := &Pipeline{
		store:  store,
		models: models,
		locks:  newThreadLocks(),
		now:    time.Now,
	}

	graphRunner, err := p.compileRespondGraph(context.Background())
	if err != nil {
		return nil, err
	}
	p.graphRunner = graphRunner

	return p, nil
}

// Respond runs one user message through the gated pipeline and returns the
// final reply. Runs on the same thread are serialized; different threads
// proceed in parallel.
func (p *Pipeline) Respond(ctx context.Context, threadID string, text string) (string, error) {
	unlock := p.locks.lock(strings.TrimSpace(threadID))
	defer unlock()

	out, err := p.graphRunner.Invoke(ctx, nodex.GraphInput{
		ThreadID: threadID,
		Text:     text,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}
