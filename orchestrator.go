// Package parakeet implements the conversation completion pipeline of a
// multi-provider chat client: it turns a typed prompt plus history into a
// provider request, dispatches it off the interactive thread, and routes
// streamed or whole responses back through a single marshaling point.
package parakeet

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"github.com/parakeet-chat/parakeet/src/chat"
	"github.com/parakeet-chat/parakeet/src/engine"
	"github.com/parakeet-chat/parakeet/src/provider"
)

// Options configure a new Orchestrator.
type Options struct {
	// Conversation is the history this orchestrator owns the lifecycle
	// for. Required.
	Conversation *chat.Conversation
	// Adapter receives lifecycle events. Required.
	Adapter Adapter
	// CallAfter marshals a closure onto the interactive thread, preserving
	// submission order. Nil means invoke directly (tests, headless use).
	CallAfter func(func())
	// Alive reports whether the owning view context still exists. Events
	// for a dead context are dropped silently. Nil means always alive.
	Alive func() bool
}

// Orchestrator sequences one end-to-end completion exchange per
// submission on a single conversation. At most one request is in flight;
// concurrent submissions are rejected with *BusyError.
type Orchestrator struct {
	conv      *chat.Conversation
	adapter   Adapter
	callAfter func(func())
	alive     func() bool

	mu      sync.Mutex
	state   State
	current *chat.MessageBlock
	cancel  context.CancelFunc

	cancelled atomic.Bool
	failed    atomic.Bool
}

// New creates an orchestrator for one conversation.
func New(opts Options) (*Orchestrator, error) {
	if opts.Conversation == nil {
		return nil, errors.New("orchestrator requires a conversation")
	}
	if opts.Adapter == nil {
		return nil, errors.New("orchestrator requires a presentation adapter")
	}
	return &Orchestrator{
		conv:      opts.Conversation,
		adapter:   opts.Adapter,
		callAfter: opts.CallAfter,
		alive:     opts.Alive,
	}, nil
}

// Conversation returns the conversation this orchestrator drives.
func (o *Orchestrator) Conversation() *chat.Conversation { return o.conv }

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Busy reports whether a completion is in flight.
func (o *Orchestrator) Busy() bool { return o.State().InFlight() }

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Submit validates and dispatches one completion request. It returns the
// pending block on success; the request then runs on its own goroutine
// and reports through the adapter. Pre-dispatch failures (busy, missing
// model, capability mismatch) are returned synchronously and leave the
// conversation untouched.
func (o *Orchestrator) Submit(ctx context.Context, eng engine.Engine, model provider.AIModel, params chat.BlockParams, prompt string, attachments ...chat.Attachment) (*chat.MessageBlock, error) {
	if model.ID == "" {
		return nil, errors.New("no model selected")
	}

	o.mu.Lock()
	if o.state != StateIdle {
		state := o.state
		o.mu.Unlock()
		return nil, &BusyError{State: state}
	}
	o.state = StateBuilding
	o.mu.Unlock()

	if err := validateRequest(eng, model, params, attachments); err != nil {
		o.setState(StateIdle)
		return nil, err
	}

	params.Model = model.ID
	block := chat.NewMessageBlock(chat.NewMessage(chat.RoleUser, prompt, attachments...), params)
	o.conv.Append(block)

	cctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.state = StateDispatched
	o.current = block
	o.cancel = cancel
	o.mu.Unlock()
	o.cancelled.Store(false)
	o.failed.Store(false)

	log.Printf("completion started: conversation %s block %s model %s stream=%v",
		o.conv.ID(), block.ID, params.Model, params.Stream)
	go o.run(cctx, eng, block)
	return block, nil
}

// Stop requests cooperative cancellation of the in-flight completion.
// Safe to call from the interactive thread at any time; a no-op when
// idle. The background goroutine observes the flag at the next fragment
// boundary and releases the connection via context cancellation.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	inFlight := o.state.InFlight()
	o.mu.Unlock()
	if !inFlight {
		return
	}
	o.cancelled.Store(true)
	if cancel != nil {
		cancel()
	}
	log.Printf("completion cancel requested: conversation %s", o.conv.ID())
}

// validateRequest rejects modalities outside the model's and engine's
// capability sets before any network call.
func validateRequest(eng engine.Engine, model provider.AIModel, params chat.BlockParams, attachments []chat.Attachment) error {
	caps := model.Capabilities
	if caps == 0 {
		caps = eng.Capabilities()
	}
	need := func(c provider.Capability) error {
		if !caps.Has(c) || !eng.Capabilities().Has(c) {
			return &engine.CapabilityError{Model: model.ID, Capability: c}
		}
		return nil
	}
	for _, a := range attachments {
		switch {
		case a.IsImage():
			if err := need(provider.CapImage); err != nil {
				return err
			}
		case a.IsAudio():
			if err := need(provider.CapAudio); err != nil {
				return err
			}
		}
	}
	if params.Stream {
		if err := need(provider.CapStreaming); err != nil {
			return err
		}
	}
	return nil
}

// run executes one completion on its dedicated goroutine.
func (o *Orchestrator) run(ctx context.Context, eng engine.Engine, block *chat.MessageBlock) {
	defer func() {
		o.mu.Lock()
		if o.cancel != nil {
			o.cancel()
			o.cancel = nil
		}
		o.current = nil
		o.state = StateIdle
		o.mu.Unlock()
		log.Printf("completion ended: conversation %s block %s finish=%s",
			o.conv.ID(), block.ID, block.Finish)
	}()

	payload, err := eng.PrepareRequest(block, o.conv, o.conv.System())
	if err != nil {
		o.fail(block, err)
		return
	}

	raw, err := eng.Complete(ctx, payload, block.Params.Stream)
	if err != nil {
		if o.cancelled.Load() || ctx.Err() != nil {
			o.finishCancelled(block)
			return
		}
		o.fail(block, err)
		return
	}

	if block.Params.Stream {
		o.consumeStream(ctx, eng, raw, block)
		return
	}
	o.applyWhole(eng, raw, block)
}

// applyWhole parses a non-streamed response and applies it in one step.
func (o *Orchestrator) applyWhole(eng engine.Engine, raw any, block *chat.MessageBlock) {
	o.setState(StateAwaitingFull)
	msg, err := eng.WholeResponse(raw)
	if err != nil {
		o.fail(block, err)
		return
	}
	if o.cancelled.Load() {
		o.finishCancelled(block)
		return
	}
	o.setState(StateApplying)
	o.conv.CompleteResponse(block.ID, msg)
	o.notify(func(a Adapter) { a.OnCompleted(block.ID, msg) })
}

// fail marks the block failed, keeping the request (and any partial
// content) for resubmission, and surfaces a structured error.
func (o *Orchestrator) fail(block *chat.MessageBlock, err error) {
	o.failed.Store(true)
	o.setState(StateFailed)
	o.conv.FinishBlock(block.ID, chat.FinishFailed)
	kind := engine.KindOf(err)
	log.Printf("completion failed: block %s kind=%s: %v", block.ID, kind, err)
	o.notify(func(a Adapter) { a.OnError(block.ID, kind, err.Error()) })
}

// finishCancelled marks the block cancelled, preserving partial content.
func (o *Orchestrator) finishCancelled(block *chat.MessageBlock) {
	o.setState(StateCancelled)
	o.conv.FinishBlock(block.ID, chat.FinishCancelled)
	partial, _ := o.conv.Response(block.ID)
	o.notify(func(a Adapter) { a.OnCancelled(block.ID, partial) })
}
