package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/carebot/internal/core"
	"github.com/sandevgo/carebot/pkg/log"
	"github.com/sandevgo/carebot/pkg/retry"
)

// State names one stage of the turn pipeline. Stages advance strictly
// forward; any other transition is a wiring bug surfaced as a WorkflowError.
type State string

const (
	StateReceivingInput       State = "receiving_input"
	StateClassifyingIntent    State = "classifying_intent"
	StateFetchingContext      State = "fetching_context"
	StateEvaluatingEscalation State = "evaluating_escalation"
	StateDone                 State = "done"
)

var transitions = map[State]State{
	StateReceivingInput:       StateClassifyingIntent,
	StateClassifyingIntent:    StateFetchingContext,
	StateFetchingContext:      StateEvaluatingEscalation,
	StateEvaluatingEscalation: StateDone,
}

type machine struct {
	current State
}

func (m *machine) advance(to State) error {
	next, ok := transitions[m.current]
	if !ok || next != to {
		return fmt.Errorf("illegal transition %s -> %s", m.current, to)
	}
	m.current = to
	return nil
}

type Classifier interface {
	Classify(text string) core.Intent
}

type ContextSource interface {
	Aggregate(ctx context.Context, subjectID string, intent core.Intent) core.ContextRecord
}

type EscalationEvaluator interface {
	Evaluate(text string, record core.ContextRecord) core.EscalationDecision
}

// Controller runs one user message through the full turn pipeline. The
// classifier, context source and evaluator are mandatory; the notifier and
// transcript repository are optional collaborators that degrade to no-ops.
type Controller struct {
	classifier  Classifier
	contexts    ContextSource
	evaluator   EscalationEvaluator
	generator   core.Generator
	notifier    core.ProviderNotifier
	transcripts core.TranscriptRepository
	retrier     *retry.Retrier

	genTimeout    time.Duration
	contextWindow int
}

type Options struct {
	Notifier      core.ProviderNotifier
	Transcripts   core.TranscriptRepository
	GenTimeout    time.Duration
	ContextWindow int
}

func NewController(classifier Classifier, contexts ContextSource, evaluator EscalationEvaluator, generator core.Generator, opts Options) *Controller {
	if opts.GenTimeout <= 0 {
		opts.GenTimeout = 60 * time.Second
	}
	if opts.ContextWindow <= 0 {
		opts.ContextWindow = 20
	}
	return &Controller{
		classifier:    classifier,
		contexts:      contexts,
		evaluator:     evaluator,
		generator:     generator,
		notifier:      opts.Notifier,
		transcripts:   opts.Transcripts,
		retrier:       retry.NewDefaultRetrier(),
		genTimeout:    opts.GenTimeout,
		contextWindow: opts.ContextWindow,
	}
}

// HandleTurn drives one message through classification, context assembly,
// escalation evaluation and reply generation, in that order. Intent, context
// and escalation are sealed before the reply is drafted, so a slow or failing
// generation can only cost the reply text, never the safety decision.
func (c *Controller) HandleTurn(ctx context.Context, subjectID, threadID, input string) (out core.Outcome) {
	logger := log.FromCtx(ctx)

	out = core.Outcome{SubjectID: subjectID, ThreadID: threadID, Input: input}
	m := &machine{current: StateReceivingInput}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("stage", string(m.current)).Msg("turn aborted")
			out.Err = &core.WorkflowError{Stage: string(m.current), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if input == "" {
		out.Err = &core.WorkflowError{Stage: string(StateReceivingInput), Err: errors.New("empty input")}
		return out
	}

	if err := m.advance(StateClassifyingIntent); err != nil {
		out.Err = &core.WorkflowError{Stage: string(m.current), Err: err}
		return out
	}
	out.Intent = c.classifier.Classify(input)

	if err := m.advance(StateFetchingContext); err != nil {
		out.Err = &core.WorkflowError{Stage: string(m.current), Err: err}
		return out
	}
	out.Context = c.contexts.Aggregate(ctx, subjectID, out.Intent)

	if err := m.advance(StateEvaluatingEscalation); err != nil {
		out.Err = &core.WorkflowError{Stage: string(m.current), Err: err}
		return out
	}
	out.Escalation = c.evaluator.Evaluate(input, out.Context)
	if out.Escalation.Escalate {
		logger.Warn().
			Str("subject", subjectID).
			Str("trigger", out.Escalation.MatchedTrigger).
			Msg("turn escalated to provider review")
	}

	history := c.loadHistory(ctx, threadID)
	out.Reply = c.generateReply(ctx, out, history)

	if err := m.advance(StateDone); err != nil {
		out.Err = &core.WorkflowError{Stage: string(m.current), Err: err}
		return out
	}

	c.saveTurn(ctx, out)
	c.notify(ctx, out)

	return out
}

// generateReply drafts the assistant message inside its own deadline. Any
// failure or timeout yields the fixed fallback text.
func (c *Controller) generateReply(ctx context.Context, out core.Outcome, history []core.Message) string {
	logger := log.FromCtx(ctx)

	genCtx, cancel := context.WithTimeout(ctx, c.genTimeout)
	defer cancel()

	system := buildSystemPrompt(out.Context)
	messages := append(history, core.Message{Role: core.RoleUser, Content: out.Input})

	type result struct {
		reply string
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		var reply string
		err := c.retrier.Do(genCtx, func() error {
			var genErr error
			reply, genErr = c.generator.Generate(genCtx, system, messages)
			return genErr
		})
		ch <- result{reply: reply, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			logger.Error().Err(res.err).Msg("generation failed, serving fallback reply")
			return fallbackReply
		}
		return res.reply
	case <-genCtx.Done():
		logger.Error().Err(genCtx.Err()).Msg("generation timed out, serving fallback reply")
		return fallbackReply
	}
}

func (c *Controller) loadHistory(ctx context.Context, threadID string) []core.Message {
	if c.transcripts == nil {
		return nil
	}

	turns, err := c.transcripts.GetThreadTurns(ctx, threadID, c.contextWindow)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("thread", threadID).Msg("failed to load thread history")
		return nil
	}

	messages := make([]core.Message, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, core.Message{Role: t.Role, Content: t.Content})
	}
	return messages
}

func (c *Controller) saveTurn(ctx context.Context, out core.Outcome) {
	if c.transcripts == nil {
		return
	}
	logger := log.FromCtx(ctx)

	userTurn := core.StoredTurn{
		ThreadID:  out.ThreadID,
		SubjectID: out.SubjectID,
		Role:      core.RoleUser,
		Content:   out.Input,
		Intent:    string(out.Intent),
		Escalated: out.Escalation.Escalate,
	}
	if err := c.transcripts.AddTurn(ctx, userTurn); err != nil {
		logger.Error().Err(err).Msg("failed to save user turn")
	}

	assistantTurn := core.StoredTurn{
		ThreadID:  out.ThreadID,
		SubjectID: out.SubjectID,
		Role:      core.RoleAssistant,
		Content:   out.Reply,
		Intent:    string(out.Intent),
		Escalated: out.Escalation.Escalate,
	}
	if err := c.transcripts.AddTurn(ctx, assistantTurn); err != nil {
		logger.Error().Err(err).Msg("failed to save assistant turn")
	}
}

func (c *Controller) notify(ctx context.Context, out core.Outcome) {
	if !out.Escalation.Escalate || c.notifier == nil {
		return
	}
	if err := c.notifier.NotifyEscalation(ctx, out); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("subject", out.SubjectID).Msg("failed to notify provider")
	}
}
