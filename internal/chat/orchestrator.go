package chat

import (
	"context"
	"errors"
	"iter"
	"log"
	"time"

	"github.com/mohammad-safakhou/searchchat/config"
	"github.com/mohammad-safakhou/searchchat/internal/telemetry"
	"github.com/mohammad-safakhou/searchchat/models"
	"github.com/mohammad-safakhou/searchchat/provider"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrStopped is reported by a Turn whose consumer stopped ranging over it early.
var ErrStopped = errors.New("response stream abandoned by consumer")

// errStreamDone ends an attempt after an in-band error; it never leaves this package.
var errStreamDone = errors.New("stream finished")

var chatTracer trace.Tracer = otel.Tracer("searchchat/internal/chat")

// Orchestrator obtains a response for a prompt, walking down the attempt
// ladder while the remote API rejects the request configuration.
type Orchestrator struct {
	provider       provider.Provider
	systemPrompt   string
	fallbackModel  string
	attemptTimeout time.Duration
	includeHistory bool
	historyTokens  int
	logger         *log.Logger
	metrics        *telemetry.Metrics
	debug          bool
}

// Options selects the model and search setting for one prompt.
type Options struct {
	Model   string
	Search  bool
	History []models.Message // prior turns, oldest first
}

// NewOrchestrator creates an orchestrator over p. metrics may be nil.
func NewOrchestrator(p provider.Provider, cfg config.LLMConfig, logger *log.Logger, metrics *telemetry.Metrics, debug bool) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[CHAT] ", log.LstdFlags)
	}
	return &Orchestrator{
		provider:       p,
		systemPrompt:   cfg.SystemPrompt,
		fallbackModel:  cfg.FallbackModel,
		attemptTimeout: cfg.AttemptTimeout,
		includeHistory: cfg.IncludeHistory,
		historyTokens:  cfg.HistoryTokens,
		logger:         logger,
		metrics:        metrics,
		debug:          debug,
	}
}

// Stream prepares a turn for prompt. Nothing is sent until the turn's
// fragments are ranged over.
func (o *Orchestrator) Stream(ctx context.Context, prompt string, opts Options) *Turn {
	return &Turn{o: o, ctx: ctx, prompt: prompt, opts: opts}
}

// Turn is a single response in progress. Fragments may be ranged over once;
// Text, Err and Attempt are meaningful after that range has finished.
type Turn struct {
	o      *Orchestrator
	ctx    context.Context
	prompt string
	opts   Options

	started   bool
	collector Collector
	err       error
	attempt   Attempt
	step      int
}

// Fragments yields the response as it arrives. Text from a rejected attempt is
// followed by a KindReset fragment before the next attempt starts.
func (t *Turn) Fragments() iter.Seq[Fragment] {
	return func(yield func(Fragment) bool) {
		if t.started {
			return
		}
		t.started = true
		t.run(func(f Fragment) bool {
			t.collector.Add(f)
			return yield(f)
		})
	}
}

// Text is the full response text of the winning attempt.
func (t *Turn) Text() string { return t.collector.String() }

// Err is the error that ended the turn, if any. When every attempt was
// rejected it is the last attempt's rejection.
func (t *Turn) Err() error { return t.err }

// Attempt returns the last attempt made and its 1-based ladder step.
func (t *Turn) Attempt() (Attempt, int) { return t.attempt, t.step }

type outcome int

const (
	outcomeOK outcome = iota
	outcomeRejected
	outcomeFailed
	outcomeStopped
)

func (oc outcome) String() string {
	switch oc {
	case outcomeOK:
		return "ok"
	case outcomeRejected:
		return "rejected"
	case outcomeStopped:
		return "stopped"
	default:
		return "failed"
	}
}

type attemptResult struct {
	outcome outcome
	err     error
	yielded bool
}

func (t *Turn) run(emit func(Fragment) bool) {
	o := t.o
	ladder := Ladder(t.opts.Model, o.fallbackModel, t.opts.Search)
	ctx, span := chatTracer.Start(t.ctx, "chat.turn", trace.WithAttributes(
		attribute.String("model", t.opts.Model),
		attribute.Bool("search", t.opts.Search),
	))
	defer span.End()

	var lastErr error
	for i, a := range ladder {
		step := i + 1
		if i > 0 {
			o.metrics.ObserveFallback(step)
			if !emit(Fragment{Kind: KindNotice, Text: fallbackNotice(ladder[i-1], a)}) {
				t.err = ErrStopped
				return
			}
		}
		t.attempt, t.step = a, step

		res := o.try(ctx, step, a, t.prompt, t.opts.History, emit)
		switch res.outcome {
		case outcomeOK:
			span.SetAttributes(attribute.Int("step", step))
			return
		case outcomeStopped:
			t.err = ErrStopped
			return
		case outcomeFailed:
			t.err = res.err
			span.RecordError(res.err)
			span.SetStatus(codes.Error, res.err.Error())
			return
		}

		o.logger.Printf("attempt %d/%d rejected (%s): %v", step, len(ladder), a, res.err)
		lastErr = res.err
		if res.yielded && !emit(Fragment{Kind: KindReset}) {
			t.err = ErrStopped
			return
		}
	}
	t.err = lastErr
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "all attempts rejected")
}

// try runs one attempt and classifies how it ended.
func (o *Orchestrator) try(ctx context.Context, step int, a Attempt, prompt string, history []models.Message, emit func(Fragment) bool) attemptResult {
	if o.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.attemptTimeout)
		defer cancel()
	}
	ctx, span := chatTracer.Start(ctx, "chat.attempt", trace.WithAttributes(
		attribute.Int("step", step),
		attribute.String("model", a.Model),
		attribute.Bool("tool", a.UseTool),
		attribute.Bool("reasoning", a.UseReasoning),
	))
	defer span.End()

	if o.debug {
		o.logger.Printf("attempt %d: %s", step, a)
	}

	var res attemptResult
	err := o.provider.Stream(ctx, o.request(a, prompt, history), func(ev models.StreamEvent) error {
		switch ev.Type {
		case models.EventTextDelta:
			res.yielded = true
			if !emit(Fragment{Kind: KindText, Text: ev.Delta}) {
				return ErrStopped
			}
		case models.EventError:
			o.metrics.ObserveStreamError()
			o.logger.Printf("stream error on attempt %d (%s): %s", step, a, ev.Error)
			res.yielded = true
			if !emit(Fragment{Kind: KindText, Text: ErrorMarker(ev.Error)}) {
				return ErrStopped
			}
			return errStreamDone
		}
		return nil
	})
	if errors.Is(err, errStreamDone) {
		err = nil
	}

	switch {
	case errors.Is(err, ErrStopped):
		res.outcome = outcomeStopped
	case err == nil:
		res.outcome = outcomeOK
	case errors.Is(err, models.ErrRequestRejected):
		res.outcome = outcomeRejected
	default:
		res.outcome = outcomeFailed
	}
	res.err = err

	span.SetAttributes(attribute.String("outcome", res.outcome.String()))
	if err != nil {
		span.RecordError(err)
	}
	o.metrics.ObserveAttempt(a.Model, a.UseTool, a.UseReasoning, res.outcome.String())
	return res
}

func (o *Orchestrator) request(a Attempt, prompt string, history []models.Message) models.StreamRequest {
	input := make([]models.Message, 0, len(history)+2)
	input = append(input, models.Message{Role: models.RoleSystem, Content: o.systemPrompt})
	input = append(input, history...)
	input = append(input, models.Message{Role: models.RoleUser, Content: prompt})

	req := models.StreamRequest{Model: a.Model, Input: input, Stream: true}
	if a.UseTool {
		req.Tools = []models.Tool{models.WebSearchTool}
	}
	if a.UseReasoning {
		req.Reasoning = &models.Reasoning{Effort: models.ReasoningHigh}
	}
	return req
}
