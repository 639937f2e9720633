package chat

import (
	"context"
	"errors"
	"time"

	"github.com/mohammad-safakhou/searchchat/internal/helpers"
	"github.com/mohammad-safakhou/searchchat/session"
)

var errExchangeDone = errors.New("exchange already ran")

// Reply is a completed response and where it came from.
type Reply struct {
	Text      string             `json:"text"`
	Citations []helpers.Citation `json:"citations"`
	Attempt   Attempt            `json:"attempt"`
	Step      int                `json:"step"`
}

// Exchange is a prompt already recorded in its session and waiting to run.
type Exchange struct {
	o      *Orchestrator
	sess   *session.Session
	prompt string
	opts   Options
	done   bool
}

// Begin records prompt in sess and marks it in flight. It fails with
// session.ErrSessionBusy or session.ErrEmptyPrompt before anything is sent.
// The returned exchange must be Run exactly once.
func Begin(o *Orchestrator, sess *session.Session, prompt string, opts Options) (*Exchange, error) {
	if o.includeHistory {
		opts.History = sess.HistoryWithin(o.historyTokens)
	}
	if err := sess.Begin(prompt); err != nil {
		return nil, err
	}
	return &Exchange{o: o, sess: sess, prompt: prompt, opts: opts}, nil
}

// Run streams the response, passing every fragment to render in order. On
// success the full text becomes the session's last text and its assistant
// entry; on failure the session keeps only the user entry and the error is
// returned.
func (x *Exchange) Run(ctx context.Context, render func(Fragment)) (Reply, error) {
	if x.done {
		return Reply{}, errExchangeDone
	}
	x.done = true
	o, sess := x.o, x.sess
	start := time.Now()

	turn := o.Stream(ctx, x.prompt, x.opts)
	for f := range turn.Fragments() {
		if render != nil {
			render(f)
		}
	}
	if err := turn.Err(); err != nil {
		sess.Abort()
		o.metrics.ObserveTurn(time.Since(start), false, 0)
		return Reply{}, err
	}

	text := turn.Text()
	sess.Complete(text)

	attempt, step := turn.Attempt()
	reply := Reply{Text: text, Citations: helpers.ExtractCitations(text), Attempt: attempt, Step: step}
	o.metrics.ObserveTurn(time.Since(start), true, len(reply.Citations))
	if o.debug {
		o.logger.Printf("session %s: reply via step %d (%s), %d citations, ~%d transcript tokens",
			sess.ID(), step, attempt, len(reply.Citations), sess.EstimateTokens())
	}
	return reply, nil
}

// Converse is Begin followed by Run.
func Converse(ctx context.Context, o *Orchestrator, sess *session.Session, prompt string, opts Options, render func(Fragment)) (Reply, error) {
	x, err := Begin(o, sess, prompt, opts)
	if err != nil {
		return Reply{}, err
	}
	return x.Run(ctx, render)
}
