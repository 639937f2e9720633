package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/mohammad-safakhou/searchchat/config"
	"github.com/mohammad-safakhou/searchchat/internal/chat"
	"github.com/mohammad-safakhou/searchchat/internal/render"
	"github.com/mohammad-safakhou/searchchat/internal/telemetry"
	"github.com/mohammad-safakhou/searchchat/provider"
	"github.com/mohammad-safakhou/searchchat/session"
	"github.com/spf13/cobra"
)

func chatCMD(cfgPath *string) *cobra.Command {
	var model string
	var noSearch bool
	var cmd = &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if model == "" {
				model = cfg.LLM.Model
			}
			if !cfg.LLM.HasModel(model) {
				return fmt.Errorf("unknown model %q (choose from %s)", model, strings.Join(cfg.LLM.Models, ", "))
			}

			p, err := provider.NewProvider(cfg.LLM, cfg.General.DebugEnabled())
			if err != nil {
				return err
			}
			var metrics *telemetry.Metrics
			if cfg.Telemetry.Enabled && cfg.Telemetry.MetricsPort > 0 {
				metrics = telemetry.NewMetrics()
				metrics.Serve(cfg.Telemetry.MetricsPort, log.New(log.Writer(), "[METRICS] ", log.LstdFlags))
			}
			orch := chat.NewOrchestrator(p, cfg.LLM, nil, metrics, cfg.General.DebugEnabled())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			r := &repl{
				orch:   orch,
				sess:   session.New("terminal", 0),
				term:   render.Stdout(),
				llm:    cfg.LLM,
				model:  model,
				search: cfg.Search.Enabled && !noSearch,
			}
			return r.run(ctx, os.Stdin)
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model to ask (default is llm.model)")
	cmd.Flags().BoolVar(&noSearch, "no-search", false, "disable the web search tool")
	return cmd
}

const chatHelp = `/search on|off   toggle web search
/model [id]      show or switch the model
/sources         list sources of the last reply
/history         show this conversation
/help            show this help
/quit            leave`

// repl reads prompts line by line and streams each reply to the terminal.
type repl struct {
	orch   *chat.Orchestrator
	sess   *session.Session
	term   *render.Terminal
	llm    config.LLMConfig
	model  string
	search bool
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	r.term.Info("model %s, web search %s. /help for commands.", r.model, onOff(r.search))
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		r.term.Prompt()
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if r.command(line) {
				return nil
			}
			continue
		}
		if err := r.ask(ctx, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.term.Error(err)
		}
	}
}

func (r *repl) ask(ctx context.Context, prompt string) error {
	r.term.BeginReply(r.model, r.search)
	reply, err := chat.Converse(ctx, r.orch, r.sess, prompt, chat.Options{Model: r.model, Search: r.search}, r.term.Fragment)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			r.term.Info("\ncancelled")
		}
		return err
	}
	r.term.EndReply(reply)
	return nil
}

// command runs a slash command and reports whether the loop should end.
func (r *repl) command(line string) bool {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		r.term.Info("%s", chatHelp)
	case "/search":
		if len(args) == 1 && (args[0] == "on" || args[0] == "off") {
			r.search = args[0] == "on"
		}
		r.term.Info("web search %s", onOff(r.search))
	case "/model":
		if len(args) == 0 {
			r.term.Info("model %s (available: %s)", r.model, strings.Join(r.llm.Models, ", "))
			break
		}
		if !r.llm.HasModel(args[0]) {
			r.term.Error(fmt.Errorf("unknown model %q", args[0]))
			break
		}
		r.model = args[0]
		r.term.Info("model %s", r.model)
	case "/sources":
		r.term.Sources(r.sess.Citations())
	case "/history":
		r.term.History(r.sess.Entries())
	default:
		r.term.Error(fmt.Errorf("unknown command %s", name))
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
