package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/searchchat/config"
	"github.com/mohammad-safakhou/searchchat/internal/chat"
	"github.com/mohammad-safakhou/searchchat/internal/helpers"
	"github.com/mohammad-safakhou/searchchat/session"
)

// SessionsHandler serves chat sessions and their response streams.
type SessionsHandler struct {
	Store  session.Store
	Orch   *chat.Orchestrator
	LLM    config.LLMConfig
	Search bool
	TTL    time.Duration
	Stream bool
	logger *log.Logger
}

func (h *SessionsHandler) Register(g *echo.Group) {
	g.GET("/models", h.listModels)
	g.POST("/sessions", h.createSession)
	g.GET("/sessions/:id", h.getSession)
	g.DELETE("/sessions/:id", h.deleteSession)
	g.GET("/sessions/:id/sources", h.getSources)
	g.POST("/sessions/:id/messages", h.postMessage)
}

func (h *SessionsHandler) listModels(c echo.Context) error {
	return c.JSON(http.StatusOK, ModelsResponse{
		Models:        h.LLM.Models,
		Default:       h.LLM.Model,
		Fallback:      h.LLM.FallbackModel,
		SearchEnabled: h.Search,
	})
}

func (h *SessionsHandler) createSession(c echo.Context) error {
	sess, err := h.Store.EnsureSession("", h.TTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, IDResponse{ID: sess.ID()})
}

func (h *SessionsHandler) lookup(c echo.Context) (*session.Session, error) {
	sess, err := h.Store.GetSession(c.Param("id"))
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	sess.Expire(h.TTL)
	return sess, nil
}

func (h *SessionsHandler) getSession(c echo.Context) error {
	sess, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SessionResponse{
		ID:        sess.ID(),
		Entries:   sess.Entries(),
		LastText:  sess.LastText(),
		Citations: toCitations(sess.Citations()),
		InFlight:  sess.InFlight(),
		Tokens:    sess.EstimateTokens(),
	})
}

func (h *SessionsHandler) deleteSession(c echo.Context) error {
	if !h.Store.DeleteSession(c.Param("id")) {
		return echo.NewHTTPError(http.StatusNotFound, session.ErrSessionNotFound.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// getSources renders the sources of the last reply as a Markdown list.
func (h *SessionsHandler) getSources(c echo.Context) error {
	sess, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", []byte(helpers.RenderSources(sess.LastText())))
}

// postMessage runs one prompt and streams the response as Server-Sent Events:
// "delta", "reset" and "notice" while it arrives, then "done" or "error".
func (h *SessionsHandler) postMessage(c echo.Context) error {
	sess, err := h.lookup(c)
	if err != nil {
		return err
	}
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, session.ErrEmptyPrompt.Error())
	}
	opts := chat.Options{Model: strings.TrimSpace(req.Model), Search: h.Search}
	if opts.Model == "" {
		opts.Model = h.LLM.Model
	}
	if !h.LLM.HasModel(opts.Model) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown model "+opts.Model)
	}
	if req.Search != nil {
		opts.Search = *req.Search
	}
	var flusher http.Flusher
	if h.Stream {
		var ok bool
		if flusher, ok = c.Response().Writer.(http.Flusher); !ok {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
		}
	}

	// The session is claimed before any response bytes are written, so a
	// concurrent request on it is refused with 409.
	x, err := chat.Begin(h.Orch, sess, req.Prompt, opts)
	if err != nil {
		return converseError(err)
	}

	ctx := c.Request().Context()
	if !h.Stream {
		reply, err := x.Run(ctx, nil)
		if err != nil {
			return converseError(err)
		}
		return c.JSON(http.StatusOK, toReply(reply))
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	var writeErr error
	send := func(event string, payload any) {
		if writeErr != nil {
			return
		}
		data, err := json.Marshal(payload)
		if err != nil {
			writeErr = err
			return
		}
		if _, err := resp.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n")); err != nil {
			writeErr = err
			return
		}
		flusher.Flush()
	}

	reply, err := x.Run(ctx, func(f chat.Fragment) {
		switch f.Kind {
		case chat.KindText:
			send("delta", FragmentEvent{Text: f.Text})
		case chat.KindReset:
			send("reset", FragmentEvent{})
		case chat.KindNotice:
			send("notice", FragmentEvent{Text: f.Text})
		}
	})
	if err != nil {
		h.logger.Printf("session %s: turn failed: %v", sess.ID(), err)
		send("error", HTTPError{Error: err.Error()})
		return nil
	}
	send("done", toReply(reply))
	if writeErr != nil {
		h.logger.Printf("session %s: stream write failed: %v", sess.ID(), writeErr)
	}
	return nil
}

func converseError(err error) error {
	switch {
	case errors.Is(err, session.ErrSessionBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrEmptyPrompt):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}

func toReply(r chat.Reply) ReplyResponse {
	return ReplyResponse{Text: r.Text, Citations: toCitations(r.Citations), Attempt: r.Attempt, Step: r.Step}
}
