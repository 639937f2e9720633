package provider

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/searchchat/config"
	"github.com/mohammad-safakhou/searchchat/models"
	openai_provider "github.com/mohammad-safakhou/searchchat/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI Client = "openai"
)

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	// Stream opens one streaming request and calls fn per event. Configuration
	// refusals wrap models.ErrRequestRejected.
	Stream(ctx context.Context, req models.StreamRequest, fn func(models.StreamEvent) error) error
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(cfg config.LLMConfig, debug bool) (Provider, error) {
	switch Client(cfg.Provider) {
	case OpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		logger := log.New(log.Writer(), "[OPENAI] ", log.LstdFlags)
		return openai_provider.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.HeaderTimeout, logger, debug), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.Provider)
	}
}
