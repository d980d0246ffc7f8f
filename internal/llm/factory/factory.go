// Package factory builds the configured LLM provider.
package factory

import (
	"fmt"

	"github.com/newthinker/compass/internal/config"
	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/llm"
	"github.com/newthinker/compass/internal/llm/claude"
	"github.com/newthinker/compass/internal/llm/ollama"
	"github.com/newthinker/compass/internal/llm/openai"
)

// New creates an LLM provider based on configuration. An empty provider
// disables narration and returns nil, nil.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	var (
		p   llm.Provider
		err error
	)
	switch cfg.Provider {
	case "":
		return nil, nil
	case "claude":
		p, err = provider(claude.New(cfg.Claude.APIKey, cfg.Claude.Model))
	case "openai":
		p, err = provider(openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL))
	case "ollama":
		p, err = provider(ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model))
	default:
		err = core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown LLM provider: %s", cfg.Provider))
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// provider keeps a failed constructor's nil pointer out of the interface.
func provider[P llm.Provider](p P, err error) (llm.Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}
