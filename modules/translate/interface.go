package translate

import "context"

// Prompt is the system/user message pair sent to the model for one call.
type Prompt struct {
	System string
	User   string
}

// Provider sends one prompt to a chat model and returns its raw reply.
type Provider interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Dialer returns the provider serving a configuration.
type Dialer func(cfg Configuration) (Provider, error)
