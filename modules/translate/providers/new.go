package providers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/candinya/ai-translator/modules/translate"
	"github.com/candinya/ai-translator/modules/translate/providers/azure"
	"github.com/candinya/ai-translator/modules/translate/providers/openai"
	"go.uber.org/zap"
)

// Options carries everything a provider needs besides its credentials.
type Options struct {
	OpenAI     openai.Settings
	Azure      azure.Settings
	HTTPClient *http.Client
}

// ParseSettings reads the settings block of the named provider. The returned
// configuration is nil when the block holds no credentials.
func ParseSettings(provider string, settings string) (translate.Configuration, *Options, error) {
	opts := &Options{}

	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "openai":
		s, err := openai.ParseSettings(settings)
		if err != nil {
			return nil, nil, err
		}
		opts.OpenAI = *s
		if s.API.Key == "" {
			return nil, opts, nil
		}
		return translate.DirectKey{APIKey: s.API.Key}, opts, nil
	case "azure":
		s, err := azure.ParseSettings(settings)
		if err != nil {
			return nil, nil, err
		}
		opts.Azure = *s
		if s.Endpoint == "" && s.APIKey == "" && s.APIVersion == "" && s.Deployment == "" {
			return nil, opts, nil
		}
		return translate.CloudDeployment{
			Endpoint:       s.Endpoint,
			APIKey:         s.APIKey,
			APIVersion:     s.APIVersion,
			DeploymentName: s.Deployment,
		}, opts, nil
	default:
		return nil, nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func NewDialer(opts *Options, l *zap.Logger) translate.Dialer {
	if opts == nil {
		opts = &Options{}
	}
	return func(cfg translate.Configuration) (translate.Provider, error) {
		switch c := cfg.(type) {
		case translate.DirectKey:
			return openai.New(c, &opts.OpenAI, opts.HTTPClient, l), nil
		case translate.CloudDeployment:
			return azure.New(c, &opts.Azure, opts.HTTPClient, l), nil
		default:
			return nil, fmt.Errorf("unsupported configuration: %T", cfg)
		}
	}
}
