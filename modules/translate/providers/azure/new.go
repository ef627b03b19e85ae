package azure

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/candinya/ai-translator/modules/translate"
	"github.com/candinya/ai-translator/modules/translate/providers/chat"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func ParseSettings(settings string) (*Settings, error) {
	var cfg Settings
	err := yaml.Unmarshal([]byte(settings), &cfg)
	if err != nil {
		return nil, fmt.Errorf("azure config parse err: %w", err)
	}
	return &cfg, nil
}

// New builds a provider for an Azure OpenAI deployment. The model is implied
// by the deployment, so none is sent.
func New(cfg translate.CloudDeployment, s *Settings, hc *http.Client, l *zap.Logger) translate.Provider {
	var temperature *float64
	if s != nil {
		temperature = s.Temperature
	}

	header := http.Header{}
	header.Set("api-key", cfg.APIKey)

	return &deployment{
		Client: chat.NewClient("azure", completionsURL(cfg), header, "", temperature, hc, l),
	}
}

// completionsURL: {endpoint}/openai/deployments/{deployment}/chat/completions?api-version={version}
func completionsURL(cfg translate.CloudDeployment) string {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")

	query := url.Values{}
	query.Set("api-version", cfg.APIVersion)

	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?%s",
		endpoint,
		url.PathEscape(cfg.DeploymentName),
		query.Encode(),
	)
}
