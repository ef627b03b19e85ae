package translate

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type envConfiguration struct {
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	AzureEndpoint   string `envconfig:"AZURE_OPENAI_ENDPOINT"`
	AzureAPIKey     string `envconfig:"AZURE_OPENAI_API_KEY"`
	AzureAPIVersion string `envconfig:"AZURE_OPENAI_API_VERSION"`
	AzureDeployment string `envconfig:"AZURE_OPENAI_DEPLOYMENT"`
}

func (e *envConfiguration) hasAzure() bool {
	return strings.TrimSpace(e.AzureEndpoint) != "" ||
		strings.TrimSpace(e.AzureAPIKey) != "" ||
		strings.TrimSpace(e.AzureAPIVersion) != "" ||
		strings.TrimSpace(e.AzureDeployment) != ""
}

// ConfigurationFromEnv reads credentials from the environment:
//   - AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY, AZURE_OPENAI_API_VERSION, AZURE_OPENAI_DEPLOYMENT
//   - OPENAI_API_KEY
//
// Any Azure variable selects the cloud deployment, which must then be complete.
func ConfigurationFromEnv() (Configuration, error) {
	var env envConfiguration
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if env.hasAzure() {
		cfg := CloudDeployment{
			Endpoint:       env.AzureEndpoint,
			APIKey:         env.AzureAPIKey,
			APIVersion:     env.AzureAPIVersion,
			DeploymentName: env.AzureDeployment,
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if strings.TrimSpace(env.OpenAIAPIKey) != "" {
		return DirectKey{APIKey: env.OpenAIAPIKey}, nil
	}

	return nil, &ConfigurationError{Err: ErrNotConfigured}
}
