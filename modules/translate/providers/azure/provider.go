package azure

import (
	"github.com/candinya/ai-translator/modules/translate"
	"github.com/candinya/ai-translator/modules/translate/providers/chat"
)

var _ translate.Provider = (*deployment)(nil)

type deployment struct {
	*chat.Client
}

type Settings struct {
	Endpoint    string   `yaml:"endpoint"`
	APIKey      string   `yaml:"api_key"`
	APIVersion  string   `yaml:"api_version"`
	Deployment  string   `yaml:"deployment"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}
