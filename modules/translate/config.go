package translate

import (
	"strings"
	"sync/atomic"
)

// Configuration is either DirectKey or CloudDeployment.
type Configuration interface {
	Validate() error
	configuration()
}

type DirectKey struct {
	APIKey string
}

type CloudDeployment struct {
	Endpoint       string
	APIKey         string
	APIVersion     string
	DeploymentName string
}

func (DirectKey) configuration()       {}
func (CloudDeployment) configuration() {}

func (c DirectKey) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &ConfigurationError{Field: "api_key"}
	}
	return nil
}

func (c CloudDeployment) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &ConfigurationError{Field: "api_key"}
	}
	if strings.TrimSpace(c.DeploymentName) == "" {
		return &ConfigurationError{Field: "azure_deployment"}
	}
	if strings.TrimSpace(c.APIVersion) == "" {
		return &ConfigurationError{Field: "api_version"}
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return &ConfigurationError{Field: "azure_endpoint"}
	}
	return nil
}

type storedConfiguration struct {
	cfg Configuration
}

// Store holds the active configuration. Replacing it is a single pointer swap,
// so readers never observe a half-written cloud deployment.
type Store struct {
	cur atomic.Pointer[storedConfiguration]
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SetDirectKey(apiKey string) error {
	return s.Set(DirectKey{APIKey: apiKey})
}

func (s *Store) SetCloudDeployment(endpoint, apiKey, apiVersion, deploymentName string) error {
	return s.Set(CloudDeployment{
		Endpoint:       endpoint,
		APIKey:         apiKey,
		APIVersion:     apiVersion,
		DeploymentName: deploymentName,
	})
}

// Set validates cfg and replaces the active configuration.
func (s *Store) Set(cfg Configuration) error {
	if cfg == nil {
		return &ConfigurationError{Err: ErrNotConfigured}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cur.Store(&storedConfiguration{cfg: cfg})
	return nil
}

// SetFromEnv loads the configuration from the process environment once.
func (s *Store) SetFromEnv() error {
	cfg, err := ConfigurationFromEnv()
	if err != nil {
		return err
	}
	return s.Set(cfg)
}

func (s *Store) load() (Configuration, error) {
	stored := s.cur.Load()
	if stored == nil {
		return nil, &ConfigurationError{Err: ErrNotConfigured}
	}
	return stored.cfg, nil
}
