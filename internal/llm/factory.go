package llm

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

const (
	TypeOpenAI    = "openai"
	TypeAzure     = "azure"
	TypeAnthropic = "anthropics"
	TypeGemini    = "gemini"
)

// Config selects and configures a provider client.
type Config struct {
	Type       string
	URL        string
	Model      string
	Token      string
	APIVersion string

	HTTPClient *http.Client
	// Credential is used by the azure provider when Token is empty.
	Credential azcore.TokenCredential
}

// New builds the client for cfg.Type. An empty type selects Azure OpenAI.
func New(cfg Config) (Client, error) {
	var (
		client Client
		err    error
	)
	switch strings.TrimSpace(cfg.Type) {
	case TypeOpenAI:
		client, err = asClient(NewOpenAIClient(OpenAIConfig{
			BaseURL:    cfg.URL,
			Token:      cfg.Token,
			Model:      cfg.Model,
			HTTPClient: cfg.HTTPClient,
		}))
	case "", TypeAzure:
		client, err = asClient(NewAzureOpenAIClient(AzureConfig{
			Endpoint:   cfg.URL,
			Model:      cfg.Model,
			Token:      cfg.Token,
			APIVersion: cfg.APIVersion,
			Credential: cfg.Credential,
			HTTPClient: cfg.HTTPClient,
		}))
	case TypeAnthropic:
		client, err = asClient(NewAnthropicClient(AnthropicConfig{
			BaseURL:    cfg.URL,
			Token:      cfg.Token,
			Model:      cfg.Model,
			HTTPClient: cfg.HTTPClient,
		}))
	case TypeGemini:
		client, err = asClient(NewGeminiClient(GeminiConfig{
			BaseURL:    cfg.URL,
			Token:      cfg.Token,
			Model:      cfg.Model,
			HTTPClient: cfg.HTTPClient,
		}))
	default:
		return nil, fmt.Errorf("unsupported llm type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

func asClient(client Client, err error) (Client, error) {
	if err != nil {
		return nil, err
	}
	return client, nil
}
