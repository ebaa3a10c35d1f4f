package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

const (
	DefaultAzureAPIVersion = "2024-10-21"
	azureCognitiveScope    = "https://cognitiveservices.azure.com/.default"
)

// AzureConfig configures a client for an Azure OpenAI resource. Model is the
// deployment name. With an empty Token the client authenticates through
// Credential, or through the default Azure credential chain when that is nil.
type AzureConfig struct {
	Endpoint   string
	Model      string
	Token      string
	APIVersion string
	Credential azcore.TokenCredential
	HTTPClient *http.Client
}

func NewAzureOpenAIClient(cfg AzureConfig) (*OpenAIClient, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("azure endpoint is required")
	}
	base, err := url.Parse(endpoint)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid azure endpoint: %q", endpoint)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("azure deployment is required")
	}
	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		apiVersion = DefaultAzureAPIVersion
	}

	authorize, err := azureAuthorizer(strings.TrimSpace(cfg.Token), cfg.Credential)
	if err != nil {
		return nil, err
	}

	return &OpenAIClient{
		provider:   "azure",
		model:      model,
		httpClient: httpClientOrDefault(cfg.HTTPClient),
		endpoint: func(deployment string) string {
			return buildAzureEndpoint(base, deployment, apiVersion)
		},
		authorize: authorize,
	}, nil
}

func azureAuthorizer(token string, credential azcore.TokenCredential) (requestEditor, error) {
	if token != "" {
		return func(_ context.Context, req *http.Request) error {
			req.Header.Set("api-key", token)
			return nil
		}, nil
	}
	if credential == nil {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("azure credential: %w", err)
		}
		credential = cred
	}
	return func(ctx context.Context, req *http.Request) error {
		tok, err := credential.GetToken(ctx, policy.TokenRequestOptions{
			Scopes: []string{azureCognitiveScope},
		})
		if err != nil {
			return fmt.Errorf("azure token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok.Token)
		return nil
	}, nil
}

func buildAzureEndpoint(base *url.URL, deployment, apiVersion string) string {
	u := *base
	u.Path = strings.TrimRight(u.Path, "/") + "/openai/deployments/" + url.PathEscape(deployment) + "/chat/completions"
	query := u.Query()
	query.Set("api-version", apiVersion)
	u.RawQuery = query.Encode()
	return u.String()
}
