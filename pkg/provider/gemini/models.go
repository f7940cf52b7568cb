package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rhuss/gemini-go/pkg/api"
	"github.com/rhuss/gemini-go/pkg/provider"
)

type listModelsResponse struct {
	Models        []provider.ModelInfo `json:"models"`
	NextPageToken string               `json:"nextPageToken,omitempty"`
}

// maxModelPages stops pagination against a misbehaving server.
const maxModelPages = 50

// ListModels returns available models by querying GET {base}/models,
// following nextPageToken until the listing is exhausted.
func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	var models []provider.ModelInfo
	token := ""

	for range maxModelPages {
		q := url.Values{"pageSize": {"1000"}}
		if token != "" {
			q.Set("pageToken", token)
		}
		httpReq, err := p.newRequest(ctx, http.MethodGet, p.cfg.BaseURL+"/models?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}

		page, err := p.listModelsPage(httpReq)
		if err != nil {
			return nil, err
		}
		models = append(models, page.Models...)

		if page.NextPageToken == "" {
			return models, nil
		}
		token = page.NextPageToken
	}

	return models, nil
}

func (p *Provider) listModelsPage(httpReq *http.Request) (*listModelsResponse, error) {
	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, mapHTTPError(httpResp)
	}

	var page listModelsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&page); err != nil {
		return nil, api.NewTransportError(api.ErrorTypeServerError, "",
			fmt.Sprintf("failed to parse models response: %s", err.Error()))
	}
	return &page, nil
}
