package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"BiasEngine/internal/domain/models"
	domsvc "BiasEngine/internal/domain/service"
	xhttp "BiasEngine/pkg/http"
)

// HTTPFeedBase provides a DRY foundation for the external dimension feeds
// (technical and central-bank scores served by a sidecar service).
type HTTPFeedBase struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPFeedBase builds an HTTP client with timeout and base URL.
func NewHTTPFeedBase(baseURL string, timeout time.Duration) *HTTPFeedBase {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPFeedBase{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// PostJSON posts the payload to path under baseURL and decodes JSON into dest.
func (b *HTTPFeedBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("external feed client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    b.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

type externalReq struct {
	Asset string `json:"asset"`
}

type externalResp struct {
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Bullish    []string `json:"bullish,omitempty"`
	Bearish    []string `json:"bearish,omitempty"`
}

// HTTPTechnicalProvider fetches the pre-bounded technical dimension score.
type HTTPTechnicalProvider struct{ base *HTTPFeedBase }

func NewHTTPTechnicalProvider(base *HTTPFeedBase) *HTTPTechnicalProvider {
	return &HTTPTechnicalProvider{base: base}
}

func (p *HTTPTechnicalProvider) Technical(ctx context.Context, asset models.Asset) (domsvc.ExternalScore, error) {
	var er externalResp
	if err := p.base.PostJSON(ctx, "/technical/score", externalReq{Asset: string(asset)}, &er); err != nil {
		return domsvc.ExternalScore{}, fmt.Errorf("technical feed: %w", err)
	}
	return toExternal(asset, er)
}

// HTTPCentralBankProvider fetches the pre-bounded central-bank dimension
// score (policy-rate trajectory reduced upstream).
type HTTPCentralBankProvider struct{ base *HTTPFeedBase }

func NewHTTPCentralBankProvider(base *HTTPFeedBase) *HTTPCentralBankProvider {
	return &HTTPCentralBankProvider{base: base}
}

func (p *HTTPCentralBankProvider) CentralBank(ctx context.Context, asset models.Asset) (domsvc.ExternalScore, error) {
	var er externalResp
	if err := p.base.PostJSON(ctx, "/central-bank/score", externalReq{Asset: string(asset)}, &er); err != nil {
		return domsvc.ExternalScore{}, fmt.Errorf("central bank feed: %w", err)
	}
	return toExternal(asset, er)
}

func toExternal(asset models.Asset, er externalResp) (domsvc.ExternalScore, error) {
	if math.Abs(er.Score) > models.SubScoreMax {
		return domsvc.ExternalScore{}, fmt.Errorf("external score %g for %s outside [-5,5]", er.Score, asset)
	}
	return domsvc.ExternalScore{
		Asset:      asset,
		Score:      er.Score,
		Confidence: clamp(er.Confidence, 0, 1),
		Bullish:    er.Bullish,
		Bearish:    er.Bearish,
	}, nil
}

var (
	_ domsvc.TechnicalProvider   = (*HTTPTechnicalProvider)(nil)
	_ domsvc.CentralBankProvider = (*HTTPCentralBankProvider)(nil)
)
