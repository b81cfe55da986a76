package service

import (
	"context"

	"BiasEngine/internal/domain/models"
)

// ExternalScore is a pre-bounded dimension input from an external feed.
// The engine validates the bound and otherwise trusts the value.
type ExternalScore struct {
	Asset      models.Asset
	Score      float64 // must already be within [-5,5]
	Confidence float64 // 0..1
	Bullish    []string
	Bearish    []string
}

// TechnicalProvider supplies the technical dimension (price-action
// features reduced to a bounded score) for one asset.
type TechnicalProvider interface {
	Technical(ctx context.Context, asset models.Asset) (ExternalScore, error)
}

// CentralBankProvider supplies the central-bank dimension (policy-rate
// trajectory reduced to a bounded score) for one asset.
type CentralBankProvider interface {
	CentralBank(ctx context.Context, asset models.Asset) (ExternalScore, error)
}
