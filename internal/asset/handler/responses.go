package handler

import (
	"assetledger/internal/asset/models"
	ledgermodels "assetledger/internal/ledger/models"
	"assetledger/pkg/domain"
)

// RegisterResponse is the body for a successful POST /assets.
type RegisterResponse struct {
	Assets []*models.Asset `json:"assets"`
}

// ListResponse is the body for GET /assets.
type ListResponse struct {
	Assets []*models.Asset `json:"assets"`
	Count  int             `json:"count"`
}

// HistoryResponse is the body for GET /assets/{assetID}/history.
type HistoryResponse struct {
	AssetID domain.AssetID                   `json:"asset_id"`
	Records []*ledgermodels.TransitionRecord `json:"records"`
}
