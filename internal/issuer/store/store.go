package store

import (
	"context"

	"zkkyc/internal/issuer/models"
	id "zkkyc/pkg/domain"
)

type Store interface {
	Save(ctx context.Context, issuer *models.Issuer) error
	Find(ctx context.Context, issuerID id.IssuerID) (*models.Issuer, error)
	List(ctx context.Context) ([]*models.Issuer, error)
}
