package store

import (
	"context"

	"zkkyc/internal/credential/models"
	"zkkyc/internal/zk"
	id "zkkyc/pkg/domain"
)

type Store interface {
	Save(ctx context.Context, credential *models.Credential) error
	Update(ctx context.Context, credential *models.Credential) error
	FindByID(ctx context.Context, credentialID id.CredentialID) (*models.Credential, error)
	FindActiveBySubject(ctx context.Context, subjectID id.SubjectID) (*models.Credential, error)
	FindByCommitment(ctx context.Context, commitment zk.Commitment) (*models.Credential, error)
	ListBySubject(ctx context.Context, subjectID id.SubjectID) ([]*models.Credential, error)
}
