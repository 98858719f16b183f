package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/repository"
)

// DomainVerifier checks that a workspace may host links on a domain
type DomainVerifier interface {
	// DomainOrError returns the domain when it exists, belongs to the
	// workspace and is usable. Otherwise the error wraps ErrDomainNotOwned.
	DomainOrError(ctx context.Context, workspaceID uint, slug string) (*models.Domain, error)
}

type DomainVerifierImpl struct {
	domainRepo repository.DomainRepository
}

func NewDomainVerifier(domainRepo repository.DomainRepository) DomainVerifier {
	return &DomainVerifierImpl{domainRepo: domainRepo}
}

func (v *DomainVerifierImpl) DomainOrError(ctx context.Context, workspaceID uint, slug string) (*models.Domain, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	domain, err := v.domainRepo.BySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to look up domain %s: %w", slug, err)
	}
	if domain == nil || domain.WorkspaceID != workspaceID {
		return nil, fmt.Errorf("%w: %s", ErrDomainNotOwned, slug)
	}
	if !domain.Usable() {
		return nil, fmt.Errorf("%w: %s is not verified", ErrDomainNotOwned, slug)
	}
	return domain, nil
}
