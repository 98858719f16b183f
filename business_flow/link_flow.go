package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/repository"
	"github.com/amirphl/orochi-partners/utils"
)

const maxLinkKeyAttempts = 5

// LinkPayload is the input of a tracked link
type LinkPayload struct {
	Domain          string
	Key             *string
	URL             string
	ProgramID       *string
	PartnerID       *string
	FolderID        *string
	TrackConversion bool
}

// LinkFlow prepares and persists tracked links
type LinkFlow interface {
	// ProcessLink validates payload and returns an unsaved link. A random key
	// is picked when payload has none.
	ProcessLink(ctx context.Context, payload LinkPayload, workspace *models.Workspace, userID uint) (*models.Link, error)
	CreateLink(ctx context.Context, link *models.Link) (*models.Link, error)
}

type LinkFlowImpl struct {
	linkRepo       repository.LinkRepository
	domainVerifier DomainVerifier
}

func NewLinkFlow(linkRepo repository.LinkRepository, domainVerifier DomainVerifier) LinkFlow {
	return &LinkFlowImpl{linkRepo: linkRepo, domainVerifier: domainVerifier}
}

func (f *LinkFlowImpl) ProcessLink(ctx context.Context, payload LinkPayload, workspace *models.Workspace, userID uint) (*models.Link, error) {
	if workspace == nil {
		return nil, ErrWorkspaceNotFound
	}
	if !utils.IsWebURL(payload.URL) {
		return nil, fmt.Errorf("%w: url must be an http or https URL", ErrInvalidLinkInput)
	}
	domain, err := f.domainVerifier.DomainOrError(ctx, workspace.ID, payload.Domain)
	if err != nil {
		return nil, err
	}

	key, err := f.resolveKey(ctx, domain.Slug, payload.Key)
	if err != nil {
		return nil, err
	}

	link := &models.Link{
		ID:              utils.CreateID(utils.LinkIDPrefix),
		WorkspaceID:     workspace.ID,
		Domain:          domain.Slug,
		Key:             key,
		URL:             payload.URL,
		ShortLink:       models.BuildShortLink(domain.Slug, key),
		ProgramID:       payload.ProgramID,
		PartnerID:       payload.PartnerID,
		FolderID:        payload.FolderID,
		TrackConversion: payload.TrackConversion,
	}
	if userID != 0 {
		link.CreatedBy = utils.ToPtr(userID)
	}
	return link, nil
}

func (f *LinkFlowImpl) resolveKey(ctx context.Context, domain string, requested *string) (string, error) {
	if requested != nil && strings.TrimSpace(*requested) != "" {
		key := strings.TrimSpace(*requested)
		if err := payloadValidator.Var(key, "max=190,link_key"); err != nil {
			return "", fmt.Errorf("%w: invalid key %q", ErrInvalidLinkInput, key)
		}
		taken, err := f.keyTaken(ctx, domain, key)
		if err != nil {
			return "", err
		}
		if taken {
			return "", fmt.Errorf("%w: %s/%s", ErrLinkKeyTaken, domain, key)
		}
		return key, nil
	}

	for i := 0; i < maxLinkKeyAttempts; i++ {
		key := utils.Nanoid(utils.PartnerLinkKeyLength)
		taken, err := f.keyTaken(ctx, domain, key)
		if err != nil {
			return "", err
		}
		if !taken {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: could not generate a free key on %s", ErrLinkKeyTaken, domain)
}

func (f *LinkFlowImpl) keyTaken(ctx context.Context, domain, key string) (bool, error) {
	existing, err := f.linkRepo.ByDomainAndKey(ctx, domain, key)
	if err != nil {
		return false, fmt.Errorf("failed to check link key: %w", err)
	}
	return existing != nil, nil
}

func (f *LinkFlowImpl) CreateLink(ctx context.Context, link *models.Link) (*models.Link, error) {
	if link == nil {
		return nil, ErrInvalidLinkInput
	}
	if err := f.linkRepo.Save(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s/%s", ErrLinkKeyTaken, link.Domain, link.Key)
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}
	return link, nil
}
