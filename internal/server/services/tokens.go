package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/filestore"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophstore/internal/server/tokencache"
	"github.com/google/uuid"
)

var formatPattern = regexp.MustCompile(`^[A-Z0-9]{1,16}$`)

// tokenAttempts bounds regeneration after a token value collision.
const tokenAttempts = 3

var makeTokenValue = func() (string, error) {
	return common.MakeRandHexString(common.DownloadTokenBytes)
}

type IssuedToken struct {
	Token     string
	ContentID string
	Format    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type ResolvedToken struct {
	FileRef     string
	ContentID   string
	Format      string
	DownloadURL string
	ExpiresAt   time.Time
}

// TokenIssuer mints and resolves time-boxed, multi-use download tokens.
type TokenIssuer struct {
	tx       dbx.Transactor
	repos    repomanager.RepositoryManager
	registry *OwnershipRegistry
	delivery *DeliveryTracker
	cache    tokencache.Cache
	linker   filestore.Linker
	log      logging.Logger
	ttl      time.Duration
	now      func() time.Time
}

func NewTokenIssuer(
	tx dbx.Transactor,
	repos repomanager.RepositoryManager,
	registry *OwnershipRegistry,
	delivery *DeliveryTracker,
	cache tokencache.Cache,
	linker filestore.Linker,
	log logging.Logger,
	cfg *config.Config,
) *TokenIssuer {
	if cache == nil {
		cache = tokencache.Nop{}
	}
	if linker == nil {
		linker = filestore.Passthrough{}
	}
	ttl := cfg.DownloadTokenTTL
	if ttl <= 0 {
		ttl = common.DownloadTokenValidity
	}
	return &TokenIssuer{
		tx:       tx,
		repos:    repos,
		registry: registry,
		delivery: delivery,
		cache:    cache,
		linker:   linker,
		log:      log.With("module", "tokens"),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *TokenIssuer) IssueToken(ctx context.Context, userID, contentID, format string) (*IssuedToken, error) {
	format = strings.ToUpper(strings.TrimSpace(format))
	if userID == "" || contentID == "" {
		return nil, fmt.Errorf("%w: user and content ids are required", common.ErrValidation)
	}
	if !formatPattern.MatchString(format) {
		return nil, fmt.Errorf("%w: format %q", common.ErrValidation, format)
	}

	owned, err := s.registry.HasOwnership(ctx, userID, contentID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, common.ErrNotOwned
	}

	issued := s.now().UTC()
	tok := &models.DownloadToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		ContentID: contentID,
		Format:    format,
		IssuedAt:  issued,
		ExpiresAt: issued.Add(s.ttl),
	}

	repo := s.repos.Tokens(s.tx.Conn())
	for attempt := 1; ; attempt++ {
		tok.TokenValue, err = makeTokenValue()
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		err = repo.Create(ctx, tok)
		if err == nil {
			break
		}
		if !errors.Is(err, common.ErrStorageConflict) || attempt == tokenAttempts {
			return nil, fmt.Errorf("persist token: %w", err)
		}
	}

	s.warm(ctx, tok)
	s.log.Info(ctx, "download token issued", "token_id", tok.ID, "user_id", userID, "content_id", contentID, "format", format)

	return &IssuedToken{
		Token:     tok.TokenValue,
		ContentID: contentID,
		Format:    format,
		IssuedAt:  tok.IssuedAt,
		ExpiresAt: tok.ExpiresAt,
	}, nil
}

// warm writes a fresh token through to the cache. Failures only cost a
// database read later.
func (s *TokenIssuer) warm(ctx context.Context, tok *models.DownloadToken) {
	item, err := s.repos.Contents(s.tx.Conn()).Get(ctx, tok.ContentID)
	if err != nil {
		s.log.Warn(ctx, "token cache warm skipped", "content_id", tok.ContentID, "error", err)
		return
	}
	res := &models.Resolution{
		TokenID:   tok.ID,
		UserID:    tok.UserID,
		ContentID: tok.ContentID,
		Format:    tok.Format,
		FileRef:   item.FileRef,
		ExpiresAt: tok.ExpiresAt,
	}
	if err := s.cache.Put(ctx, tok.TokenValue, res, tok.ExpiresAt.Sub(tok.IssuedAt)); err != nil {
		s.log.Warn(ctx, "token cache put failed", "error", err)
	}
}

// ResolveToken validates a token and records the delivery. Ownership is
// not queried up front; recording fails with ErrNotOwned if the pair has
// no ownership row.
func (s *TokenIssuer) ResolveToken(ctx context.Context, tokenValue string) (*ResolvedToken, error) {
	if tokenValue == "" {
		return nil, common.ErrDownloadTokenNotFound
	}

	res, err := s.lookup(ctx, tokenValue)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !now.Before(res.ExpiresAt) {
		return nil, common.ErrDownloadTokenExpired
	}

	if err := s.delivery.RecordDelivery(ctx, res.TokenID, res.UserID, res.ContentID); err != nil {
		return nil, err
	}

	url, err := s.linker.DownloadURL(ctx, res.FileRef)
	if err != nil {
		s.log.Warn(ctx, "download url unavailable", "content_id", res.ContentID, "error", err)
		url = ""
	}

	return &ResolvedToken{
		FileRef:     res.FileRef,
		ContentID:   res.ContentID,
		Format:      res.Format,
		DownloadURL: url,
		ExpiresAt:   res.ExpiresAt,
	}, nil
}

func (s *TokenIssuer) lookup(ctx context.Context, tokenValue string) (*models.Resolution, error) {
	res, hit, err := s.cache.Get(ctx, tokenValue)
	if err != nil {
		s.log.Warn(ctx, "token cache get failed", "error", err)
	}
	if hit {
		return res, nil
	}

	res, err = s.repos.Tokens(s.tx.Conn()).Resolve(ctx, tokenValue)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrDownloadTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}

	if remaining := res.ExpiresAt.Sub(s.now()); remaining > 0 {
		if err := s.cache.Put(ctx, tokenValue, res, remaining); err != nil {
			s.log.Warn(ctx, "token cache put failed", "error", err)
		}
	}
	return res, nil
}
