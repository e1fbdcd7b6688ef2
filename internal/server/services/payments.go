package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/dbx"
	"github.com/dmitrijs2005/gophstore/internal/logging"
	"github.com/dmitrijs2005/gophstore/internal/server/config"
	"github.com/dmitrijs2005/gophstore/internal/server/events"
	"github.com/dmitrijs2005/gophstore/internal/server/gateway"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/dmitrijs2005/gophstore/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// CreatedIntent is what the purchasing client needs to pay.
type CreatedIntent struct {
	IntentID     string
	ClientHandle string
	Amount       int64
	Currency     string
}

// PaymentService turns gateway-verified payments into ownership.
type PaymentService struct {
	tx        dbx.Transactor
	repos     repomanager.RepositoryManager
	gateway   gateway.Gateway
	registry  *OwnershipRegistry
	publisher events.Publisher
	log       logging.Logger

	currency       string
	gatewayTimeout time.Duration
	now            func() time.Time
}

func NewPaymentService(
	tx dbx.Transactor,
	repos repomanager.RepositoryManager,
	gw gateway.Gateway,
	registry *OwnershipRegistry,
	publisher events.Publisher,
	log logging.Logger,
	cfg *config.Config,
) *PaymentService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &PaymentService{
		tx:             tx,
		repos:          repos,
		gateway:        gw,
		registry:       registry,
		publisher:      publisher,
		log:            log.With("module", "payments"),
		currency:       strings.ToLower(cfg.Currency),
		gatewayTimeout: cfg.GatewayTimeout,
		now:            time.Now,
	}
}

func (s *PaymentService) CreateIntent(ctx context.Context, userID, contentID string) (*CreatedIntent, error) {
	if userID == "" || contentID == "" {
		return nil, fmt.Errorf("%w: user and content ids are required", common.ErrValidation)
	}

	item, err := s.repos.Contents(s.tx.Conn()).Get(ctx, contentID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrNotPurchasable
	}
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	if !item.Purchasable || item.Price <= 0 {
		return nil, common.ErrNotPurchasable
	}

	owned, err := s.registry.HasOwnership(ctx, userID, contentID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, common.ErrAlreadyOwned
	}

	currency := strings.ToLower(item.Currency)
	if currency == "" {
		currency = s.currency
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	ext, err := s.gateway.Create(gctx, item.Price, currency, map[string]string{
		"user_id":    userID,
		"content_id": contentID,
	})
	if err != nil {
		s.log.Warn(ctx, "gateway create failed", "content_id", contentID, "error", err)
		return nil, gatewayError(err)
	}

	intent := &models.PaymentIntent{
		ID:               uuid.NewString(),
		UserID:           userID,
		ContentID:        contentID,
		Amount:           item.Price,
		Currency:         currency,
		ExternalIntentID: ext.ID,
		ClientHandle:     ext.ClientHandle,
		Status:           models.IntentPending,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.repos.Intents(s.tx.Conn()).Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("persist intent: %w", err)
	}

	s.log.Info(ctx, "intent created",
		"intent_id", intent.ID, "external_intent_id", ext.ID, "user_id", userID, "content_id", contentID, "amount", item.Price)

	return &CreatedIntent{
		IntentID:     intent.ID,
		ClientHandle: ext.ClientHandle,
		Amount:       item.Price,
		Currency:     currency,
	}, nil
}

// ConfirmIntent asks the gateway for the authoritative status. Only a
// succeeded payment grants ownership; concurrent confirmations converge on
// one ownership record and one succeeded intent.
func (s *PaymentService) ConfirmIntent(ctx context.Context, intentID, userID string) error {
	if intentID == "" || userID == "" {
		return fmt.Errorf("%w: intent and user ids are required", common.ErrValidation)
	}

	intent, err := s.repos.Intents(s.tx.Conn()).GetForUser(ctx, intentID, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrIntentNotFound
	}
	if err != nil {
		return fmt.Errorf("load intent: %w", err)
	}

	if intent.Status.Terminal() {
		if intent.Status == models.IntentSucceeded {
			return nil
		}
		return common.ErrPaymentNotCompleted
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	status, err := s.gateway.Retrieve(gctx, intent.ExternalIntentID)
	cancel()
	if err != nil {
		s.log.Warn(ctx, "gateway retrieve failed", "intent_id", intent.ID, "error", err)
		return gatewayError(err)
	}

	switch {
	case status == gateway.StatusSucceeded:
		return s.complete(ctx, intent)
	case status.Final():
		if _, err := s.repos.Intents(s.tx.Conn()).MarkFailed(ctx, intent.ID, s.now().UTC()); err != nil {
			return fmt.Errorf("mark intent failed: %w", err)
		}
		s.log.Info(ctx, "intent closed at gateway", "intent_id", intent.ID, "gateway_status", string(status))
		return common.ErrPaymentNotCompleted
	default:
		s.log.Info(ctx, "payment not completed", "intent_id", intent.ID, "gateway_status", string(status))
		return common.ErrPaymentNotCompleted
	}
}

func (s *PaymentService) complete(ctx context.Context, intent *models.PaymentIntent) error {
	var moved bool
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.registry.grant(ctx, tx, intent.UserID, intent.ContentID, intent.Amount); err != nil {
			return err
		}
		var err error
		moved, err = s.repos.Intents(tx).MarkSucceeded(ctx, intent.ID, s.now().UTC())
		if err != nil {
			return fmt.Errorf("mark intent succeeded: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if moved {
		s.log.Info(ctx, "payment succeeded", "intent_id", intent.ID, "user_id", intent.UserID, "content_id", intent.ContentID)
		s.notify(ctx, intent)
	}
	return nil
}

// publishTimeout bounds the affiliate notification once it is detached
// from the request.
const publishTimeout = 5 * time.Second

// notify tells the affiliate ledger about the payment. It runs detached
// from the caller's cancellation since the grant is already committed.
// Failures are logged only; the grant stands.
func (s *PaymentService) notify(ctx context.Context, intent *models.PaymentIntent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	env, err := events.NewEnvelope(events.PaymentSucceeded, s.now(), events.PaymentSucceededData{
		IntentID:         intent.ID,
		ExternalIntentID: intent.ExternalIntentID,
		UserID:           intent.UserID,
		ContentID:        intent.ContentID,
		Amount:           intent.Amount,
		Currency:         intent.Currency,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, env, intent.UserID)
	}
	if err != nil {
		s.log.Error(ctx, "publish payment event failed", "intent_id", intent.ID, "error", err)
	}
}

func gatewayError(err error) error {
	if errors.Is(err, common.ErrGatewayUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", common.ErrGatewayUnavailable, err)
	}
	return fmt.Errorf("%w: gateway: %v", common.ErrorInternal, err)
}
