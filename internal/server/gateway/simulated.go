package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/google/uuid"
)

// Simulated is an in-process processor for development and tests. New
// intents start in requires_payment_method, or succeeded when AutoSucceed
// is set.
type Simulated struct {
	mu          sync.Mutex
	intents     map[string]simIntent
	autoSucceed bool
	unavailable bool
	retrievals  int
}

type simIntent struct {
	amount   int64
	currency string
	metadata map[string]string
	status   Status
}

func NewSimulated(autoSucceed bool) *Simulated {
	return &Simulated{intents: make(map[string]simIntent), autoSucceed: autoSucceed}
}

func (s *Simulated) Create(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrGatewayUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unavailable {
		return nil, fmt.Errorf("%w: simulated outage", common.ErrGatewayUnavailable)
	}

	id := "pi_" + uuid.NewString()
	status := StatusRequiresPaymentMethod
	if s.autoSucceed {
		status = StatusSucceeded
	}

	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	s.intents[id] = simIntent{amount: amount, currency: currency, metadata: md, status: status}

	return &Intent{ID: id, ClientHandle: id + "_secret"}, nil
}

func (s *Simulated) Retrieve(ctx context.Context, id string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrGatewayUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.retrievals++
	if s.unavailable {
		return "", fmt.Errorf("%w: simulated outage", common.ErrGatewayUnavailable)
	}
	in, ok := s.intents[id]
	if !ok {
		return "", &RejectedError{StatusCode: 404, Type: "invalid_request_error", Message: "no such payment_intent"}
	}
	return in.status, nil
}

// SetStatus moves a simulated intent, as if the payer acted on it.
func (s *Simulated) SetStatus(id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.intents[id]
	if !ok {
		return fmt.Errorf("unknown intent %s", id)
	}
	in.status = status
	s.intents[id] = in
	return nil
}

// Pay completes the intent behind a client handle.
func (s *Simulated) Pay(_ context.Context, clientHandle string) error {
	id, ok := strings.CutSuffix(clientHandle, "_secret")
	if !ok || id == "" {
		return fmt.Errorf("malformed client handle")
	}
	return s.SetStatus(id, StatusSucceeded)
}

// SetUnavailable toggles a simulated outage.
func (s *Simulated) SetUnavailable(v bool) {
	s.mu.Lock()
	s.unavailable = v
	s.mu.Unlock()
}

// Retrievals counts Retrieve calls.
func (s *Simulated) Retrievals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retrievals
}

// Metadata returns a copy of what Create was given for id.
func (s *Simulated) Metadata(id string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string)
	for k, v := range s.intents[id].metadata {
		out[k] = v
	}
	return out
}
