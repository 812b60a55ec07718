// Package discount tracks the discount code applied to a session's cart.
package discount

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/dukerupert/esans/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrValidationInFlight is returned when a validation is already running.
	ErrValidationInFlight = &domain.Error{Code: domain.ECONFLICT, Message: "A discount code is already being checked"}

	// ErrCodeRequired is returned for an empty code.
	ErrCodeRequired = &domain.Error{Code: domain.EINVALID, Message: "Discount code is required"}
)

// Validator checks a discount code against the remote API.
type Validator interface {
	ValidateDiscount(ctx context.Context, req domain.DiscountRequest) (*domain.AppliedDiscount, error)
}

// State is the observable state of a discount session.
type State struct {
	Applied *domain.AppliedDiscount `json:"applied"`
	Loading bool                    `json:"loading"`
	Error   string                  `json:"error,omitempty"`
}

// Listener is told about every change to the applied discount.
type Listener func(*domain.AppliedDiscount)

// Session holds at most one applied discount and runs at most one
// validation at a time. It is safe for concurrent use.
type Session struct {
	validator Validator
	logger    *slog.Logger
	inflight  *semaphore.Weighted

	mu        sync.Mutex
	state     State
	listeners []Listener
}

// NewSession creates a session with no discount applied.
func NewSession(v Validator, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		validator: v,
		logger:    logger,
		inflight:  semaphore.NewWeighted(1),
	}
}

// Validate asks the remote API to validate code for a cart with the given
// subtotal and products. On success the returned discount replaces the
// applied one and the error is cleared. On failure the readable message is
// recorded and the previously applied discount is kept.
//
// A call made while another validation is running returns
// ErrValidationInFlight without touching state.
func (s *Session) Validate(ctx context.Context, code string, subtotal decimal.Decimal, productIDs []string) error {
	const op = "discount.Validate"

	code = strings.TrimSpace(code)
	if code == "" {
		s.setError(ErrCodeRequired.Message)
		return domain.WithOp(ErrCodeRequired, op)
	}

	if !s.inflight.TryAcquire(1) {
		return domain.WithOp(ErrValidationInFlight, op)
	}
	defer s.inflight.Release(1)

	s.setLoading(true)
	defer s.setLoading(false)

	applied, err := s.validator.ValidateDiscount(ctx, domain.DiscountRequest{
		Code:        code,
		OrderAmount: subtotal,
		ProductIDs:  productIDs,
	})
	if err == nil && applied == nil {
		err = domain.Errorf(domain.EINTERNAL, op, "validator returned no discount")
	}
	if err != nil {
		s.logger.Info("discount code rejected",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
		s.setError(domain.ErrorMessage(err))
		return err
	}

	if applied.Code == "" {
		applied.Code = code
	}

	s.mu.Lock()
	s.state.Applied = applied
	s.state.Error = ""
	s.mu.Unlock()

	s.notify(applied)
	return nil
}

// Remove clears the applied discount and any error.
func (s *Session) Remove() {
	s.mu.Lock()
	had := s.state.Applied != nil
	s.state.Applied = nil
	s.state.Error = ""
	s.mu.Unlock()

	if had {
		s.notify(nil)
	}
}

// Applied returns the applied discount, or nil.
func (s *Session) Applied() *domain.AppliedDiscount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Applied
}

// State returns a copy of the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers l for applied-discount changes. Listeners run
// outside the session lock, so they may read the session.
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Loading = v
}

func (s *Session) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = msg
}

func (s *Session) notify(d *domain.AppliedDiscount) {
	s.mu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(d)
	}
}
