// Package checkout runs the three-step checkout for one session's cart:
// shipping details, payment details, confirmation.
package checkout

//go:generate mockgen -source=flow.go -destination=mock_flow_test.go -package=checkout

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/dukerupert/esans/internal/cart"
	"github.com/dukerupert/esans/internal/domain"
	"github.com/dukerupert/esans/internal/telemetry"
	"github.com/go-playground/validator/v10"
)

// Step is the checkout cursor.
type Step int

const (
	StepShipping Step = 1
	StepPayment  Step = 2
	StepConfirm  Step = 3
)

func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyPlaced is returned once the flow has placed its order.
	ErrAlreadyPlaced = &domain.Error{Code: domain.ECONFLICT, Message: "Order has already been placed"}

	// ErrSubmitting is returned while an order submission is in flight.
	ErrSubmitting = &domain.Error{Code: domain.ECONFLICT, Message: "Order is being submitted"}
)

// OrderCreator submits orders to the store API.
type OrderCreator interface {
	CreateOrder(ctx context.Context, token string, draft domain.OrderDraft) (*domain.PlacedOrder, error)
}

// Cart is the part of the cart store checkout reads and clears.
type Cart interface {
	Snapshot() cart.Snapshot
	ClearCart()
}

// State is the observable state of a checkout flow.
type State struct {
	Step          Step                 `json:"step"`
	Customer      domain.Customer      `json:"customer"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Notes         string               `json:"notes,omitempty"`
	Submitting    bool                 `json:"submitting"`
	Complete      bool                 `json:"complete"`
	OrderNumber   string               `json:"orderNumber,omitempty"`
	Error         string               `json:"error,omitempty"`
	FieldErrors   map[string]string    `json:"fieldErrors,omitempty"`
}

type paymentDetails struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" validate:"required,payment_method"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so the UI can map errors to inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
		return domain.PaymentMethod(fl.Field().String()).Valid()
	}); err != nil {
		panic("checkout: register payment_method validation: " + err.Error())
	}

	return v
}

// Flow is one checkout attempt. It is safe for concurrent use.
type Flow struct {
	cart   Cart
	orders OrderCreator
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// NewFlow starts a checkout at the shipping step with cash preselected.
func NewFlow(c Cart, orders OrderCreator, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		cart:   c,
		orders: orders,
		logger: logger,
		state:  State{Step: StepShipping, PaymentMethod: domain.PaymentCash},
	}
}

// State returns a copy of the flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := f.state
	if s.FieldErrors != nil {
		fields := make(map[string]string, len(s.FieldErrors))
		for k, v := range s.FieldErrors {
			fields[k] = v
		}
		s.FieldErrors = fields
	}
	return s
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Step
}

// SetCustomer replaces the shipping details. Values are trimmed.
func (f *Flow) SetCustomer(c domain.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Complete {
		return domain.WithOp(ErrAlreadyPlaced, "checkout.SetCustomer")
	}

	f.state.Customer = domain.Customer{
		Name:       strings.TrimSpace(c.Name),
		Email:      strings.TrimSpace(c.Email),
		Phone:      strings.TrimSpace(c.Phone),
		Address:    strings.TrimSpace(c.Address),
		City:       strings.TrimSpace(c.City),
		District:   strings.TrimSpace(c.District),
		PostalCode: strings.TrimSpace(c.PostalCode),
	}
	return nil
}

// SetPayment records the payment method and order notes. An empty method
// keeps the current selection.
func (f *Flow) SetPayment(method domain.PaymentMethod, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Complete {
		return domain.WithOp(ErrAlreadyPlaced, "checkout.SetPayment")
	}

	if method != "" {
		f.state.PaymentMethod = method
	}
	f.state.Notes = strings.TrimSpace(notes)
	return nil
}

// NextStep advances the cursor if the current step is valid. On failure
// the cursor stays put and the field errors are returned and recorded.
func (f *Flow) NextStep() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Complete || f.state.Step >= StepConfirm {
		return nil
	}

	if err := f.validateStep(f.state.Step); err != nil {
		f.recordError(err)
		return err
	}

	if telemetry.Business != nil {
		telemetry.Business.CheckoutStep.WithLabelValues(f.state.Step.String()).Inc()
	}

	f.state.Step++
	f.clearError()
	return nil
}

// PrevStep moves the cursor back one step. It never fails; it does nothing
// on the first step or once the order is placed.
func (f *Flow) PrevStep() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Complete || f.state.Step <= StepShipping {
		return
	}
	f.state.Step--
	f.clearError()
}

// PlaceOrder validates the shipping and payment steps again, submits the
// cart as an order and, on success, clears the cart (and with it the
// discount). On failure the cart and discount stay as they were and the
// remote error is returned unchanged.
func (f *Flow) PlaceOrder(ctx context.Context) (*domain.PlacedOrder, error) {
	const op = "checkout.PlaceOrder"

	f.mu.Lock()
	if f.state.Complete {
		f.mu.Unlock()
		return nil, domain.WithOp(ErrAlreadyPlaced, op)
	}
	if f.state.Submitting {
		f.mu.Unlock()
		return nil, domain.WithOp(ErrSubmitting, op)
	}

	for _, step := range []Step{StepShipping, StepPayment} {
		if err := f.validateStep(step); err != nil {
			f.recordError(err)
			f.mu.Unlock()
			return nil, err
		}
	}

	snap := f.cart.Snapshot()
	if snap.IsEmpty() {
		err := domain.WithOp(domain.ErrCartEmpty, op)
		f.recordError(err)
		f.mu.Unlock()
		return nil, err
	}

	draft := f.draft(snap)
	f.state.Submitting = true
	f.clearError()
	f.mu.Unlock()

	var token string
	if identity := domain.IdentityFromContext(ctx); identity != nil {
		token = identity.Token
	}

	placed, err := f.orders.CreateOrder(ctx, token, draft)
	if err == nil && placed == nil {
		err = domain.Errorf(domain.EINTERNAL, op, "order API returned no order")
	}

	f.mu.Lock()
	f.state.Submitting = false
	if err != nil {
		f.recordError(err)
		f.mu.Unlock()

		f.logger.Warn("order submission failed",
			slog.String("code", domain.ErrorCode(err)),
			slog.String("error", err.Error()),
		)
		if telemetry.Business != nil {
			telemetry.Business.OrdersFailed.WithLabelValues(domain.ErrorCode(err)).Inc()
		}
		return nil, err
	}

	f.state.Complete = true
	f.state.Step = StepConfirm
	f.state.OrderNumber = placed.OrderNumber
	f.mu.Unlock()

	f.cart.ClearCart()

	f.logger.Info("order placed",
		slog.String("order_number", placed.OrderNumber),
		slog.Int("items", snap.Totals.Count),
		slog.String("total", snap.Totals.Total.String()),
	)
	if telemetry.Business != nil {
		total, _ := snap.Totals.Total.Float64()
		telemetry.Business.OrdersCreated.WithLabelValues(string(draft.PaymentMethod)).Inc()
		telemetry.Business.OrderValue.Observe(total)
		telemetry.Business.OrderItemCount.Observe(float64(snap.Totals.Count))
		telemetry.Business.CartValue.Observe(total)
	}

	return placed, nil
}

// draft must be called with f.mu held.
func (f *Flow) draft(snap cart.Snapshot) domain.OrderDraft {
	lines := make([]domain.OrderLine, 0, len(snap.Items))
	for _, item := range snap.Items {
		lines = append(lines, domain.OrderLine{
			ProductID: item.Product.ID,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Quality:   item.Quality,
		})
	}

	draft := domain.OrderDraft{
		Customer:      f.state.Customer,
		Items:         lines,
		PaymentMethod: f.state.PaymentMethod,
		Notes:         f.state.Notes,
	}
	if snap.Discount != nil {
		draft.DiscountCode = snap.Discount.Code
	}
	return draft
}

// validateStep must be called with f.mu held.
func (f *Flow) validateStep(step Step) error {
	var target any
	switch step {
	case StepShipping:
		target = f.state.Customer
	case StepPayment:
		target = paymentDetails{PaymentMethod: f.state.PaymentMethod}
	default:
		return nil
	}

	err := validate.Struct(target)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.Internal(err, "checkout.validate", "failed to validate checkout step")
	}

	ve := &domain.ValidationError{Op: "checkout." + step.String(), Fields: map[string]string{}}
	for _, fe := range errs {
		ve.Fields[fe.Field()] = fieldMessage(fe)
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "payment_method":
		return "is not a supported payment method"
	default:
		return "is invalid"
	}
}

func (f *Flow) recordError(err error) {
	f.state.Error = domain.ErrorMessage(err)
	f.state.FieldErrors = domain.GetValidationFields(err)
}

func (f *Flow) clearError() {
	f.state.Error = ""
	f.state.FieldErrors = nil
}
