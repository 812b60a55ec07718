// Package remote is the client for the store's backend API: sessions,
// catalog, discount validation, favorites and orders.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/esans/internal"
	"github.com/dukerupert/esans/internal/domain"
	"github.com/dukerupert/esans/internal/telemetry"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

const unavailableMessage = "Store API is unavailable. Please try again."

// Client talks JSON to the store API. It satisfies discount.Validator,
// favorites.Remote and checkout.OrderCreator.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for cfg.BaseURL. A nil transport uses
// http.DefaultTransport; requests are traced through Sentry when enabled.
func NewClient(cfg internal.APIConfig, transport http.RoundTripper, logger *slog.Logger) *Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &telemetry.HTTPTransport{Transport: transport},
		},
		logger: logger,
	}
}

// envelope is the API's response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// do sends one request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, op, method, path, token string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		if telemetry.Business == nil {
			return
		}
		telemetry.Business.RemoteAPILatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err != nil {
			telemetry.Business.RemoteAPIErrors.WithLabelValues(op, domain.ErrorCode(err)).Inc()
		}
	}()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return domain.Internal(err, op, "failed to encode request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return domain.Internal(err, op, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("store API request failed",
			slog.String("op", op),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return domain.Unavailable(err, op, unavailableMessage)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Unavailable(err, op, unavailableMessage)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok || decodeErr != nil || (env.Success != nil && !*env.Success) {
		if ok && decodeErr != nil {
			return domain.Internal(decodeErr, op, "failed to decode response")
		}
		return c.apiError(op, resp.StatusCode, env)
	}

	c.logger.Debug("store API request",
		slog.String("op", op),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return domain.Internal(err, op, "failed to decode response data")
	}
	return nil
}

// apiError turns a rejected response into a domain error whose message is
// the server's, unmodified.
func (c *Client) apiError(op string, status int, env envelope) error {
	msg := env.Message
	if msg == "" {
		msg = env.Error
	}
	if msg == "" {
		msg = fmt.Sprintf("Request failed (%d %s)", status, http.StatusText(status))
	}

	code := domain.EREMOTE
	switch status {
	case http.StatusUnauthorized:
		code = domain.EUNAUTHORIZED
	case http.StatusForbidden:
		code = domain.EFORBIDDEN
	case http.StatusNotFound:
		code = domain.ENOTFOUND
	case http.StatusTooManyRequests:
		code = domain.ERATELIMIT
	}

	c.logger.Info("store API rejected request",
		slog.String("op", op),
		slog.Int("status", status),
		slog.String("message", msg),
	)
	return &domain.Error{Code: code, Op: op, Message: msg}
}

// ValidateSession resolves a bearer token to the signed-in shopper.
func (c *Client) ValidateSession(ctx context.Context, token string) (*domain.Identity, error) {
	const op = "remote.ValidateSession"
	if token == "" {
		return nil, domain.Unauthorized(op, "Authentication required")
	}

	var user struct {
		ID    string `json:"id"`
		MID   string `json:"_id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := c.do(ctx, op, http.MethodGet, "/auth/me", token, nil, &user); err != nil {
		return nil, err
	}

	id := user.ID
	if id == "" {
		id = user.MID
	}
	if id == "" {
		return nil, domain.Unauthorized(op, "Authentication required")
	}
	return &domain.Identity{UserID: id, Email: user.Email, Name: user.Name, Token: token}, nil
}

// GetPerfume fetches one catalog product.
func (c *Client) GetPerfume(ctx context.Context, id string) (*domain.Product, error) {
	const op = "remote.GetPerfume"
	if strings.TrimSpace(id) == "" {
		return nil, domain.Invalid(op, "Product id is required")
	}

	var p domain.Product
	if err := c.do(ctx, op, http.MethodGet, "/perfumes/"+url.PathEscape(id), "", nil, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = id
	}
	return &p, nil
}

// discountRequest sends money as a JSON number, which the API expects.
type discountRequest struct {
	Code        string      `json:"code"`
	OrderAmount json.Number `json:"orderAmount"`
	ProductIDs  []string    `json:"productIds"`
}

// ValidateDiscount asks the API whether req.Code applies to the cart.
func (c *Client) ValidateDiscount(ctx context.Context, req domain.DiscountRequest) (*domain.AppliedDiscount, error) {
	const op = "remote.ValidateDiscount"

	productIDs := req.ProductIDs
	if productIDs == nil {
		productIDs = []string{}
	}
	payload := discountRequest{
		Code:        req.Code,
		OrderAmount: json.Number(req.OrderAmount.String()),
		ProductIDs:  productIDs,
	}

	var applied domain.AppliedDiscount
	if err := c.do(ctx, op, http.MethodPost, "/discounts/validate", "", payload, &applied); err != nil {
		return nil, err
	}
	if applied.DiscountType != domain.DiscountPercentage && applied.DiscountType != domain.DiscountFixed {
		return nil, domain.Errorf(domain.EREMOTE, op, "Unsupported discount type %q", applied.DiscountType)
	}
	if !domain.InMoneyRange(applied.DiscountValue) ||
		(applied.MaxDiscountAmount != nil && !domain.InMoneyRange(*applied.MaxDiscountAmount)) {
		return nil, domain.Errorf(domain.EREMOTE, op, "Discount value is out of range")
	}
	return &applied, nil
}

// ListFavorites returns the signed-in shopper's favorites.
func (c *Client) ListFavorites(ctx context.Context, token string) ([]domain.Product, error) {
	var items []domain.Product
	if err := c.do(ctx, "remote.ListFavorites", http.MethodGet, "/favorites", token, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddFavorite adds productID to the shopper's favorites.
func (c *Client) AddFavorite(ctx context.Context, token, productID string) error {
	body := map[string]string{"productId": productID}
	return c.do(ctx, "remote.AddFavorite", http.MethodPost, "/favorites", token, body, nil)
}

// RemoveFavorite removes productID from the shopper's favorites.
func (c *Client) RemoveFavorite(ctx context.Context, token, productID string) error {
	return c.do(ctx, "remote.RemoveFavorite", http.MethodDelete, "/favorites/"+url.PathEscape(productID), token, nil, nil)
}

// ToggleFavorite flips productID and returns whether it is now a favorite.
func (c *Client) ToggleFavorite(ctx context.Context, token, productID string) (bool, error) {
	var res struct {
		IsFavorite *bool `json:"isFavorite"`
	}
	path := "/favorites/" + url.PathEscape(productID) + "/toggle"
	if err := c.do(ctx, "remote.ToggleFavorite", http.MethodPost, path, token, nil, &res); err != nil {
		return false, err
	}
	if res.IsFavorite == nil {
		return false, domain.Internal(errors.New("missing isFavorite"), "remote.ToggleFavorite", "failed to decode response data")
	}
	return *res.IsFavorite, nil
}

// CreateOrder submits draft. An empty token places a guest order.
func (c *Client) CreateOrder(ctx context.Context, token string, draft domain.OrderDraft) (*domain.PlacedOrder, error) {
	const op = "remote.CreateOrder"

	var placed domain.PlacedOrder
	if err := c.do(ctx, op, http.MethodPost, "/orders", token, draft, &placed); err != nil {
		return nil, err
	}
	if placed.OrderNumber == "" {
		return nil, domain.Errorf(domain.EREMOTE, op, "Order API returned no order number")
	}
	return &placed, nil
}
