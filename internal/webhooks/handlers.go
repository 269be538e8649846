package webhooks

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Apurer/go-order-bridge/internal/domains/orders/domain"
	"github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
	sharederrors "github.com/Apurer/go-order-bridge/internal/shared/errors"
)

// Shopify delivery headers.
const (
	HeaderSignature = "X-Shopify-Hmac-Sha256"
	HeaderEventID   = "X-Shopify-Webhook-Id"
	HeaderTopic     = "X-Shopify-Topic"
)

// maxBodyBytes caps webhook bodies; Shopify order payloads stay far below this.
const maxBodyBytes = 1 << 20

// Handler exposes the Shopify webhook endpoints. Every endpoint acknowledges
// fast: the heavy lifting is dispatched to the orchestrator and the response
// only reports acceptance.
type Handler struct {
	auth         *Authenticator
	orchestrator ports.WorkflowOrchestrator
	responder    *sharederrors.Responder
	logger       *slog.Logger
}

// NewHandler wires the webhook endpoints.
func NewHandler(auth *Authenticator, orchestrator ports.WorkflowOrchestrator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		auth:         auth,
		orchestrator: orchestrator,
		responder:    sharederrors.DefaultResponder,
		logger:       logger,
	}
}

// Register mounts the webhook routes on the router.
func (h *Handler) Register(router gin.IRouter) {
	group := router.Group("/webhooks")
	group.POST("/orders/create", h.handleOrderCreate)
	group.POST("/orders/updated", h.handleOrderUpdated)
	group.POST("/inventory_levels/update", h.handleInventoryLevelsUpdate)
}

type orderWebhookPayload struct {
	ID                int64             `json:"id"`
	AdminGraphQLAPIID string            `json:"admin_graphql_api_id"`
	CancelledAt       *string           `json:"cancelled_at"`
	LineItems         []lineItemPayload `json:"line_items"`
}

type lineItemPayload struct {
	ID        int64  `json:"id"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Title     string `json:"title"`
}

func (h *Handler) handleOrderCreate(c *gin.Context) {
	payload, ok := h.authenticate(c)
	if !ok {
		return
	}

	order := toExternalOrder(payload)
	submission := ports.OrderSubmission{EventID: eventID(c), Order: order}
	if err := h.orchestrator.SubmitOrderSync(c.Request.Context(), submission); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "order sync dispatch failed",
			slog.Int64("order.id", order.ID), slog.String("error", err.Error()))
		h.responder.InternalError(c, "failed to dispatch order sync")
		return
	}
	h.logger.InfoContext(c.Request.Context(), "order sync dispatched",
		slog.Int64("order.id", order.ID), slog.String("event.id", submission.EventID))
	ack(c)
}

func (h *Handler) handleOrderUpdated(c *gin.Context) {
	payload, ok := h.authenticate(c)
	if !ok {
		return
	}

	if payload.CancelledAt == nil || strings.TrimSpace(*payload.CancelledAt) == "" {
		// Only cancellations carry inventory consequences on this topic.
		ack(c)
		return
	}

	order := toExternalOrder(payload)
	submission := ports.OrderSubmission{EventID: eventID(c), Order: order}
	if err := h.orchestrator.SubmitInventoryRestore(c.Request.Context(), submission); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "inventory restore dispatch failed",
			slog.Int64("order.id", order.ID), slog.String("error", err.Error()))
		h.responder.InternalError(c, "failed to dispatch inventory restore")
		return
	}
	h.logger.InfoContext(c.Request.Context(), "inventory restore dispatched",
		slog.Int64("order.id", order.ID), slog.String("event.id", submission.EventID))
	ack(c)
}

// handleInventoryLevelsUpdate acknowledges inventory level deliveries without
// acting on them. Quantity pushes originate from this system, so reacting to
// the resulting webhooks would loop.
func (h *Handler) handleInventoryLevelsUpdate(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		h.responder.BadRequest(c, "unreadable webhook body")
		return
	}
	if err := h.verify(c, body); err != nil {
		return
	}
	ack(c)
}

// authenticate reads the capped body, verifies the signature, and only then
// parses the payload.
func (h *Handler) authenticate(c *gin.Context) (*orderWebhookPayload, bool) {
	body, err := readBody(c)
	if err != nil {
		h.responder.BadRequest(c, "unreadable webhook body")
		return nil, false
	}
	if err := h.verify(c, body); err != nil {
		return nil, false
	}
	var payload orderWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.responder.BadRequest(c, "malformed webhook payload")
		return nil, false
	}
	return &payload, true
}

func (h *Handler) verify(c *gin.Context, body []byte) error {
	err := h.auth.Verify(body, c.GetHeader(HeaderSignature))
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrSecretNotConfigured):
		h.logger.ErrorContext(c.Request.Context(), "webhook rejected; secret not configured")
		h.responder.InternalError(c, "webhook verification unavailable")
	default:
		h.logger.WarnContext(c.Request.Context(), "webhook rejected",
			slog.String("reason", err.Error()), slog.String("topic", c.GetHeader(HeaderTopic)))
		h.responder.Respond(c, sharederrors.ErrUnauthorized.WithDetail("webhook signature rejected"))
	}
	return err
}

func readBody(c *gin.Context) ([]byte, error) {
	defer c.Request.Body.Close()
	return io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
}

// eventID prefers Shopify's delivery id so redeliveries dedupe; a generated
// id keeps manual test posts working.
func eventID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(HeaderEventID)); id != "" {
		return id
	}
	return uuid.NewString()
}

func toExternalOrder(payload *orderWebhookPayload) domain.ExternalOrder {
	items := make([]domain.LineItem, 0, len(payload.LineItems))
	for _, item := range payload.LineItems {
		items = append(items, domain.LineItem{
			ID:        item.ID,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Title:     item.Title,
		})
	}
	return domain.ExternalOrder{
		ID:    payload.ID,
		GID:   payload.AdminGraphQLAPIID,
		Items: items,
	}
}

func ack(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
