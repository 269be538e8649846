package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	ordersports "github.com/Apurer/go-order-bridge/internal/domains/orders/ports"
	sharederrors "github.com/Apurer/go-order-bridge/internal/shared/errors"
)

// orderLinkView is the operator-facing shape of an order link.
type orderLinkView struct {
	ExternalOrderID    int64  `json:"external_order_id"`
	LineItemID         int64  `json:"line_item_id"`
	ProductID          string `json:"product_id"`
	MarketplaceOrderID string `json:"marketplace_order_id,omitempty"`
	CreatedAt          string `json:"created_at,omitempty"`
	UpdatedAt          string `json:"updated_at,omitempty"`
}

// registerOps mounts operator endpoints for inspecting bridge state. These
// sit behind the same process as the webhooks but are meant for humans and
// runbooks, not for Shopify.
func registerOps(router gin.IRouter, links ordersports.LinkStore) {
	responder := sharederrors.DefaultResponder
	group := router.Group("/ops")
	group.GET("/orders/:id/links", func(c *gin.Context) {
		orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			responder.BadRequest(c, "order id must be numeric")
			return
		}
		recorded, err := links.ListByExternalOrder(c.Request.Context(), orderID)
		if err != nil {
			responder.InternalError(c, "failed to list order links")
			return
		}
		views := make([]orderLinkView, 0, len(recorded))
		for _, link := range recorded {
			views = append(views, orderLinkView{
				ExternalOrderID:    link.ExternalOrderID,
				LineItemID:         link.LineItemID,
				ProductID:          link.ProductID,
				MarketplaceOrderID: link.MarketplaceOrderID,
				CreatedAt:          formatLinkTime(link.CreatedAt),
				UpdatedAt:          formatLinkTime(link.UpdatedAt),
			})
		}
		c.JSON(http.StatusOK, gin.H{"order_id": orderID, "links": views})
	})
}

func formatLinkTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
