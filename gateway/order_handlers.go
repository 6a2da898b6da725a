package gateway

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/models"
	"github.com/example/marketplace/pkg/orders"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type checkoutRequest struct {
	FullName         string `json:"full_name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Phone            string `json:"phone" binding:"required"`
	Address          string `json:"address" binding:"required"`
	PaymentReference string `json:"payment_reference"`
	Paid             bool   `json:"paid"`

	// Optional ad-hoc line list. When absent the user's cart is used and
	// prices come from a fresh catalog read.
	Items []checkoutItem `json:"items"`
}

type checkoutItem struct {
	ProductID string          `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// checkout turns the cart (or the request's item list) into an order.
// The commission percentage is read from settings here, once, and
// threaded into the engine as a parameter.
func (g *Gateway) checkout(c *gin.Context) {
	p := g.principal(c)
	ctx := c.Request.Context()

	var req checkoutRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_input"})
		return
	}

	lines, err := g.checkoutLines(c, p.UserID, req.Items)
	if err != nil {
		g.respondError(c, err)
		return
	}

	percent, err := g.settings.CommissionPercent(ctx)
	if err != nil {
		g.respondError(c, err)
		return
	}

	order, err := g.orders.Create(ctx, p, orders.CreateInput{
		Lines: lines,
		Shipping: orders.Shipping{
			FullName: req.FullName,
			Email:    req.Email,
			Phone:    req.Phone,
			Address:  req.Address,
		},
		PaymentReference:  req.PaymentReference,
		Paid:              req.Paid,
		CommissionPercent: percent,
	})
	if err != nil {
		g.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (g *Gateway) checkoutLines(c *gin.Context, userID string, adHoc []checkoutItem) ([]orders.CreateLine, error) {
	ctx := c.Request.Context()

	if len(adHoc) > 0 {
		lines := make([]orders.CreateLine, len(adHoc))
		for i, item := range adHoc {
			lines[i] = orders.CreateLine{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}
		}
		return lines, nil
	}

	userCart, err := g.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(userCart.Items) == 0 {
		return nil, errs.ErrEmptyCart
	}

	ids := make([]string, len(userCart.Items))
	for i, item := range userCart.Items {
		ids[i] = item.ProductID
	}
	products, err := g.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]orders.CreateLine, len(userCart.Items))
	for i, item := range userCart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, errs.ErrNotFound)
		}
		lines[i] = orders.CreateLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		}
	}
	return lines, nil
}

func (g *Gateway) getOrder(c *gin.Context) {
	order, err := g.orders.Get(c.Request.Context(), g.principal(c), c.Param("number"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) listOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, total, err := g.orders.List(c.Request.Context(), g.principal(c), c.Query("user_id"), page, pageSize)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": list,
		"total":  total,
	})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (g *Gateway) overrideStatus(c *gin.Context) {
	var req statusRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_input"})
		return
	}

	order, err := g.orders.Override(c.Request.Context(), g.principal(c), c.Param("number"), models.OrderStatus(req.Status))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type shippingRequest struct {
	TrackingNumber string `json:"tracking_number"`
	Notes          string `json:"notes"`
}

func (g *Gateway) updateShipping(c *gin.Context) {
	var req shippingRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_input"})
		return
	}

	order, err := g.orders.UpdateShipping(c.Request.Context(), g.principal(c), c.Param("number"), req.TrackingNumber, req.Notes)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) confirmReceipt(c *gin.Context) {
	order, err := g.orders.ConfirmReceipt(c.Request.Context(), g.principal(c), c.Param("number"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) markSent(c *gin.Context) {
	itemID, err := strconv.ParseUint(c.Param("itemID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item id must be numeric", "code": "invalid_input"})
		return
	}

	item, err := g.orders.MarkSent(c.Request.Context(), g.principal(c), c.Param("number"), uint(itemID))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (g *Gateway) getOrderAudit(c *gin.Context) {
	p := g.principal(c)
	if !p.IsAdmin {
		g.respondError(c, errs.ErrForbidden)
		return
	}
	if g.audit == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []any{}})
		return
	}

	entries, err := g.audit.GetAuditLogs(c.Request.Context(), c.Param("number"), 100)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
