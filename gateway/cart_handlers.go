package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

func (g *Gateway) getCart(c *gin.Context) {
	p := g.principal(c)

	userCart, err := g.carts.Get(c.Request.Context(), p.UserID)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userCart)
}

func (g *Gateway) addCartItem(c *gin.Context) {
	p := g.principal(c)

	var req addCartItemRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_input"})
		return
	}

	// The product must exist; a dangling cart line would only fail later
	// at checkout with a confusing error.
	if _, err := g.catalog.Get(c.Request.Context(), req.ProductID); err != nil {
		g.respondError(c, err)
		return
	}

	userCart, err := g.carts.Add(c.Request.Context(), p.UserID, req.ProductID, req.Quantity)
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userCart)
}

func (g *Gateway) removeCartItem(c *gin.Context) {
	p := g.principal(c)

	userCart, err := g.carts.Remove(c.Request.Context(), p.UserID, c.Param("productID"))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userCart)
}
