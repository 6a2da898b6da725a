package gateway

import (
	"net/http"

	"github.com/example/marketplace/pkg/verification"
	"github.com/gin-gonic/gin"
)

func (g *Gateway) requestSeller(c *gin.Context) {
	p := g.principal(c)

	var app verification.Application
	if err := c.BindJSON(&app); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_input"})
		return
	}

	result, err := g.sellers.RequestSeller(c.Request.Context(), p.UserID, app)
	if err != nil {
		g.respondError(c, err)
		return
	}
	if result.SignOut {
		g.signOut(c, p.UserID)
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     result.User,
		"sign_out": result.SignOut,
	})
}

func (g *Gateway) revertToCustomer(c *gin.Context) {
	p := g.principal(c)

	result, err := g.sellers.RevertToCustomer(c.Request.Context(), p.UserID)
	if err != nil {
		g.respondError(c, err)
		return
	}
	if result.SignOut {
		g.signOut(c, p.UserID)
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     result.User,
		"sign_out": result.SignOut,
	})
}

func (g *Gateway) listPendingVerifications(c *gin.Context) {
	users, err := g.sellers.ListPending(c.Request.Context(), g.principal(c))
	if err != nil {
		g.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"applications": users,
		"total":        len(users),
	})
}

func (g *Gateway) approveVerification(c *gin.Context) {
	userID := c.Param("userID")

	result, err := g.sellers.Approve(c.Request.Context(), g.principal(c), userID)
	if err != nil {
		g.respondError(c, err)
		return
	}
	if result.SignOut {
		g.signOut(c, userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     result.User,
		"sign_out": result.SignOut,
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (g *Gateway) rejectVerification(c *gin.Context) {
	var req rejectRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_input"})
		return
	}

	result, err := g.sellers.Reject(c.Request.Context(), g.principal(c), c.Param("userID"), req.Reason)
	if err != nil {
		g.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     result.User,
		"sign_out": result.SignOut,
	})
}
