package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"storefront/internal/domain"
)

type createCartRequest struct {
	UserKey    *int64  `json:"userKey"`
	SessionKey *string `json:"sessionKey"`
}

func registerCartRoutes(g *gin.RouterGroup, svc CartService) {
	g.GET("/session/:sessionId", func(c *gin.Context) {
		cart, err := svc.GetBySession(c.Request.Context(), c.Param("sessionId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	})

	g.GET("/user/:userId", func(c *gin.Context) {
		userKey, ok := int64Param(c, "userId")
		if !ok {
			return
		}
		cart, err := svc.GetByUser(c.Request.Context(), userKey)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	})

	g.POST("", func(c *gin.Context) {
		var req createCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid body")
			return
		}
		cart, err := svc.CreateOrGet(c.Request.Context(), req.UserKey, req.SessionKey)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	})

	g.POST("/session", func(c *gin.Context) {
		cart, err := svc.IssueSession(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, cart)
	})

	g.POST("/transfer", func(c *gin.Context) {
		sessionKey := strings.TrimSpace(c.Query("sessionId"))
		if sessionKey == "" {
			badRequest(c, "sessionId is required")
			return
		}
		userKey, err := strconv.ParseInt(c.Query("userId"), 10, 64)
		if err != nil {
			badRequest(c, "userId must be an integer")
			return
		}
		cart, err := svc.Transfer(c.Request.Context(), sessionKey, userKey)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	})

	g.GET("/:cartId", func(c *gin.Context) {
		cart, err := svc.Get(c.Request.Context(), c.Param("cartId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	})

	g.POST("/:cartId/items", func(c *gin.Context) {
		var item domain.LineItem
		if err := c.ShouldBindJSON(&item); err != nil {
			badRequest(c, "invalid body")
			return
		}
		cart, err := svc.AddItem(c.Request.Context(), c.Param("cartId"), item)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	})

	g.PUT("/:cartId/items/:productId", func(c *gin.Context) {
		raw := c.Query("cantidad")
		if raw == "" {
			raw = c.Query("quantity")
		}
		qty, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "cantidad must be an integer")
			return
		}
		cart, err := svc.SetQuantity(c.Request.Context(), c.Param("cartId"), c.Param("productId"), qty)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	})

	g.DELETE("/:cartId/items/:productId", func(c *gin.Context) {
		cart, err := svc.RemoveItem(c.Request.Context(), c.Param("cartId"), c.Param("productId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	})

	g.DELETE("/:cartId", func(c *gin.Context) {
		cart, err := svc.Clear(c.Request.Context(), c.Param("cartId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	})
}
