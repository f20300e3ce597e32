package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ordersvc "storefront/internal/service/order"
)

func registerOrderRoutes(g *gin.RouterGroup, svc OrderService) {
	g.GET("", func(c *gin.Context) {
		orders, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	})

	g.GET("/estado", func(c *gin.Context) {
		status := strings.TrimSpace(c.Query("estado"))
		if status == "" {
			badRequest(c, "estado is required")
			return
		}
		orders, err := svc.ListByStatus(c.Request.Context(), status)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	})

	g.POST("", func(c *gin.Context) {
		var in ordersvc.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid body")
			return
		}
		o, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	})

	g.GET("/:id", func(c *gin.Context) {
		id, ok := int64Param(c, "id")
		if !ok {
			return
		}
		o, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	})

	g.PUT("/:id", func(c *gin.Context) {
		id, ok := int64Param(c, "id")
		if !ok {
			return
		}
		var in ordersvc.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid body")
			return
		}
		o, err := svc.Update(c.Request.Context(), id, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	})

	g.DELETE("/:id", func(c *gin.Context) {
		id, ok := int64Param(c, "id")
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
