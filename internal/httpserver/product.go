package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	productsvc "storefront/internal/service/product"
)

func registerProductRoutes(g *gin.RouterGroup, svc ProductService) {
	g.GET("", func(c *gin.Context) {
		products, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	})

	g.POST("", func(c *gin.Context) {
		var in productsvc.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid body")
			return
		}
		p, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	g.GET("/:id", func(c *gin.Context) {
		id, ok := int64Param(c, "id")
		if !ok {
			return
		}
		p, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	g.PUT("/:id", func(c *gin.Context) {
		id, ok := int64Param(c, "id")
		if !ok {
			return
		}
		var in productsvc.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid body")
			return
		}
		p, err := svc.Update(c.Request.Context(), id, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
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

	custom := g.Group("/custom")
	custom.GET("/:customId", func(c *gin.Context) {
		p, err := svc.GetByCustomID(c.Request.Context(), c.Param("customId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})
	custom.PUT("/:customId", func(c *gin.Context) {
		var in productsvc.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid body")
			return
		}
		p, err := svc.UpdateByCustomID(c.Request.Context(), c.Param("customId"), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})
	custom.DELETE("/:customId", func(c *gin.Context) {
		if err := svc.DeleteByCustomID(c.Request.Context(), c.Param("customId")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}
