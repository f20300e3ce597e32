package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	usersvc "storefront/internal/service/user"
)

func registerUserRoutes(g *gin.RouterGroup, svc UserService) {
	g.GET("", func(c *gin.Context) {
		users, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	})

	g.POST("", func(c *gin.Context) {
		var in usersvc.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid body")
			return
		}
		u, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	})

	// Credentials travel as query params, as the storefront client sends them.
	g.POST("/login", func(c *gin.Context) {
		name := strings.TrimSpace(c.Query("nombre"))
		password := c.Query("contrasena")
		if name == "" || password == "" {
			badRequest(c, "nombre and contrasena are required")
			return
		}
		u, err := svc.Login(c.Request.Context(), name, password)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	})

	g.GET("/buscar", func(c *gin.Context) {
		name := strings.TrimSpace(c.Query("nombre"))
		if name == "" {
			badRequest(c, "nombre is required")
			return
		}
		u, err := svc.FindByName(c.Request.Context(), name)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	})

	g.GET("/:id", func(c *gin.Context) {
		id, ok := int64Param(c, "id")
		if !ok {
			return
		}
		u, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	})

	g.PUT("/:id", func(c *gin.Context) {
		id, ok := int64Param(c, "id")
		if !ok {
			return
		}
		var in usersvc.Input
		if err := c.ShouldBindJSON(&in); err != nil {
			badRequest(c, "invalid body")
			return
		}
		u, err := svc.Update(c.Request.Context(), id, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
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
