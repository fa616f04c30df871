// Package handler holds the gin handlers of the portal API.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dgtech/internal/apperr"
	"dgtech/internal/model"
	"dgtech/pkg/logger"
	"dgtech/pkg/util"
)

// Keys set on the gin context by the auth middleware.
const (
	KeyClaims    = "claims"
	KeyPrincipal = "principal"
)

// CurrentPrincipal returns the authenticated principal.
func CurrentPrincipal(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(KeyPrincipal)
	if !ok {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}

// CurrentClaims returns the token claims of the request.
func CurrentClaims(c *gin.Context) (*util.Claims, bool) {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*util.Claims)
	return claims, ok
}

// getPrincipal writes 401 and returns false when the request carries no
// principal.
func getPrincipal(c *gin.Context) (model.Principal, bool) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return model.Principal{}, false
	}
	return p, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// WriteError renders err with the status of its class.
func WriteError(c *gin.Context, log *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.WithTrace(c.Request.Context(), log).Warn("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": apperr.PublicMessage(err)})
}
