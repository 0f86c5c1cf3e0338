package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"DriverOnboard/pkg/errors"
	"DriverOnboard/pkg/response"
	"DriverOnboard/pkg/token"
)

const IdentityKey = token.IdentityKey

var tokens *token.Generator

func initAuthMiddleware(g *token.Generator) error {
	if g == nil {
		return fmt.Errorf("token generator not initialized, call token.Init() first")
	}
	tokens = g
	return nil
}

// AuthMiddleware 校验 Bearer token，把 driverId 写入上下文
func AuthMiddleware() app.HandlerFunc {
	if tokens == nil {
		panic("AuthMiddleware not initialized, call Init() first")
	}
	return authWith(tokens)
}

func authWith(g *token.Generator) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		raw := string(c.GetHeader(consts.HeaderAuthorization))
		bearer, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || bearer == "" {
			response.Error(ctx, c, errors.Unauthorized)
			c.Abort()
			return
		}

		driverID, err := g.Validate(bearer)
		if err != nil {
			response.Error(ctx, c, err)
			c.Abort()
			return
		}

		c.Set(IdentityKey, driverID)
		c.Next(ctx)
	}
}

// GetDriverID 从请求上下文中获取 driverId
func GetDriverID(ctx context.Context, c *app.RequestContext) (string, bool) {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}

	id, ok := v.(string)
	return id, ok
}
