package middleware

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"DriverOnboard/pkg/apiclient"
)

// corsHeaders 客户端会发送的全部请求头
var corsHeaders = strings.Join([]string{
	"Origin", "Content-Type", "Accept", "Authorization",
	apiclient.HeaderIdempotencyKey, apiclient.HeaderDriverID, apiclient.HeaderPhoneNumber,
}, ", ")

func trimOrigin(s string) string { return strings.TrimRight(strings.TrimSpace(s), "/") }

// CORSMiddleware allowed 为允许的 Origin 列表，"*" 表示任意来源。
// 不在列表中的来源不返回 CORS 头，预检请求直接 403
func CORSMiddleware(allowed []string) app.HandlerFunc {
	list := make([]string, 0, len(allowed))
	for _, a := range allowed {
		if a = trimOrigin(a); a != "" {
			list = append(list, a)
		}
	}

	match := func(origin string) string {
		for _, a := range list {
			if a == "*" {
				if origin == "" {
					return "*"
				}
				return origin
			}
			if origin != "" && strings.EqualFold(origin, a) {
				return origin
			}
		}
		return ""
	}

	return func(ctx context.Context, c *app.RequestContext) {
		allowOrigin := match(trimOrigin(string(c.Request.Header.Get("Origin"))))

		c.Response.Header.Add("Vary", "Origin")
		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", corsHeaders)
			c.Header("Access-Control-Max-Age", "86400")
		}

		if string(c.Method()) == consts.MethodOptions {
			if allowOrigin == "" {
				c.AbortWithStatus(consts.StatusForbidden)
				return
			}
			c.AbortWithStatus(consts.StatusNoContent)
			return
		}

		c.Next(ctx)
	}
}
