package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	hzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/stretchr/testify/assert"
)

func newCORSEngine(allowed ...string) *route.Engine {
	e := route.NewEngine(hzconfig.NewOptions(nil))
	e.Use(CORSMiddleware(allowed))
	e.GET("/ping", func(ctx context.Context, c *app.RequestContext) {
		c.String(http.StatusOK, "pong")
	})
	return e
}

func TestCORSAllowsListedOrigin(t *testing.T) {
	e := newCORSEngine("https://onboard.example.com/", "http://localhost:3000")

	w := ut.PerformRequest(e, http.MethodGet, "/ping", nil,
		ut.Header{Key: "Origin", Value: "http://LOCALHOST:3000"})
	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "http://LOCALHOST:3000", string(resp.Header.Peek("Access-Control-Allow-Origin")))
	assert.Contains(t, string(resp.Header.Peek("Access-Control-Allow-Headers")), "Idempotency-Key")

	w = ut.PerformRequest(e, http.MethodGet, "/ping", nil,
		ut.Header{Key: "Origin", Value: "https://onboard.example.com"})
	assert.Equal(t, "https://onboard.example.com", string(w.Result().Header.Peek("Access-Control-Allow-Origin")))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	e := newCORSEngine("http://localhost:3000")

	w := ut.PerformRequest(e, http.MethodGet, "/ping", nil,
		ut.Header{Key: "Origin", Value: "https://evil.example.com"})
	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Empty(t, resp.Header.Peek("Access-Control-Allow-Origin"))

	w = ut.PerformRequest(e, http.MethodOptions, "/ping", nil,
		ut.Header{Key: "Origin", Value: "https://evil.example.com"})
	assert.Equal(t, http.StatusForbidden, w.Result().StatusCode())
}

func TestCORSWildcard(t *testing.T) {
	e := newCORSEngine("*")

	w := ut.PerformRequest(e, http.MethodOptions, "/ping", nil,
		ut.Header{Key: "Origin", Value: "http://anything.test"})
	resp := w.Result()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode())
	assert.Equal(t, "http://anything.test", string(resp.Header.Peek("Access-Control-Allow-Origin")))

	w = ut.PerformRequest(e, http.MethodGet, "/ping", nil)
	assert.Equal(t, "*", string(w.Result().Header.Peek("Access-Control-Allow-Origin")))
}
