package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func ctxWithIP(ip string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if ip != "" {
		c.Set("real_ip", ip)
	}
	return c
}

func TestAllowPrivateIP(t *testing.T) {
	allow := AllowPrivateIP()
	cases := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"10.1.2.3", true},
		{"172.16.0.9", true},
		{"192.168.0.42", true},
		{"203.0.113.7", false},
		{"2001:db8::1", false},
		{"not-an-ip", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := allow(ctxWithIP(tc.ip)); got != tc.want {
			t.Errorf("AllowPrivateIP(%q) = %v, want %v", tc.ip, got, tc.want)
		}
	}
}

func TestRateLimitBypassesAllowedClients(t *testing.T) {
	// the allow func has to short-circuit before a key is built or Redis is
	// touched; the client below would fail every call if reached
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	keyed := false
	keyFn := func(c *gin.Context) string { keyed = true; return "rl:test" }

	limiter := RateLimit(rdb, 1, time.Minute, keyFn, AllowPrivateIP())
	c := ctxWithIP("10.0.0.5")
	limiter(c)
	if keyed {
		t.Fatal("private client must bypass the limiter before keying")
	}
	if c.IsAborted() {
		t.Fatal("private client should not be rate limited")
	}
}
