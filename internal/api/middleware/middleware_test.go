package middleware

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"fleet-ledger/backend/config"
	"fleet-ledger/backend/pkg/jwt"
	"fleet-ledger/backend/pkg/redis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTL: 15 * time.Minute})
}

// unreachableRedis 指向不可达地址，用于验证降级放行
func unreachableRedis() *redis.Client {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	return redis.NewFromClient(rdb, zap.NewNop())
}

func authEngine(jwtMgr *jwt.Manager, rdb *redis.Client, roles ...string) *gin.Engine {
	r := gin.New()
	r.Use(JWTAuth(jwtMgr, rdb))
	if len(roles) > 0 {
		r.Use(RoleAuth(roles...))
	}
	r.GET("/whoami", func(c *gin.Context) {
		exp, _ := c.Get("token_exp")
		if _, ok := exp.(time.Time); !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, c.GetString("user_id")+"|"+c.GetString("role")+"|"+c.GetString("token_jti"))
	})
	return r
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	w := doGet(authEngine(newTestJWT(), nil), "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_InvalidToken(t *testing.T) {
	w := doGet(authEngine(newTestJWT(), nil), "not-a-token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_InjectsClaims(t *testing.T) {
	mgr := newTestJWT()
	token, err := mgr.GenerateAccessToken("drv-1", "driver")
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}
	claims, _ := mgr.ParseToken(token)

	w := doGet(authEngine(mgr, nil), token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if want := "drv-1|driver|" + claims.ID; w.Body.String() != want {
		t.Errorf("expected %q, got %q", want, w.Body.String())
	}
}

func TestJWTAuth_RedisUnavailableDegrades(t *testing.T) {
	mgr := newTestJWT()
	token, _ := mgr.GenerateAccessToken("adm-1", "admin")

	w := doGet(authEngine(mgr, unreachableRedis()), token)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 when redis unreachable, got %d", w.Code)
	}
}

func TestRoleAuth(t *testing.T) {
	mgr := newTestJWT()
	driverToken, _ := mgr.GenerateAccessToken("drv-1", "driver")
	subToken, _ := mgr.GenerateAccessToken("sub-1", "subadmin")

	r := authEngine(mgr, nil, "admin", "subadmin")
	if w := doGet(r, driverToken); w.Code != http.StatusForbidden {
		t.Errorf("driver: expected 403, got %d", w.Code)
	}
	if w := doGet(r, subToken); w.Code != http.StatusOK {
		t.Errorf("subadmin: expected 200, got %d", w.Code)
	}
}

func TestRateLimit_NilRedisPasses(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(nil, RateRule{Name: "login", Limit: 1, Window: time.Minute}), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/login", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("第 %d 次请求: expected 200, got %d", i+1, w.Code)
		}
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get("X-Request-ID") != "abc-123" {
		t.Errorf("expected passthrough id, got body=%q header=%q", w.Body.String(), w.Header().Get("X-Request-ID"))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if len(w.Body.String()) != 36 {
		t.Errorf("expected generated uuid, got %q", w.Body.String())
	}
}

func TestCORS_AllowedOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://ops.fleet.example/"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://ops.fleet.example")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://ops.fleet.example" {
		t.Errorf("unexpected allow-origin: %q", got)
	}
}

// ── BodyLimit ──

func bodyLimitEngine() *gin.Engine {
	r := gin.New()
	r.Use(BodyLimit(64, 4096))
	r.POST("/upload", func(c *gin.Context) {
		if _, err := c.MultipartForm(); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusOK)
	})
	r.POST("/json", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是 JSON: %q", w.Body.String())
	}
	return body.Code
}

func uploadRequest(size int) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("billingItems[0].image", "fuel.jpg")
	fw.Write(bytes.Repeat([]byte("x"), size))
	mw.Close()
	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestBodyLimit_JSONOverLimit(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/json", bytes.NewReader(bytes.Repeat([]byte("a"), 128)))
	req.Header.Set("Content-Type", "application/json")
	bodyLimitEngine().ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge || errorCode(t, w) != 10005 {
		t.Errorf("expected 413/10005, got %d %s", w.Code, w.Body.String())
	}
}

func TestBodyLimit_UploadUsesUploadLimit(t *testing.T) {
	// 超过 JSON 上限但在上传上限内
	w := httptest.NewRecorder()
	bodyLimitEngine().ServeHTTP(w, uploadRequest(256))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 within upload limit, got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	bodyLimitEngine().ServeHTTP(w, uploadRequest(8192))
	if w.Code != http.StatusRequestEntityTooLarge || errorCode(t, w) != 15004 {
		t.Errorf("expected 413/15004, got %d %s", w.Code, w.Body.String())
	}
}

// ── Logger ──

func TestLogger_FieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core), "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bookings/:id", func(c *gin.Context) {
		c.Set("user_id", "adm-1")
		c.Set("role", "admin")
		c.Status(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/bookings/bk-1", nil))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		t.Errorf("health check should log at debug, got %s", entries[0].Level)
	}
	fields := entries[1].ContextMap()
	if entries[1].Level != zapcore.WarnLevel || fields["route"] != "/bookings/:id" || fields["user_id"] != "adm-1" {
		t.Errorf("unexpected entry: level=%s fields=%v", entries[1].Level, fields)
	}
	if id, _ := fields["request_id"].(string); len(id) != 36 {
		t.Errorf("expected request_id field, got %v", fields["request_id"])
	}
}
