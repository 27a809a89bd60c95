package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"fleet-ledger/backend/config"
	"fleet-ledger/backend/internal/api/handler"
	"fleet-ledger/backend/internal/service"
	"fleet-ledger/backend/pkg/jwt"
)

func setupEngine(t *testing.T) (*jwt.Manager, http.Handler) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.BodyLimitMB = 1
	cfg.Upload.MaxFileMB = 1
	cfg.Auth = config.AuthConfig{JWTSecret: "router-secret", AccessTokenTTL: time.Hour}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	h := handler.NewHandler(&service.Service{}, nil)
	return jwtMgr, Setup(cfg, h, jwtMgr, nil, zap.NewNop())
}

func request(engine http.Handler, method, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	engine.ServeHTTP(w, req)
	return w
}

func TestSetup_Health(t *testing.T) {
	_, engine := setupEngine(t)
	w := request(engine, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestSetup_RoleGates(t *testing.T) {
	jwtMgr, engine := setupEngine(t)
	driverToken, _ := jwtMgr.GenerateAccessToken("drv-1", "driver")
	subToken, _ := jwtMgr.GenerateAccessToken("sub-1", "subadmin")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"无 Token", "GET", "/api/v1/drivers", "", http.StatusUnauthorized},
		{"司机访问后台接口", "GET", "/api/v1/drivers", driverToken, http.StatusForbidden},
		{"后台访问司机自助", "GET", "/api/v1/me/wallet", subToken, http.StatusForbidden},
		{"subadmin 冲正", "POST", "/api/v1/bookings/bk-1/settlement/reverse", subToken, http.StatusForbidden},
		{"subadmin 新建账号", "POST", "/api/v1/admins", subToken, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := request(engine, tt.method, tt.path, tt.token); w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}
