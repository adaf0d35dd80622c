package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"athleteapi/internal/config"
	"athleteapi/internal/metrics"
	"athleteapi/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRevocations struct {
	banned map[string]bool
	err    error
	calls  int
}

func (s *stubRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	s.calls++
	return s.banned[token], s.err
}

// spyVerifier records whether verification was reached.
type spyVerifier struct {
	inner TokenVerifier
	calls int
}

func (s *spyVerifier) Verify(token string) (*utils.Claims, error) {
	s.calls++
	return s.inner.Verify(token)
}

func newTestGate(t *testing.T, auth config.AuthConfig, banned ...string) (*gin.Engine, *utils.TokenCodec, *stubRevocations, *spyVerifier) {
	t.Helper()
	codec := utils.NewTokenCodec("gate-secret", time.Hour)
	rev := &stubRevocations{banned: map[string]bool{}}
	for _, b := range banned {
		rev.banned[b] = true
	}
	spy := &spyVerifier{inner: codec}
	gate := NewAccessGate(auth, rev, spy, metrics.New(), nil)

	r := gin.New()
	r.Use(gate.Middleware())
	handler := func(c *gin.Context) {
		id, ok := UserIDFromContext(c.Request.Context())
		ginID, _ := c.Get(ContextUserID)
		c.JSON(http.StatusOK, gin.H{"id": id, "ok": ok, "gin_id": ginID})
	}
	r.POST("/v1/auth/checkphone", handler)
	r.GET("/v1/users/me", handler)
	r.GET("/", handler)
	r.GET("/v1/", handler)
	r.GET("/v1/todos", handler)
	return r, codec, rev, spy
}

func defaultAuth() config.AuthConfig {
	return config.Default().Auth
}

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGateExemptPathNeedsNoToken(t *testing.T) {
	headerConfigs := []struct{ token, identity string }{
		{"t", "userID"},
		{"Authorization", ""},
		{"X-Session", "X-User"},
	}
	for _, hc := range headerConfigs {
		auth := defaultAuth()
		auth.TokenHeader = hc.token
		auth.IdentityHeader = hc.identity
		r, _, rev, spy := newTestGate(t, auth)

		rec := do(r, http.MethodPost, "/v1/auth/checkphone", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("header %q: status = %d, want 200", hc.token, rec.Code)
		}
		if rev.calls != 0 || spy.calls != 0 {
			t.Fatalf("header %q: exempt path consulted the token stores", hc.token)
		}
	}
}

func TestGateExactRulesDoNotActAsPrefixes(t *testing.T) {
	r, _, _, _ := newTestGate(t, defaultAuth())

	if rec := do(r, http.MethodGet, "/", nil); rec.Code != http.StatusOK {
		t.Fatalf("/ status = %d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/v1/", nil); rec.Code != http.StatusOK {
		t.Fatalf("/v1/ status = %d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/v1/todos", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("/v1/todos status = %d, want 401", rec.Code)
	}
}

func TestGateIsExemptFirstMatchWins(t *testing.T) {
	gate := NewAccessGate(config.AuthConfig{
		TokenHeader: "t",
		ExemptPaths: []config.ExemptPath{
			{Path: "/v1/auth", Match: config.MatchPrefix},
			{Path: "/v1/auth/checkphone", Match: config.MatchExact},
		},
	}, &stubRevocations{}, &spyVerifier{}, nil, nil)

	tests := []struct {
		path string
		want bool
	}{
		{"/v1/auth/checkphone", true},
		{"/v1/auth", true},
		{"/v1/authx", true},
		{"/v1/au", false},
		{"/v2/auth", false},
	}
	for _, tt := range tests {
		if got := gate.IsExempt(tt.path); got != tt.want {
			t.Errorf("IsExempt(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestGateExemptListIsCopied(t *testing.T) {
	auth := config.AuthConfig{
		TokenHeader: "t",
		ExemptPaths: []config.ExemptPath{{Path: "/open", Match: config.MatchExact}},
	}
	gate := NewAccessGate(auth, &stubRevocations{}, &spyVerifier{}, nil, nil)
	auth.ExemptPaths[0].Path = "/changed"

	if !gate.IsExempt("/open") {
		t.Fatal("gate must not observe later changes to its configuration")
	}
}

func TestGateMissingToken(t *testing.T) {
	r, _, rev, _ := newTestGate(t, defaultAuth())
	rec := do(r, http.MethodGet, "/v1/users/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rev.calls != 0 {
		t.Fatal("revocation list consulted without a token")
	}
}

func TestGateAcceptsValidTokenAndPropagatesIdentity(t *testing.T) {
	r, codec, _, _ := newTestGate(t, defaultAuth())
	token, err := codec.Issue(4242)
	if err != nil {
		t.Fatal(err)
	}

	rec := do(r, http.MethodGet, "/v1/users/me", map[string]string{"t": token})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("userID"); got != strconv.Itoa(4242) {
		t.Fatalf("userID header = %q", got)
	}
	want := `{"gin_id":4242,"id":4242,"ok":true}`
	if rec.Body.String() != want {
		t.Fatalf("body = %s, want %s", rec.Body.String(), want)
	}
}

func TestGateRevocationOutranksValidity(t *testing.T) {
	codec := utils.NewTokenCodec("gate-secret", time.Hour)
	token, err := codec.Issue(7)
	if err != nil {
		t.Fatal(err)
	}
	r, _, _, spy := newTestGate(t, defaultAuth(), token)

	rec := do(r, http.MethodGet, "/v1/users/me", map[string]string{"t": token})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if spy.calls != 0 {
		t.Fatal("verifier ran for a revoked token")
	}
}

func TestGateRejectionsLookAlike(t *testing.T) {
	expired := utils.NewTokenCodec("gate-secret", time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	oldToken, _ := expired.Issue(1)
	forged, _ := utils.NewTokenCodec("other", time.Hour).Issue(1)

	r, _, _, _ := newTestGate(t, defaultAuth(), "banned-token")

	bodies := map[string]string{}
	cases := map[string]map[string]string{
		"missing": nil,
		"revoked": {"t": "banned-token"},
		"expired": {"t": oldToken},
		"forged":  {"t": forged},
		"garbage": {"t": "xyz"},
	}
	for name, headers := range cases {
		rec := do(r, http.MethodGet, "/v1/users/me", headers)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", name, rec.Code)
		}
		bodies[name] = rec.Body.String()
	}
	for name, body := range bodies {
		if body != bodies["missing"] {
			t.Errorf("%s body %q differs from %q", name, body, bodies["missing"])
		}
	}
}

func TestGateRevocationLookupFailureRejects(t *testing.T) {
	r, codec, rev, spy := newTestGate(t, defaultAuth())
	rev.err = errors.New("db down")
	token, _ := codec.Issue(3)

	rec := do(r, http.MethodGet, "/v1/users/me", map[string]string{"t": token})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if spy.calls != 0 {
		t.Fatal("verifier ran after a failed revocation lookup")
	}
}

func TestGateCustomHeaders(t *testing.T) {
	auth := defaultAuth()
	auth.TokenHeader = "X-Session"
	auth.IdentityHeader = "X-User"
	r, codec, _, _ := newTestGate(t, auth)
	token, _ := codec.Issue(9)

	if rec := do(r, http.MethodGet, "/v1/users/me", map[string]string{"t": token}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("default header accepted: %d", rec.Code)
	}
	rec := do(r, http.MethodGet, "/v1/users/me", map[string]string{"X-Session": token})
	if rec.Code != http.StatusOK || rec.Header().Get("X-User") != "9" {
		t.Fatalf("status = %d, X-User = %q", rec.Code, rec.Header().Get("X-User"))
	}
}
