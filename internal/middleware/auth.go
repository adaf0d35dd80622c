package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"athleteapi/internal/config"
	"athleteapi/internal/metrics"
	"athleteapi/internal/utils"
)

// ContextUserID is the gin context key holding the authenticated user ID.
const ContextUserID = "user_id"

type userIDKey struct{}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type TokenVerifier interface {
	Verify(token string) (*utils.Claims, error)
}

// AccessGate lets exempt paths through and requires a valid, unrevoked token
// everywhere else.
type AccessGate struct {
	exempt         []config.ExemptPath
	tokenHeader    string
	identityHeader string
	revocations    RevocationChecker
	verifier       TokenVerifier
	metrics        *metrics.Metrics
	log            *zap.Logger
}

func NewAccessGate(cfg config.AuthConfig, revocations RevocationChecker, verifier TokenVerifier, m *metrics.Metrics, log *zap.Logger) *AccessGate {
	if log == nil {
		log = zap.NewNop()
	}
	exempt := make([]config.ExemptPath, len(cfg.ExemptPaths))
	copy(exempt, cfg.ExemptPaths)
	return &AccessGate{
		exempt:         exempt,
		tokenHeader:    cfg.TokenHeader,
		identityHeader: cfg.IdentityHeader,
		revocations:    revocations,
		verifier:       verifier,
		metrics:        m,
		log:            log,
	}
}

// IsExempt walks the rules in order; the first match wins.
func (g *AccessGate) IsExempt(path string) bool {
	for _, rule := range g.exempt {
		switch rule.Match {
		case config.MatchExact:
			if path == rule.Path {
				return true
			}
		case config.MatchPrefix:
			if strings.HasPrefix(path, rule.Path) {
				return true
			}
		}
	}
	return false
}

func (g *AccessGate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.IsExempt(c.Request.URL.Path) {
			g.metrics.Gate(metrics.DecisionExempt)
			c.Next()
			return
		}

		token := strings.TrimSpace(c.GetHeader(g.tokenHeader))
		if token == "" {
			g.reject(c, metrics.DecisionMissing)
			return
		}

		// revocation outranks validity
		revoked, err := g.revocations.IsRevoked(c.Request.Context(), token)
		if err != nil {
			g.log.Error("revocation lookup failed", zap.Error(err))
			g.reject(c, metrics.DecisionRevoked)
			return
		}
		if revoked {
			g.reject(c, metrics.DecisionRevoked)
			return
		}

		claims, err := g.verifier.Verify(token)
		if err != nil {
			if errors.Is(err, utils.ErrExpired) {
				g.reject(c, metrics.DecisionExpired)
			} else {
				g.reject(c, metrics.DecisionInvalid)
			}
			return
		}

		userID := *claims.UserID
		c.Set(ContextUserID, userID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), userIDKey{}, userID))
		if g.identityHeader != "" {
			c.Header(g.identityHeader, strconv.FormatInt(userID, 10))
		}
		g.metrics.Gate(metrics.DecisionAllowed)
		c.Next()
	}
}

func (g *AccessGate) reject(c *gin.Context, decision string) {
	g.metrics.Gate(decision)
	g.log.Debug("request rejected", zap.String("path", c.Request.URL.Path), zap.String("decision", decision))
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// UserIDFromContext returns the identity stored by the gate.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey{}).(int64)
	return id, ok
}
