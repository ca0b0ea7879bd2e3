package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/File-Sharing-BondBridg/Drive-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"github.com/coreos/go-oidc"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Claims are the token fields the API relies on.
type Claims struct {
	Subject string
	Azp     string
	Expiry  time.Time
}

type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (Claims, error)
}

// RevocationChecker reports whether a token was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) bool
}

type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer's keys. The audience is checked
// through azp in RequireAuth, so the client ID check is skipped here.
func NewOIDCVerifier(ctx context.Context, issuerURL string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, err
	}
	logging.L().Info("[AUTH] OIDC verifier initialized", zap.String("issuer", issuerURL))
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true})}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (Claims, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Claims{}, err
	}

	var extra struct {
		Azp string `json:"azp"`
	}
	if err := idToken.Claims(&extra); err != nil {
		return Claims{}, err
	}
	return Claims{Subject: idToken.Subject, Azp: extra.Azp, Expiry: idToken.Expiry}, nil
}

// RequireAuth validates the bearer token, checks it was issued to clientID
// and has not been revoked, then stores the caller's identity on the
// context. revoked may be nil.
func RequireAuth(verifier TokenVerifier, clientID string, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logging.WithContext(c.Request.Context())

		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth"})
			return
		}

		tokenStr := strings.TrimPrefix(auth, "Bearer ")
		if tokenStr == auth || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid format"})
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), tokenStr)
		if err != nil {
			log.Info("[AUTH] verify failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if claims.Azp != clientID {
			log.Info("[AUTH] rejected client", zap.String("azp", claims.Azp), zap.String("expected", clientID))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid client"})
			return
		}

		if revoked != nil && revoked.IsRevoked(c.Request.Context(), tokenStr) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}

		c.Set(handlers.UserIDKey, claims.Subject)
		c.Set(handlers.TokenKey, tokenStr)
		c.Set(handlers.TokenExpiryKey, claims.Expiry)
		c.Request = c.Request.WithContext(logging.NewContext(c.Request.Context(), log.With(zap.String("user_id", claims.Subject))))
		c.Next()
	}
}
