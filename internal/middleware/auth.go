package middleware

import (
	"net/http"
	"strings"

	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/apierror"
	"github.com/DominidM/MKapu-Import-Frontend-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ClaimsKey = "claims"
	TokenKey  = "bearer_token"
)

// JWTClaims are the custom claims the central auth service embeds in every
// access token. SedeID is the user's home headquarters.
type JWTClaims struct {
	UserID   int64   `json:"user_id"`
	Username string  `json:"username"`
	RolID    int64   `json:"rol_id"`
	Rol      string  `json:"rol"`
	SedeID   *string `json:"sede_id"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer token on every protected route. The raw token
// is kept on the context so outbound transfer calls can forward it.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, tokenStr)
		c.Next()
	}
}

// RequireRole rejects requests whose resolved transfer role is not in the
// allowed list. Roles here are the protocol's acting roles, not raw claim
// values — the mapping mirrors the one applied to outbound calls. This is a
// UX guard only; the logistics service re-checks authorization itself.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !allowed[service.MapRole(claims.RolID, claims.Rol)] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
// Returns nil when the request never went through JWTAuth.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}

// SessionFrom builds the transfer session context for the current request.
func SessionFrom(c *gin.Context) service.Session {
	claims := GetClaims(c)
	if claims == nil {
		return service.Session{}
	}

	sede := ""
	if claims.SedeID != nil {
		sede = *claims.SedeID
	}
	return service.Session{
		UserID:         claims.UserID,
		Role:           service.MapRole(claims.RolID, claims.Rol),
		HeadquartersID: sede,
		Token:          c.GetString(TokenKey),
	}
}
