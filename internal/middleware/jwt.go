package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/policy"
)

const actorKey = "actor"

type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWT issues and verifies HS256 session tokens.
type JWT struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewJWT(secret string, ttl time.Duration, issuer string) *JWT {
	return &JWT{secret: []byte(secret), ttl: ttl, issuer: issuer}
}

func (j *JWT) Issue(userID string, role models.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

func (j *JWT) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ActorResolver loads the profile behind a verified identity.
type ActorResolver interface {
	ResolveActor(ctx context.Context, identityID string) (policy.Actor, error)
}

// RequireAuth verifies the bearer token, resolves the caller's profile and
// stores it in the context. Websocket clients that cannot set headers may
// pass the token as ?token=.
func RequireAuth(j *JWT, resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			abort(c, apperr.NewUnauthenticated("Missing or invalid Authorization header"))
			return
		}
		claims, err := j.Parse(tokenString)
		if err != nil {
			abort(c, apperr.NewUnauthenticated("Invalid or expired token"))
			return
		}

		actor, err := resolver.ResolveActor(c.Request.Context(), claims.UserID)
		if err != nil {
			abort(c, err)
			return
		}

		// Store the resolved actor for downstream handlers
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the actor stored by RequireAuth.
func ActorFrom(c *gin.Context) policy.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(policy.Actor); ok {
			return actor
		}
	}
	return policy.Actor{}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("token")
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
}
