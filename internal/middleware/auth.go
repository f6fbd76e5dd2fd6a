package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/hertz-contrib/jwt"

	"GeoAttend/pkg/errors"
	"GeoAttend/pkg/response"
	"GeoAttend/pkg/token"
)

var authMiddleware *jwt.HertzJWTMiddleware

// NewAuthMiddleware 只校验外部签发的 HS256 token，不提供登录接口
func NewAuthMiddleware(secret string, timeout time.Duration) (*jwt.HertzJWTMiddleware, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is empty")
	}

	return jwt.New(&jwt.HertzJWTMiddleware{
		Realm:            "GeoAttend API",
		SigningAlgorithm: "HS256",
		Key:              []byte(secret),
		Timeout:          timeout,
		MaxRefresh:       timeout,
		IdentityKey:      token.IdentityKey,
		TimeFunc:         time.Now,

		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims, err := token.FromMap(jwt.ExtractClaims(ctx, c))
			if err != nil {
				return nil
			}
			return claims
		},

		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			_, ok := data.(token.Claims)
			return ok
		},

		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			def := errors.Unauthorized
			if code == http.StatusForbidden {
				def = errors.Forbidden
			}
			response.Error(ctx, c, def.WithMessage(message))
		},

		TokenLookup:   "header: Authorization, query: token",
		TokenHeadName: "Bearer",
	})
}

func initAuthMiddleware(secret string, timeout time.Duration) error {
	mw, err := NewAuthMiddleware(secret, timeout)
	if err != nil {
		return err
	}
	authMiddleware = mw
	return nil
}

func AuthMiddleware() app.HandlerFunc {
	if authMiddleware == nil {
		panic("AuthMiddleware not initialized, call Init() first")
	}
	return authMiddleware.MiddlewareFunc()
}

// RequireRole 需放在 AuthMiddleware 之后
func RequireRole(role string) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		claims, ok := GetClaims(ctx, c)
		if !ok {
			response.Error(ctx, c, errors.Unauthorized)
			c.Abort()
			return
		}
		if claims.Role != role {
			response.Error(ctx, c, errors.Forbidden)
			c.Abort()
			return
		}
		c.Next(ctx)
	}
}

func GetClaims(ctx context.Context, c *app.RequestContext) (token.Claims, bool) {
	v, exists := c.Get(token.IdentityKey)
	if !exists {
		return token.Claims{}, false
	}
	claims, ok := v.(token.Claims)
	return claims, ok
}

// GetEmployeeID 当前请求的员工 ID
func GetEmployeeID(ctx context.Context, c *app.RequestContext) (string, bool) {
	claims, ok := GetClaims(ctx, c)
	if !ok || claims.EmployeeID == "" {
		return "", false
	}
	return claims.EmployeeID, true
}
