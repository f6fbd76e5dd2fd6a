package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// token 由外部认证服务签发，本服务只校验；Sign 仅用于本地联调和测试
const (
	IdentityKey = "uid"
	RoleKey     = "role"

	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

var (
	ErrUnexpectedSigningMethod = errors.New("unexpected signing method")
	ErrInvalidToken            = errors.New("invalid token")
	ErrEmployeeIDNotFound      = errors.New("employee id not found in token")
)

// Claims 本服务关心的 token 字段
type Claims struct {
	EmployeeID string
	Role       string
}

func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// FromMap 从 jwt claims 中解析员工身份，数字类型的 uid 也接受
func FromMap(claims map[string]interface{}) (Claims, error) {
	var out Claims

	switch uid := claims[IdentityKey].(type) {
	case string:
		out.EmployeeID = uid
	case float64:
		out.EmployeeID = strconv.FormatFloat(uid, 'f', 0, 64)
	}
	if out.EmployeeID == "" {
		return Claims{}, ErrEmployeeIDNotFound
	}

	out.Role, _ = claims[RoleKey].(string)
	if out.Role == "" {
		out.Role = RoleEmployee
	}

	return out, nil
}

// Sign 签发 HS256 token
func Sign(secret, employeeID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtv5.MapClaims{
		IdentityKey: employeeID,
		RoleKey:     role,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}

	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse 校验签名与过期时间并返回身份
func Parse(secret, tokenString string) (Claims, error) {
	parsed, err := jwtv5.ParseWithClaims(tokenString, jwtv5.MapClaims{}, func(t *jwtv5.Token) (interface{}, error) {
		if t.Method != jwtv5.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v, expected HS256", ErrUnexpectedSigningMethod, t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwtv5.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	return FromMap(mapClaims)
}
