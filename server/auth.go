package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken 握手令牌无效（缺失、伪造、过期、类型不符统一归为此类）
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity 握手认证通过后附着在连接上的身份
type Identity struct {
	Username string
	Role     string
}

// TokenVerifier 校验 HS256 签发的访问令牌
// 声明约定：sub=用户名, role=角色, type=access/refresh，只放行 access
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify 校验签名、有效期与令牌类型，返回身份
func (v *TokenVerifier) Verify(token string) (Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	// 刷新令牌不允许建立连接
	if typ, _ := claims["type"].(string); typ != "access" {
		return Identity{}, ErrInvalidToken
	}
	username, _ := claims["sub"].(string)
	if username == "" {
		return Identity{}, ErrInvalidToken
	}
	role, _ := claims["role"].(string)
	return Identity{Username: username, Role: role}, nil
}

// bearerToken 从 Authorization 头提取令牌；浏览器 WebSocket 无法带自定义头，
// 兜底支持 ?token= 查询参数
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return r.URL.Query().Get("token")
}
