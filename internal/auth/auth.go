package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"demo-tools/internal/config"
)

var (
	ErrInvalidToken = errors.New("无效的token")
	ErrExpiredToken = errors.New("token已过期")
	ErrNoSecret     = errors.New("未配置JWT密钥")
)

// Claims JWT声明结构
type Claims struct {
	Client string `json:"client"`
	jwt.RegisteredClaims
}

// TokenService JWT token服务，探测端签发、模拟服务端校验
type TokenService struct {
	secret      []byte
	tokenExpiry time.Duration
	issuer      string
}

// NewTokenService 创建token服务实例
func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{
		secret:      []byte(cfg.JWTSecret),
		tokenExpiry: cfg.TokenExpiry,
		issuer:      cfg.Issuer,
	}
}

// Enabled 是否配置了签名密钥
func (ts *TokenService) Enabled() bool {
	return ts != nil && len(ts.secret) > 0
}

// GenerateToken 生成访问token
func (ts *TokenService) GenerateToken(subject, client string) (string, error) {
	if !ts.Enabled() {
		return "", ErrNoSecret
	}

	now := time.Now()
	claims := Claims{
		Client: client,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    ts.issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.secret)
}

// ValidateToken 验证token
func (ts *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	if !ts.Enabled() {
		return nil, ErrNoSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("意外的签名方法: %v", token.Header["alg"])
		}
		return ts.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
