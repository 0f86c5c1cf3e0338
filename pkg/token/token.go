package token

import (
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"DriverOnboard/config"
	"DriverOnboard/pkg/errors"
)

const (
	IdentityKey = "did"
	PhoneKey    = "phone"
)

var (
	ErrNotInitialized = stderrors.New("token generator is not initialized")
	ErrUnexpectedAlg  = stderrors.New("unexpected signing method")
)

// Generator 开发后端签发和校验 access token
type Generator struct {
	key     []byte
	timeout time.Duration
	now     func() time.Time
}

var (
	shared *Generator
	mu     sync.RWMutex
)

func New(secret string, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = time.Hour
	}
	return &Generator{key: []byte(secret), timeout: timeout, now: time.Now}
}

// Init 用配置初始化共享生成器，middleware 依赖它
func Init() error {
	if config.Cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is empty")
	}

	mu.Lock()
	defer mu.Unlock()
	shared = New(config.Cfg.JWTSecret, time.Duration(config.Cfg.JWTExpireMinutes)*time.Minute)
	return nil
}

// Default 共享生成器，未初始化时为 nil
func Default() *Generator {
	mu.RLock()
	defer mu.RUnlock()
	return shared
}

// Generate 签发 access token，返回 token 和剩余秒数
func (g *Generator) Generate(driverID, phone string) (string, int, error) {
	if g == nil {
		return "", 0, ErrNotInitialized
	}

	now := g.now()
	expiresAt := now.Add(g.timeout)

	claims := jwtv5.MapClaims{
		IdentityKey: driverID,
		PhoneKey:    phone,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}

	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(g.key)
	if err != nil {
		return "", 0, fmt.Errorf("failed to generate access token: %w", err)
	}

	return signed, int(g.timeout.Seconds()), nil
}

// Validate 校验 access token 并返回 driverId
func (g *Generator) Validate(tokenString string) (string, error) {
	if g == nil {
		return "", ErrNotInitialized
	}

	tok, err := jwtv5.Parse(tokenString, func(t *jwtv5.Token) (interface{}, error) {
		if t.Method != jwtv5.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v, expected HS256", ErrUnexpectedAlg, t.Header["alg"])
		}
		return g.key, nil
	}, jwtv5.WithTimeFunc(g.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.Unauthorized, err)
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok || !tok.Valid {
		return "", errors.Unauthorized
	}

	did, ok := claims[IdentityKey].(string)
	if !ok || did == "" {
		return "", errors.Unauthorized
	}
	return did, nil
}
