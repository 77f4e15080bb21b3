package tokenware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// HeaderAuthToken is the header clients send their access token in
const HeaderAuthToken = "x-auth-token"

var (
	defaultTokenLookup = "header:" + HeaderAuthToken
	// ErrTokenMissing is passed to the ErrorHandler when no extractor finds a token
	ErrTokenMissing = errors.New("missing auth token")
)

// Resolver turns a raw token into a principal
type Resolver[P any] interface {
	Resolve(ctx context.Context, token string) (P, error)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc[P any] func(ctx context.Context, token string) (P, error)

// Resolve implements Resolver
func (f ResolverFunc[P]) Resolve(ctx context.Context, token string) (P, error) {
	return f(ctx, token)
}

type Config[P any] struct {
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler
	// Resolver is required
	Resolver Resolver[P]
	// Require runs after resolution; a non nil error rejects the request.
	Require    func(P) error
	ContextKey string
	// TokenLookup is a comma separated list of source:name pairs, e.g.
	// "header:x-auth-token,query:token"
	TokenLookup string
	// AuthScheme is stripped from header values when set, e.g. "Bearer"
	AuthScheme string
	// ContextEnricher propagates the principal to the request's user context
	ContextEnricher func(ctx context.Context, principal P) context.Context
}

// New returns a fiber handler that resolves the principal and stores it
// under ContextKey.
func New[P any](config ...Config[P]) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw := ExtractRawToken(c, cfg.getExtractors())
		if raw == "" {
			return cfg.ErrorHandler(c, ErrTokenMissing)
		}

		principal, err := cfg.Resolver.Resolve(c.UserContext(), raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if cfg.Require != nil {
			if err := cfg.Require(principal); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		c.Locals(cfg.ContextKey, principal)

		if cfg.ContextEnricher != nil {
			c.SetUserContext(cfg.ContextEnricher(c.UserContext(), principal))
		}

		return cfg.SuccessHandler(c)
	}
}

// Principal reads the value stored by the middleware
func Principal[P any](c *fiber.Ctx, key string) (P, bool) {
	var zero P
	if key == "" {
		key = "caller"
	}
	raw := c.Locals(key)
	if raw == nil {
		return zero, false
	}
	p, ok := raw.(P)
	return p, ok
}

func GetDefaultConfig[P any](config ...Config[P]) (cfg Config[P]) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.Resolver == nil {
		panic("LIBRARY: token middleware configuration: Resolver is required.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "caller"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	return cfg
}

func (cfg *Config[P]) getExtractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

// ExtractRawToken returns the first token any extractor finds
func ExtractRawToken(c *fiber.Ctx, extractors []TokenExtractor) string {
	for _, extractor := range extractors {
		if raw := extractor(c); raw != "" {
			return raw
		}
	}
	return ""
}

type TokenExtractor func(c *fiber.Ctx) string

func GetExtractors(tokenLookup string, authScheme string) []TokenExtractor {
	extractors := make([]TokenExtractor, 0)

	// header:x-auth-token,cookie:token,query:token
	for _, rootPart := range strings.Split(tokenLookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}
		source, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])

		switch source {
		case "header":
			extractors = append(extractors, tokenFromHeader(name, authScheme))
		case "query":
			extractors = append(extractors, tokenFromQuery(name))
		case "cookie":
			extractors = append(extractors, tokenFromCookie(name))
		}
	}

	return extractors
}

func tokenFromHeader(header, authScheme string) TokenExtractor {
	authScheme = strings.TrimSpace(authScheme)
	return func(c *fiber.Ctx) string {
		v := strings.TrimSpace(c.Get(header))
		if authScheme == "" {
			return v
		}
		l := len(authScheme)
		if len(v) > l+1 && strings.EqualFold(v[:l], authScheme) {
			return strings.TrimSpace(v[l:])
		}
		return ""
	}
}

func tokenFromQuery(param string) TokenExtractor {
	return func(c *fiber.Ctx) string {
		return c.Query(param)
	}
}

func tokenFromCookie(name string) TokenExtractor {
	return func(c *fiber.Ctx) string {
		return c.Cookies(name)
	}
}
