package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"go.uber.org/zap"

	"github.com/andrewpaige1/memocards-api/auth"
	"github.com/andrewpaige1/memocards-api/config"
	"github.com/andrewpaige1/memocards-api/utils"
)

// CustomClaims holds the non-registered claims we read from access tokens.
type CustomClaims struct {
	Nickname string `json:"nickname"`
}

func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// EnsureValidToken validates the bearer token or session cookie of every
// request it wraps. Requests without a token pass through unauthenticated;
// requests with an invalid one are rejected.
func EnsureValidToken(cfg config.Config, log *zap.Logger) (func(http.Handler) http.Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}

	jwtValidator, err := newValidator(cfg)
	if err != nil {
		return nil, err
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Debug("Middleware: rejected token", zap.String("path", r.URL.Path), zap.Error(err))
		utils.WriteError(w, http.StatusUnauthorized, "Failed to validate JWT")
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
		jwtmiddleware.WithCredentialsOptional(true),
		jwtmiddleware.WithTokenExtractor(jwtmiddleware.MultiTokenExtractor(
			jwtmiddleware.AuthHeaderTokenExtractor,
			optionalCookie(jwtmiddleware.CookieTokenExtractor(auth.CookieName)),
		)),
	)

	return func(next http.Handler) http.Handler {
		return middleware.CheckJWT(next)
	}, nil
}

// optionalCookie treats a missing session cookie as no token.
func optionalCookie(extract jwtmiddleware.TokenExtractor) jwtmiddleware.TokenExtractor {
	return func(r *http.Request) (string, error) {
		token, err := extract(r)
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}
		return token, err
	}
}

func newValidator(cfg config.Config) (*validator.Validator, error) {
	customClaims := validator.WithCustomClaims(func() validator.CustomClaims {
		return &CustomClaims{}
	})
	skew := validator.WithAllowedClockSkew(time.Minute)

	switch cfg.AuthMode {
	case config.AuthModeAuth0:
		issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
		if err != nil {
			return nil, fmt.Errorf("failed to parse the issuer url: %w", err)
		}
		provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
		v, err := validator.New(
			provider.KeyFunc,
			validator.RS256,
			issuerURL.String(),
			[]string{cfg.Auth0Audience},
			customClaims,
			skew,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
		}
		return v, nil
	case config.AuthModeSession:
		secret := []byte(cfg.JWTSecretKey)
		keyFunc := func(context.Context) (interface{}, error) {
			return secret, nil
		}
		v, err := validator.New(
			keyFunc,
			validator.HS256,
			auth.Issuer,
			[]string{auth.Audience},
			customClaims,
			skew,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
}
