package repositories

import (
	"context"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"

	"github.com/checkmarble/kyc-backend/infra"
	"github.com/checkmarble/kyc-backend/models"
)

const defaultTokenLifetime = time.Hour

var sharedSecretAlgo = jwt.SigningMethodHS256

type oidcTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// JwtRepository validates the bearer tokens of the admin api and issues the tokens of
// the login endpoint. Once a JWKS uri is configured only the identity provider's tokens
// are accepted; the shared secret verifies tokens only when no JWKS uri is set.
type JwtRepository struct {
	verifier      oidcTokenVerifier
	sharedSecret  []byte
	audience      string
	issuer        string
	tokenLifetime time.Duration
}

func NewJwtRepository(ctx context.Context, config infra.AuthConfig) *JwtRepository {
	repo := &JwtRepository{
		sharedSecret:  []byte(config.SharedSecret),
		audience:      config.Audience,
		issuer:        config.Issuer,
		tokenLifetime: config.TokenLifetime,
	}
	if repo.tokenLifetime == 0 {
		repo.tokenLifetime = defaultTokenLifetime
	}

	if config.JwksUri != "" {
		keySet := oidc.NewRemoteKeySet(ctx, config.JwksUri)
		repo.verifier = oidc.NewVerifier(config.Issuer, keySet, &oidc.Config{
			ClientID:             config.Audience,
			SkipClientIDCheck:    config.Audience == "",
			SkipIssuerCheck:      config.Issuer == "",
			SupportedSigningAlgs: []string{oidc.RS256, oidc.ES256, oidc.PS256},
		})
	}
	return repo
}

func (repo *JwtRepository) Validate(ctx context.Context, token string) (models.Credentials, error) {
	if repo.verifier == nil && len(repo.sharedSecret) == 0 {
		return models.Credentials{}, models.ErrNoTokenKeyAvailable
	}

	var claims map[string]any
	var err error
	if repo.verifier != nil {
		claims, err = repo.validateIdentityProviderToken(ctx, token)
	} else {
		claims, err = repo.validateSharedSecretToken(token)
	}
	if err != nil {
		return models.Credentials{}, errors.Wrap(models.ErrInvalidToken, err.Error())
	}

	return AdaptCredentialsFromClaims(claims), nil
}

func (repo *JwtRepository) validateSharedSecretToken(token string) (map[string]any, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{sharedSecretAlgo.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if repo.audience != "" {
		opts = append(opts, jwt.WithAudience(repo.audience))
	}
	if repo.issuer != "" {
		opts = append(opts, jwt.WithIssuer(repo.issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return repo.sharedSecret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (repo *JwtRepository) validateIdentityProviderToken(ctx context.Context, token string) (map[string]any, error) {
	idToken, err := repo.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	claims := map[string]any{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// IssueToken signs a shared secret token for a registered user.
func (repo *JwtRepository) IssueToken(user models.User, now time.Time) (models.AccessToken, error) {
	if len(repo.sharedSecret) == 0 {
		return models.AccessToken{}, errors.Wrap(models.ErrNoTokenKeyAvailable, "login requires a shared secret")
	}

	expiresAt := now.Add(repo.tokenLifetime)
	claims := jwt.MapClaims{
		"sub":   user.Id,
		"email": user.Email,
		"name":  user.Name,
		"roles": user.Roles,
		"iat":   jwt.NewNumericDate(now),
		"exp":   jwt.NewNumericDate(expiresAt),
	}
	if repo.issuer != "" {
		claims["iss"] = repo.issuer
	}
	if repo.audience != "" {
		claims["aud"] = repo.audience
	}

	signed, err := jwt.NewWithClaims(sharedSecretAlgo, claims).SignedString(repo.sharedSecret)
	if err != nil {
		return models.AccessToken{}, errors.Wrap(err, "failed to sign token")
	}
	return models.AccessToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// AdaptCredentialsFromClaims reads the roles from the usual claims of the identity
// providers (roles, role, app_roles) and the is_admin flag.
func AdaptCredentialsFromClaims(claims map[string]any) models.Credentials {
	creds := models.Credentials{
		Subject: stringClaim(claims, "sub"),
		Email:   stringClaim(claims, "email"),
		Name:    stringClaim(claims, "name"),
	}

	for _, key := range []string{"roles", "role", "app_roles"} {
		if roles := stringsClaim(claims, key); len(roles) > 0 {
			creds.Roles = roles
			break
		}
	}
	isAdmin, _ := claims["is_admin"].(bool)
	creds.IsAdmin = isAdmin || slices.Contains(creds.Roles, models.RoleAdmin)

	creds.Actor = models.ActorDefaultAdmin
	for _, key := range []string{"sub", "oid", "preferred_username"} {
		if v := stringClaim(claims, key); v != "" {
			creds.Actor = v
			break
		}
	}
	return creds
}

func stringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}

func stringsClaim(claims map[string]any, key string) []string {
	switch v := claims[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
