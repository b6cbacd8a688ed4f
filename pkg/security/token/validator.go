package token

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

// Issuer signs access tokens.
type Issuer interface {
	Issue(subject, role string) (string, error)
}

// Validator verifies tokens and returns their claims.
type Validator interface {
	Validate(token string) (*Claims, error)
}

// Keys holds a v4 public key pair; Secret is absent on verify-only services.
type Keys struct {
	Secret *paseto.V4AsymmetricSecretKey
	Public paseto.V4AsymmetricPublicKey
}

// LoadKeys decodes the configured keys. With neither key configured a fresh
// pair is generated; tokens then do not survive a restart.
func LoadKeys(conf Config) (Keys, bool, error) {
	if conf.SecretKey != "" {
		secret, err := paseto.NewV4AsymmetricSecretKeyFromHex(conf.SecretKey)
		if err != nil {
			return Keys{}, false, fmt.Errorf("%w: secret key: %w", ErrInvalidKey, err)
		}
		return Keys{Secret: &secret, Public: secret.Public()}, false, nil
	}
	if conf.PublicKey != "" {
		public, err := paseto.NewV4AsymmetricPublicKeyFromHex(conf.PublicKey)
		if err != nil {
			return Keys{}, false, fmt.Errorf("%w: public key: %w", ErrInvalidKey, err)
		}
		return Keys{Public: public}, false, nil
	}
	secret := paseto.NewV4AsymmetricSecretKey()
	return Keys{Secret: &secret, Public: secret.Public()}, true, nil
}

type pasetoIssuer struct {
	secret paseto.V4AsymmetricSecretKey
	ttl    time.Duration
	now    func() time.Time
}

func newIssuer(keys Keys, ttl time.Duration, now func() time.Time) (Issuer, error) {
	if keys.Secret == nil {
		return nil, fmt.Errorf("%w: signing requires a secret key", ErrInvalidKey)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &pasetoIssuer{secret: *keys.Secret, ttl: ttl, now: now}, nil
}

func (i *pasetoIssuer) Issue(subject, role string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("token subject is required")
	}
	now := i.now()

	t := paseto.NewToken()
	t.SetSubject(subject)
	t.SetString("role", role)
	t.SetString("type", accessTokenType)
	t.SetIssuedAt(now)
	t.SetNotBefore(now)
	t.SetExpiration(now.Add(i.ttl))

	return t.V4Sign(i.secret, nil), nil
}

type pasetoValidator struct {
	public paseto.V4AsymmetricPublicKey
	now    func() time.Time
}

func newValidator(keys Keys, now func() time.Time) Validator {
	if now == nil {
		now = time.Now
	}
	return &pasetoValidator{public: keys.Public, now: now}
}

// Validate returns ErrExpiredToken for a well-signed token past its expiry and
// ErrInvalidToken for anything else that fails verification.
func (v *pasetoValidator) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	// expiry is checked below so that it can be told apart from a bad signature
	parser := paseto.NewParserWithoutExpiryCheck()
	t, err := parser.ParseV4Public(v.public, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	subject, err := t.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrInvalidToken
	}
	if tokenType, _ := t.GetString("type"); tokenType != accessTokenType {
		return nil, ErrInvalidToken
	}
	exp, err := t.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}
	role, _ := t.GetString("role")
	iat, _ := t.GetIssuedAt()

	claims := &Claims{
		UserID:    subject,
		Role:      role,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}
	if claims.IsExpired(v.now()) {
		return nil, ErrExpiredToken
	}
	if nbf, err := t.GetNotBefore(); err == nil && v.now().Before(nbf) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
