package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
)

// Kind separates short-lived access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

const minSecretLength = 32

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Subject identifies who a token is minted for.
type Subject struct {
	UserID         int64
	OrganizationID int64
	Role           domain.Role
}

// SubjectOf builds the token subject from a stored user.
func SubjectOf(u domain.User) Subject {
	return Subject{UserID: u.ID, OrganizationID: u.OrganizationID, Role: u.Role}
}

// Claims is the decoded, validated token payload.
type Claims struct {
	ID             string
	UserID         int64
	OrganizationID int64
	Role           domain.Role
	Kind           Kind
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

// Pair is an access token with its companion refresh token.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

type customClaims struct {
	OrgID string `json:"org_id"`
	Role  string `json:"role"`
	Type  string `json:"type"`
}

// Generator is responsible for signing and validating JWTs.
type Generator struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewGenerator constructs an HS256 generator.
func NewGenerator(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) (*Generator, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("jwt ttl must be positive")
	}
	return &Generator{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source used for issuing and validating.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	clone := *g
	clone.now = now
	return &clone
}

// TTL returns the lifetime configured for kind.
func (g *Generator) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return g.refreshTTL
	}
	return g.accessTTL
}

// Issue produces a signed compact JWS for subject.
func (g *Generator) Issue(kind Kind, subject Subject) (string, error) {
	if kind != KindAccess && kind != KindRefresh {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}

	signer, err := gojose.NewSigner(gojose.SigningKey{Algorithm: gojose.HS256, Key: g.secret}, (&gojose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := g.now().UTC()
	std := gojwt.Claims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(subject.UserID, 10),
		Issuer:    g.issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		NotBefore: gojwt.NewNumericDate(now),
		Expiry:    gojwt.NewNumericDate(now.Add(g.TTL(kind))),
	}
	custom := customClaims{
		OrgID: strconv.FormatInt(subject.OrganizationID, 10),
		Role:  string(subject.Role),
		Type:  string(kind),
	}

	token, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize jwt: %w", err)
	}
	return token, nil
}

// IssuePair mints an access and a refresh token for subject.
func (g *Generator) IssuePair(subject Subject) (Pair, error) {
	access, err := g.Issue(KindAccess, subject)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := g.Issue(KindRefresh, subject)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh, ExpiresIn: g.accessTTL}, nil
}

// Parse verifies the signature and time window of token and returns its claims.
// Expired tokens yield ErrTokenExpired, every other failure ErrTokenInvalid.
func (g *Generator) Parse(token string) (*Claims, error) {
	parsed, err := gojwt.ParseSigned(token, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	var (
		std    gojwt.Claims
		custom customClaims
	)
	if err := parsed.Claims(g.secret, &std, &custom); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if err := std.ValidateWithLeeway(gojwt.Expected{Issuer: g.issuer, Time: g.now()}, 0); err != nil {
		if errors.Is(err, gojwt.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if std.Expiry == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrTokenInvalid)
	}

	userID, err := strconv.ParseInt(std.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: subject", ErrTokenInvalid)
	}
	orgID, err := strconv.ParseInt(custom.OrgID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: org_id", ErrTokenInvalid)
	}
	kind := Kind(custom.Type)
	if kind != KindAccess && kind != KindRefresh {
		return nil, fmt.Errorf("%w: type", ErrTokenInvalid)
	}

	claims := &Claims{
		ID:             std.ID,
		UserID:         userID,
		OrganizationID: orgID,
		Role:           domain.Role(custom.Role),
		Kind:           kind,
		ExpiresAt:      std.Expiry.Time(),
	}
	if std.IssuedAt != nil {
		claims.IssuedAt = std.IssuedAt.Time()
	}
	return claims, nil
}
