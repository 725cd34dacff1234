package validator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"basavo/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/lestrrat-go/jwx/jwt"
)

type key string

const identityKey key = "identity"

// Identity is the provider-issued identity the session resolver consumes.
type Identity struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
}

func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

// WithIdentity returns a context carrying the verified identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

var (
	ErrNoAuthHeader      = errors.New("Authorization header is missing")
	ErrInvalidAuthHeader = errors.New("Authorization header is malformed")
	ErrTokenInvalid      = errors.New("ID token is invalid")
)

// GetBearerFromRequest extracts the raw token from an
// Authorization: Bearer <token> header.
func GetBearerFromRequest(req *http.Request) (string, error) {
	authHdr := req.Header.Get("Authorization")
	if authHdr == "" {
		return "", ErrNoAuthHeader
	}
	// We expect a header value of the form "Bearer <token>", with 1 space after
	// Bearer, per RFC 6750.
	prefix := "Bearer "
	if !strings.HasPrefix(authHdr, prefix) {
		return "", ErrInvalidAuthHeader
	}
	return strings.TrimPrefix(authHdr, prefix), nil
}

const googleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// Verifier checks Google ID tokens against Google's published JWKS. The
// key set is cached and refreshed on an interval rather than per request.
type Verifier struct {
	clientID string
	certsURL string
	client   *resty.Client

	mu        sync.RWMutex
	keys      jwk.Set
	fetchedAt time.Time
}

const keyRefreshInterval = time.Hour

func NewVerifier(clientID string) *Verifier {
	return &Verifier{
		clientID: clientID,
		certsURL: googleCertsURL,
		client:   resty.New().SetTimeout(10 * time.Second),
	}
}

// Verify parses and validates a raw ID token and maps its claims onto an
// Identity. Any provider or network failure is a RemoteError; a bad token
// is ErrTokenInvalid.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	set, err := v.keySet(ctx)
	if err != nil {
		return nil, apperr.Remote("fetch provider keys", err)
	}
	return verifyWithSet([]byte(raw), set, v.clientID)
}

func (v *Verifier) keySet(ctx context.Context) (jwk.Set, error) {
	v.mu.RLock()
	if v.keys != nil && time.Since(v.fetchedAt) < keyRefreshInterval {
		defer v.mu.RUnlock()
		return v.keys, nil
	}
	v.mu.RUnlock()

	resp, err := v.client.R().SetContext(ctx).Get(v.certsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch jwks: status %d", resp.StatusCode())
	}
	set, err := jwk.Parse(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("parse jwks: %w", err)
	}

	v.mu.Lock()
	v.keys = set
	v.fetchedAt = time.Now()
	v.mu.Unlock()
	return set, nil
}

func verifyWithSet(raw []byte, set jwk.Set, clientID string) (*Identity, error) {
	tok, err := jwt.Parse(raw,
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
		jwt.WithAudience(clientID),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	issuerOK := false
	for _, iss := range googleIssuers {
		if tok.Issuer() == iss {
			issuerOK = true
			break
		}
	}
	if !issuerOK {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrTokenInvalid, tok.Issuer())
	}
	if tok.Subject() == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return identityFromToken(tok), nil
}

func identityFromToken(tok jwt.Token) *Identity {
	id := &Identity{UID: tok.Subject()}
	if email, ok := tok.Get("email"); ok {
		id.Email, _ = email.(string)
	}
	if name, ok := tok.Get("name"); ok {
		id.DisplayName, _ = name.(string)
	}
	if picture, ok := tok.Get("picture"); ok {
		id.PhotoURL, _ = picture.(string)
	}
	return id
}

// Middleware authenticates a request and stores the verified Identity on
// the request context so handlers and services can read it back with
// FromContext.
func Middleware(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := GetBearerFromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		id, err := v.Verify(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
