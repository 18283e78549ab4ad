package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	clerk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
	"github.com/clerk/clerk-sdk-go/v2/user"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/logger"
)

type contextKey string

const IdentityKey contextKey = "identity"

var errMissingToken = errors.New("authorization header required")

// Verifier checks a bearer token with the identity provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (*habit.Identity, error)
}

// ClerkVerifier verifies Clerk session tokens. clerk.SetKey must have been
// called before use.
type ClerkVerifier struct{}

func (ClerkVerifier) Verify(ctx context.Context, token string) (*habit.Identity, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
	if err != nil {
		return nil, err
	}

	id := &habit.Identity{UID: claims.Subject}
	u, err := user.Get(ctx, claims.Subject)
	if err != nil {
		// The token is valid; a profile lookup failure only loses the extras.
		logger.Warn("clerk profile lookup failed", "uid", claims.Subject, "error", err)
		return id, nil
	}
	fillClerkProfile(id, u)
	return id, nil
}

func fillClerkProfile(id *habit.Identity, u *clerk.User) {
	for _, e := range u.EmailAddresses {
		if e == nil {
			continue
		}
		if id.Email == "" || (u.PrimaryEmailAddressID != nil && e.ID == *u.PrimaryEmailAddressID) {
			id.Email = e.EmailAddress
		}
	}

	var parts []string
	if u.FirstName != nil && *u.FirstName != "" {
		parts = append(parts, *u.FirstName)
	}
	if u.LastName != nil && *u.LastName != "" {
		parts = append(parts, *u.LastName)
	}
	id.DisplayName = strings.Join(parts, " ")
	if id.DisplayName == "" && u.Username != nil {
		id.DisplayName = *u.Username
	}
	if u.ImageURL != nil {
		id.PhotoURL = *u.ImageURL
	}
}

// FirebaseVerifier verifies Firebase ID tokens.
type FirebaseVerifier struct {
	Client *auth.Client
}

func (v FirebaseVerifier) Verify(ctx context.Context, token string) (*habit.Identity, error) {
	t, err := v.Client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &habit.Identity{
		UID:         t.UID,
		Email:       claimString(t.Claims, "email"),
		DisplayName: claimString(t.Claims, "name"),
		PhotoURL:    claimString(t.Claims, "picture"),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// AuthMiddleware validates the bearer token and stores the identity in the
// request context.
func AuthMiddleware(v Verifier) func(http.Handler) http.Handler {
	return authenticate(v, BearerToken)
}

// WebsocketAuthMiddleware is AuthMiddleware for websocket upgrades. Browsers
// cannot set headers on them, so the "token" query parameter is accepted
// when no Authorization header is present.
func WebsocketAuthMiddleware(v Verifier) func(http.Handler) http.Handler {
	return authenticate(v, func(r *http.Request) (string, error) {
		if r.Header.Get("Authorization") == "" {
			if t := r.URL.Query().Get("token"); t != "" {
				return t, nil
			}
		}
		return BearerToken(r)
	})
}

func authenticate(v Verifier, extract func(*http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extract(r)
			if err != nil {
				authRejections.WithLabelValues("missing_token").Inc()
				respondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}

			id, err := v.Verify(r.Context(), token)
			if err != nil {
				logger.Warn("token verification failed", "path", r.URL.Path, "error", err)
				authRejections.WithLabelValues("invalid_token").Inc()
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader || token == "" {
		return "", errors.New("invalid authorization format. Use 'Bearer <token>'")
	}
	return token, nil
}

// GetIdentity extracts the verified identity from context.
func GetIdentity(ctx context.Context) (*habit.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(*habit.Identity)
	return id, ok
}

// GetUserID returns the uid of the verified identity, or "".
func GetUserID(ctx context.Context) string {
	if id, ok := GetIdentity(ctx); ok {
		return id.UID
	}
	return ""
}

// WithIdentity returns ctx carrying id, for callers that authenticate
// outside AuthMiddleware.
func WithIdentity(ctx context.Context, id *habit.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(fmt.Sprintf(`{"error": %q}`, message)))
}
