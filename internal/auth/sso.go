package auth

import (
	"context"
	"errors"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"

	"github.com/urbanfrill/storefront/internal/domain/user"
)

var (
	ErrSSODisabled = errors.New("single sign-on is not configured")
	ErrSSOToken    = errors.New("invalid single sign-on token")
)

// SSOVerifier turns a provider ID token into an identity.
type SSOVerifier interface {
	Verify(ctx context.Context, idToken string) (*user.Identity, error)
}

// idTokenVerifier is the part of the Firebase auth client we use.
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier verifies Firebase ID tokens (Google sign-in).
type FirebaseVerifier struct {
	client idTokenVerifier
}

func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*user.Identity, error) {
	if v == nil || v.client == nil {
		return nil, ErrSSODisabled
	}
	if idToken == "" {
		return nil, ErrSSOToken
	}

	tok, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSSOToken, err)
	}
	return identityFromToken(tok), nil
}

func identityFromToken(tok *fbauth.Token) *user.Identity {
	claim := func(name string) string {
		s, _ := tok.Claims[name].(string)
		return s
	}

	id := &user.Identity{
		UID:         tok.UID,
		Email:       user.NormalizeEmail(claim("email")),
		DisplayName: claim("name"),
		PhotoURL:    claim("picture"),
		Provider:    user.ProviderSSO,
	}
	if id.DisplayName == "" {
		id.DisplayName = user.DefaultDisplayName(id.Email)
	}
	return id
}
