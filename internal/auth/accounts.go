package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/urbanfrill/storefront/internal/domain/user"
	"github.com/urbanfrill/storefront/internal/infrastructure/store"
)

// Account is a password credential, stored under accounts/<lower(email)>.
type Account struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    string `json:"createdAt"`
}

func (a *Account) Identity() *user.Identity {
	return &user.Identity{
		UID:         a.UID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		Provider:    user.ProviderPassword,
	}
}

// Accounts registers and authenticates email/password shoppers.
type Accounts struct {
	docs   store.DocumentStore
	hasher *Hasher
	// serializes the check-then-create in Register within this process
	mu sync.Mutex
}

// NewAccounts uses a default-cost Hasher when hasher is nil.
func NewAccounts(docs store.DocumentStore, hasher *Hasher) *Accounts {
	if hasher == nil {
		hasher = NewHasher(0)
	}
	return &Accounts{docs: docs, hasher: hasher}
}

// Register creates an account. An empty displayName defaults to the local
// part of the email.
func (a *Accounts) Register(ctx context.Context, email, password, displayName string) (*user.Identity, error) {
	email = user.NormalizeEmail(email)
	if !user.IsValidEmail(email) {
		return nil, user.ErrInvalidEmail
	}

	passwordHash, err := a.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = user.DefaultDisplayName(email)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var existing Account
	err = a.docs.Get(ctx, store.CollectionAccounts, email, &existing)
	switch {
	case err == nil:
		return nil, user.ErrEmailTaken
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	acct := Account{
		UID:          uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    user.Timestamp(time.Now()),
	}
	if err := a.docs.Set(ctx, store.CollectionAccounts, email, acct); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}

	return acct.Identity(), nil
}

// Authenticate checks the credentials. Unknown emails and wrong passwords
// both yield user.ErrInvalidCredentials.
func (a *Accounts) Authenticate(ctx context.Context, email, password string) (*user.Identity, error) {
	var acct Account
	err := a.docs.Get(ctx, store.CollectionAccounts, user.NormalizeEmail(email), &acct)
	if errors.Is(err, store.ErrNotFound) {
		a.hasher.Check(password, "")
		return nil, user.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if !a.hasher.Check(password, acct.PasswordHash) {
		return nil, user.ErrInvalidCredentials
	}
	return acct.Identity(), nil
}
