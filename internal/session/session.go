// Package session tracks which shopper is signed in on a device and tells
// subscribers, synchronously, whenever that changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/auth"
	"github.com/urbanfrill/storefront/internal/domain/user"
	"github.com/urbanfrill/storefront/internal/infrastructure/blob"
	"github.com/urbanfrill/storefront/internal/profile"
)

// MaxPictureSize is the largest accepted profile picture.
const MaxPictureSize = 5 << 20

var (
	ErrNotSignedIn   = errors.New("not signed in")
	ErrNotAnImage    = errors.New("file must be an image")
	ErrImageTooLarge = errors.New("image must be 5MB or smaller")
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Listener receives the new identity (nil after sign-out).
type Listener func(ctx context.Context, next *user.Identity)

// Accounts authenticates password shoppers.
type Accounts interface {
	Register(ctx context.Context, email, password, displayName string) (*user.Identity, error)
	Authenticate(ctx context.Context, email, password string) (*user.Identity, error)
}

// Profiles is the profile document store used by sessions.
type Profiles interface {
	Ensure(ctx context.Context, id *user.Identity) error
	Get(ctx context.Context, uid string) (*user.Profile, error)
	SetPhoto(ctx context.Context, uid, url, path string) error
}

// Deps are the collaborators shared by every device's session.
type Deps struct {
	Accounts Accounts
	SSO      auth.SSOVerifier
	Profiles Profiles
	Files    blob.Store
	Logger   *zap.Logger
	Now      func() time.Time
}

// Picture is an uploaded profile picture.
type Picture struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Session struct {
	device string
	deps   *Deps
	logger *zap.Logger

	// transition serializes identity changes so listeners observe them in order.
	transition sync.Mutex

	mu        sync.RWMutex
	current   *user.Identity
	listeners []Listener
}

func New(device string, deps *Deps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Session{
		device: device,
		deps:   deps,
		logger: deps.Logger.With(zap.String("device", device)),
	}
}

// Current returns a copy of the signed-in identity, or nil.
func (s *Session) Current() *user.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Subscribe registers l. Listeners run in registration order on the
// goroutine that changed the identity. The returned func unregisters l.
func (s *Session) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, l)
	idx := len(s.listeners) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners[idx] = nil
	}
}

func (s *Session) SignUp(ctx context.Context, email, password, displayName string) (*user.Identity, error) {
	id, err := s.deps.Accounts.Register(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}
	s.ensureProfile(ctx, id)
	s.set(ctx, id)
	return id.Clone(), nil
}

func (s *Session) Login(ctx context.Context, email, password string) (*user.Identity, error) {
	id, err := s.deps.Accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.withStoredPhoto(ctx, id)
	s.set(ctx, id)
	return id.Clone(), nil
}

// LoginSSO signs in with a provider ID token.
func (s *Session) LoginSSO(ctx context.Context, idToken string) (*user.Identity, error) {
	if s.deps.SSO == nil {
		return nil, auth.ErrSSODisabled
	}
	id, err := s.deps.SSO.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	s.ensureProfile(ctx, id)
	s.withStoredPhoto(ctx, id)
	s.set(ctx, id)
	return id.Clone(), nil
}

func (s *Session) Logout(ctx context.Context) {
	s.set(ctx, nil)
}

// Restore re-establishes the identity carried by a request token. nil signs
// the device out.
func (s *Session) Restore(ctx context.Context, id *user.Identity) {
	s.set(ctx, id.Clone())
}

// UpdateProfilePicture uploads pic, points the profile at it and then removes
// the previous picture. Failing to remove the old file does not fail the
// update.
func (s *Session) UpdateProfilePicture(ctx context.Context, pic Picture) (*user.Identity, error) {
	current := s.Current()
	if current == nil {
		return nil, ErrNotSignedIn
	}
	if !strings.HasPrefix(strings.ToLower(pic.ContentType), "image/") {
		return nil, ErrNotAnImage
	}
	if pic.Size > MaxPictureSize {
		return nil, ErrImageTooLarge
	}

	previous := ""
	if p, err := s.deps.Profiles.Get(ctx, current.UID); err == nil {
		previous = p.PhotoPath
	} else if !errors.Is(err, profile.ErrProfileNotFound) {
		s.logger.Warn("Could not read previous profile picture", zap.String("uid", current.UID), zap.Error(err))
	}

	path := fmt.Sprintf("profilePictures/%s/%d_%s", current.UID, s.deps.Now().UnixMilli(), sanitizeName(pic.Name))
	url, err := s.deps.Files.Upload(ctx, path, pic.ContentType, pic.Body, pic.Size)
	if err != nil {
		return nil, fmt.Errorf("upload profile picture: %w", err)
	}

	if err := s.deps.Profiles.SetPhoto(ctx, current.UID, url, path); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.PhotoURL = url
	s.set(ctx, next)

	if previous != "" && previous != path {
		if err := s.deps.Files.Delete(ctx, previous); err != nil {
			s.logger.Warn("Old profile picture cleanup failed",
				zap.String("uid", current.UID),
				zap.String("path", previous),
				zap.Error(err),
			)
		}
	}

	return next, nil
}

// set installs next and notifies listeners when the uid changed. Updates
// that keep the uid (a new photo, a refreshed token) are silent.
func (s *Session) set(ctx context.Context, next *user.Identity) {
	s.transition.Lock()
	defer s.transition.Unlock()

	s.mu.Lock()
	changed := !user.SameUser(s.current, next)
	s.current = next
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, l := range listeners {
		if l != nil {
			l(ctx, next.Clone())
		}
	}
}

func (s *Session) ensureProfile(ctx context.Context, id *user.Identity) {
	if err := s.deps.Profiles.Ensure(ctx, id); err != nil {
		s.logger.Warn("Profile upsert failed", zap.String("uid", id.UID), zap.Error(err))
	}
}

// withStoredPhoto fills PhotoURL from the profile document when the sign-in
// method did not carry one.
func (s *Session) withStoredPhoto(ctx context.Context, id *user.Identity) {
	if id.PhotoURL != "" {
		return
	}
	if p, err := s.deps.Profiles.Get(ctx, id.UID); err == nil && p.PhotoURL != "" {
		id.PhotoURL = p.PhotoURL
	}
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = unsafeNameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return "picture"
	}
	return name
}
