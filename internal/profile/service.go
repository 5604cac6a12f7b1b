// Package profile reads and merges users/<uid> documents.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urbanfrill/storefront/internal/domain/user"
	"github.com/urbanfrill/storefront/internal/infrastructure/store"
	"github.com/urbanfrill/storefront/pkg/validate"
)

var ErrProfileNotFound = errors.New("profile not found")

// Update carries the user-editable fields. Nil fields are left unchanged.
type Update struct {
	DisplayName *string `json:"displayName,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	State       *string `json:"state,omitempty"`
	Pincode     *string `json:"pincode,omitempty"`
}

type Service struct {
	docs store.DocumentStore
	now  func() time.Time
}

func NewService(docs store.DocumentStore) *Service {
	return &Service{docs: docs, now: time.Now}
}

// Ensure merges the identity fields into the profile, creating it on first
// sign-in. An empty photoURL does not clear a stored one.
func (s *Service) Ensure(ctx context.Context, id *user.Identity) error {
	fields := map[string]any{
		"uid":         id.UID,
		"email":       id.Email,
		"displayName": id.DisplayName,
		"updatedAt":   user.Timestamp(s.now()),
	}
	if id.PhotoURL != "" {
		fields["photoURL"] = id.PhotoURL
	}

	if err := s.docs.Merge(ctx, store.CollectionUsers, id.UID, fields); err != nil {
		return fmt.Errorf("ensure profile %s: %w", id.UID, err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, uid string) (*user.Profile, error) {
	var p user.Profile
	err := s.docs.Get(ctx, store.CollectionUsers, uid, &p)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", uid, err)
	}
	if p.UID == "" {
		p.UID = uid
	}
	return &p, nil
}

// Update validates and merges u, then returns the stored profile. Invalid
// input yields validate.FieldErrors.
func (s *Service) Update(ctx context.Context, uid string, u Update) (*user.Profile, error) {
	fields, err := u.fields()
	if err != nil {
		return nil, err
	}
	fields["uid"] = uid
	fields["updatedAt"] = user.Timestamp(s.now())

	if err := s.docs.Merge(ctx, store.CollectionUsers, uid, fields); err != nil {
		return nil, fmt.Errorf("update profile %s: %w", uid, err)
	}
	return s.Get(ctx, uid)
}

// SetPhoto records a new profile picture.
func (s *Service) SetPhoto(ctx context.Context, uid, url, path string) error {
	err := s.docs.Merge(ctx, store.CollectionUsers, uid, map[string]any{
		"uid":       uid,
		"photoURL":  url,
		"photoPath": path,
		"updatedAt": user.Timestamp(s.now()),
	})
	if err != nil {
		return fmt.Errorf("set profile photo %s: %w", uid, err)
	}
	return nil
}

func (u Update) fields() (map[string]any, error) {
	errs := validate.FieldErrors{}
	fields := map[string]any{}

	set := func(name string, v *string) string {
		if v == nil {
			return ""
		}
		val := strings.TrimSpace(*v)
		fields[name] = val
		return val
	}

	if u.DisplayName != nil && set("displayName", u.DisplayName) == "" {
		errs.Add("displayName", "Name cannot be empty")
	}
	if p := set("phone", u.Phone); p != "" && !validate.IsPhone(p) {
		errs.Add("phone", "Enter a valid 10-digit phone number")
	}
	set("address", u.Address)
	set("city", u.City)
	set("state", u.State)
	if p := set("pincode", u.Pincode); p != "" && !validate.IsPincode(p) {
		errs.Add("pincode", "Enter a valid 6-digit pincode")
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return fields, nil
}
