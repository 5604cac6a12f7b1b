package store

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements DocumentStore with one Firestore collection per
// store collection.
type FirestoreStore struct {
	Client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{Client: client}
}

func (s *FirestoreStore) doc(collection, id string) *firestore.DocumentRef {
	return s.Client.Collection(collection).Doc(id)
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string, dst any) error {
	if s == nil || s.Client == nil {
		return errors.New("firestore_store: client is nil")
	}

	snap, err := s.doc(collection, id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return mapFirestoreError(err)
	}

	// snap.DataTo would bind Firestore types; going through JSON keeps every
	// backend decoding the same way.
	return decodeMap(snap.Data(), dst)
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, doc any) error {
	m, err := encodeMap(doc)
	if err != nil {
		return err
	}
	_, err = s.doc(collection, id).Set(ctx, m)
	return mapFirestoreError(err)
}

func (s *FirestoreStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	m, err := normalizeFields(fields)
	if err != nil {
		return err
	}
	_, err = s.doc(collection, id).Set(ctx, m, firestore.MergeAll)
	return mapFirestoreError(err)
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	m, err := normalizeFields(fields)
	if err != nil {
		return err
	}

	updates := make([]firestore.Update, 0, len(m))
	for path, v := range m {
		updates = append(updates, firestore.Update{Path: path, Value: v})
	}

	_, err = s.doc(collection, id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return mapFirestoreError(err)
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.doc(collection, id).Delete(ctx)
	return mapFirestoreError(err)
}

func mapFirestoreError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}
