/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package users stores application users keyed by their authentication uid.
package users

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/suparena/collectionstore"
	"github.com/suparena/collectionstore/errors"
	"github.com/suparena/collectionstore/storagemodels"
)

// CollectionPath is the collection holding user documents.
const CollectionPath = "users"

// User is a stored user document.
type User struct {
	ID              string    `doc:"id" json:"id"`
	DisplayName     string    `doc:"displayName" json:"displayName,omitempty"`
	Email           string    `doc:"email" json:"email,omitempty"`
	PhotoURL        string    `doc:"photoURL" json:"photoURL,omitempty"`
	CreateTimestamp time.Time `doc:"createTimestamp" json:"createTimestamp"`
	UpdateTimestamp time.Time `doc:"updateTimestamp" json:"updateTimestamp,omitempty"`
}

// AuthUser is the identity reported by the authentication provider.
type AuthUser struct {
	UID         string `validate:"required"`
	DisplayName string
	Email       string `validate:"omitempty,email"`
	PhotoURL    string `validate:"omitempty,url"`
}

var validate = validator.New()

// Validate reports the first invalid field as an errors.ValidationError.
func (a AuthUser) Validate() error {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		return errors.NewValidationError(verrs[0].Field(), fmt.Sprintf("failed %s validation", verrs[0].Tag()))
	}
	return err
}

// NewUsersDB returns the accessor for the users collection.
func NewUsersDB(opts ...collectionstore.Option) (*collectionstore.Collection, error) {
	return collectionstore.NewCollection(CollectionPath, opts...)
}

// Service signs users in.
type Service struct {
	db     *collectionstore.TypedCollection[User]
	logger zerolog.Logger
}

// NewService returns a Service over db.
func NewService(db *collectionstore.Collection, logger zerolog.Logger) *Service {
	return &Service{
		db:     collectionstore.NewTypedCollection[User](db),
		logger: logger,
	}
}

// Login returns the stored user for auth, creating it on first sign-in.
// created reports whether a new user document was written.
func (s *Service) Login(ctx context.Context, auth AuthUser) (user *User, created bool, err error) {
	if err := auth.Validate(); err != nil {
		return nil, false, err
	}

	user, err = s.db.Read(ctx, auth.UID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up user %s: %w", auth.UID, err)
	}
	if user != nil {
		s.logger.Debug().Str("uid", auth.UID).Msg("existing user signed in")
		return user, false, nil
	}

	user, err = s.createFromAuthUser(ctx, auth)
	if err != nil {
		return nil, false, err
	}
	s.logger.Info().Str("uid", auth.UID).Msg("new user created")
	return user, true, nil
}

func (s *Service) createFromAuthUser(ctx context.Context, auth AuthUser) (*User, error) {
	doc, err := s.db.Collection().CreateWithID(ctx, auth.UID, storagemodels.Document{
		"displayName": auth.DisplayName,
		"email":       auth.Email,
		"photoURL":    auth.PhotoURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", auth.UID, err)
	}
	return collectionstore.Decode[User](doc)
}
