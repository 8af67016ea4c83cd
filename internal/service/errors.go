// Package service implements the FamLink domain rules on top of the
// store contract: identity, the group registry, the message log and
// the session controller. Handlers translate the sentinel errors
// defined here (plus the store's) into HTTP responses.
package service

import "errors"

// ErrBadCredential is returned when a password does not match the
// stored hash. Lookup misses surface store.ErrUserNotFound instead.
var ErrBadCredential = errors.New("bad credential")

// ErrInvalidInviteCode is returned when an invite code resolves to no
// existing group.
var ErrInvalidInviteCode = errors.New("invalid invite code")

// ErrNotAuthorized is returned when a non-owner, non-operator attempts
// an owner-only action, or a non-member reads a group.
var ErrNotAuthorized = errors.New("not authorized")

// ErrProtected is returned when removal targets the seed operator
// account.
var ErrProtected = errors.New("account is protected")

// ErrValidation is returned for empty or malformed input fields.
var ErrValidation = errors.New("invalid input")
