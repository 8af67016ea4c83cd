package store

// Error values shared by every adapter. These sentinels let the
// service layer distinguish failure cases with errors.Is without
// knowing which backend produced them.

import "errors"

// ErrUsernameTaken is returned when creating or renaming a user would
// violate username uniqueness.
var ErrUsernameTaken = errors.New("username already taken")

// ErrUserNotFound is returned when a user lookup misses.
var ErrUserNotFound = errors.New("user not found")

// ErrGroupNotFound is returned when a group lookup misses, including
// invite-code lookups.
var ErrGroupNotFound = errors.New("group not found")

// ErrInviteCodeTaken is returned by CreateGroup when the generated
// invite code collides with an existing group. The registry re-rolls
// the code rather than overwriting.
var ErrInviteCodeTaken = errors.New("invite code already taken")

// ErrTokenNotFound is returned when a refresh token hash does not
// resolve to an active token.
var ErrTokenNotFound = errors.New("refresh token not found")
