package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/famlink/internal/model"
	"github.com/iliyamo/famlink/internal/store"
	"github.com/iliyamo/famlink/internal/utils"
)

// TokenPair is the credential set handed to a client after a
// successful sign-in or sign-up: a short-lived signed access token and
// a long-lived refresh token (returned raw exactly once; only its hash
// is stored).
type TokenPair struct {
	AccessToken   string
	AccessExpires time.Time
	RefreshToken  string
	RefreshExpire time.Time
}

// Session is the controller between anonymous clients and the rest of
// the domain. A client is Anonymous until SignUp or SignIn succeeds and
// returns to Anonymous on Logout; there are no other transitions. The
// authenticated identity travels as a JWT, so "current user" is
// whatever the verified token claims say.
type Session struct {
	identity *Identity
	tokens   store.TokenStore

	jwtSecret      string
	accessTTLMin   int
	refreshTTLDays int
}

// NewSession creates a Session controller.
func NewSession(identity *Identity, tokens store.TokenStore, jwtSecret string, accessTTLMin, refreshTTLDays int) *Session {
	return &Session{
		identity:       identity,
		tokens:         tokens,
		jwtSecret:      jwtSecret,
		accessTTLMin:   accessTTLMin,
		refreshTTLDays: refreshTTLDays,
	}
}

// issue builds a fresh token pair for the user and persists the refresh
// token hash.
func (s *Session) issue(ctx context.Context, u model.User) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.jwtSecret, u.ID, u.Role, s.accessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(s.refreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:   access.Token,
		AccessExpires: access.Exp,
		RefreshToken:  refresh.Raw,
		RefreshExpire: refresh.Exp,
	}, nil
}

// SignUp registers a new account and signs it in. A failed registration
// leaves the client anonymous and surfaces the identity error
// unchanged (store.ErrUsernameTaken, ErrValidation).
func (s *Session) SignUp(ctx context.Context, username, password string) (model.User, TokenPair, error) {
	u, err := s.identity.Register(ctx, username, password, model.RoleMember)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	pair, err := s.issue(ctx, u)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// SignIn authenticates an existing account. Failures surface
// store.ErrUserNotFound or ErrBadCredential and leave no session state.
func (s *Session) SignIn(ctx context.Context, username, password string) (model.User, TokenPair, error) {
	u, err := s.identity.Authenticate(ctx, username, password)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	pair, err := s.issue(ctx, u)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	slog.Info("user signed in", "user_id", u.ID)
	return u, pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// new pair is issued. Invalid, expired or revoked tokens fail with
// store.ErrTokenNotFound.
func (s *Session) Refresh(ctx context.Context, refreshRaw string) (model.User, TokenPair, error) {
	hash := utils.HashRefreshRaw(refreshRaw)
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	_ = s.tokens.RevokeByHash(ctx, hash)

	u, err := s.identity.Get(ctx, userID)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	pair, err := s.issue(ctx, u)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	return u, pair, nil
}

// Logout invalidates the presented refresh token, returning the client
// to the anonymous state. Unknown tokens fail with
// store.ErrTokenNotFound.
func (s *Session) Logout(ctx context.Context, refreshRaw string) error {
	hash := utils.HashRefreshRaw(refreshRaw)
	if _, err := s.tokens.ValidateRefresh(ctx, hash); err != nil {
		return err
	}
	return s.tokens.RevokeByHash(ctx, hash)
}

// Me resolves the authenticated user behind a verified token subject.
func (s *Session) Me(ctx context.Context, userID string) (model.User, error) {
	return s.identity.Get(ctx, userID)
}
