// Package service holds the session manager: signup, login, token
// verification, refresh and logout composed from a credential store, a
// revocation registry and a token codec.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/metrics"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/model"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/queue"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/repository"
	"github.com/Vivehasrinivasan/Buddy-Sign-new/internal/utils"
)

const eventTimeout = 5 * time.Second

// TokenPolicy holds the token lifetimes.  When a login asks to be
// remembered, RememberTTL replaces both AccessTTL and RefreshTTL.
type TokenPolicy struct {
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	RememberTTL time.Duration
}

// Options wires a SessionManager.  Store, Revocations, Codec and Hasher are
// required; the rest have usable zero values.
type Options struct {
	Store       repository.CredentialStore
	Revocations repository.RevocationRegistry
	Codec       *utils.TokenCodec
	Hasher      utils.PasswordHasher
	Policy      TokenPolicy
	Events      EventPublisher
	Metrics     *metrics.Auth
	Log         *slog.Logger
	Now         func() time.Time
	NewID       func() string
}

// SessionManager is safe for concurrent use.  It keeps no per-user state;
// user records are always read from the store.
type SessionManager struct {
	store   repository.CredentialStore
	revoked repository.RevocationRegistry
	codec   *utils.TokenCodec
	hasher  utils.PasswordHasher
	policy  TokenPolicy
	events  EventPublisher
	metrics *metrics.Auth
	log     *slog.Logger
	now     func() time.Time
	newID   func() string

	pending sync.WaitGroup
}

func NewSessionManager(o Options) *SessionManager {
	s := &SessionManager{
		store:   o.Store,
		revoked: o.Revocations,
		codec:   o.Codec,
		hasher:  o.Hasher,
		policy:  o.Policy,
		events:  o.Events,
		metrics: o.Metrics,
		log:     o.Log,
		now:     o.Now,
		newID:   o.NewID,
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// SignupInput is the raw signup form.  ChildAge is kept as text so a
// non-numeric value is reported as a validation failure, not a decode error.
type SignupInput struct {
	Email     string
	Password  string
	ChildName string
	ChildAge  string
}

// SignupResult identifies the new account.  Signup never logs the user in.
type SignupResult struct {
	UserID string
	Email  string
}

// Signup validates in, creates the account with its first child profile and
// returns the identifiers.
func (s *SessionManager) Signup(ctx context.Context, in SignupInput) (res SignupResult, err error) {
	defer func() { s.metrics.Observe("signup", err) }()

	for _, f := range []struct{ name, value string }{
		{"parentEmail", in.Email},
		{"password", in.Password},
		{"childName", in.ChildName},
		{"childAge", in.ChildAge},
	} {
		if strings.TrimSpace(f.value) == "" {
			return SignupResult{}, newError(CodeValidation, f.name+" is required")
		}
	}

	email := utils.NormalizeEmail(in.Email)
	childName := strings.TrimSpace(in.ChildName)
	age, convErr := strconv.Atoi(strings.TrimSpace(in.ChildAge))
	if convErr != nil {
		return SignupResult{}, newError(CodeValidation, "Invalid age format")
	}
	if !utils.ValidEmail(email) {
		return SignupResult{}, newError(CodeValidation, "Invalid email format")
	}
	if !utils.ValidPassword(in.Password) {
		return SignupResult{}, newError(CodeValidation, "Password must be at least 6 characters long")
	}
	if !utils.PasswordFitsHash(in.Password) {
		return SignupResult{}, newError(CodeValidation, "Password must be at most 72 bytes long")
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return SignupResult{}, ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return SignupResult{}, s.storeError("signup", err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return SignupResult{}, wrapError(CodeStoreUnavailable, "Registration failed", err)
	}

	now := s.now().UTC()
	id := s.newID()
	isParent := true
	points := 0
	user := model.User{
		ID:           id,
		Email:        email,
		PasswordHash: digest,
		Name:         childName,
		IsParent:     &isParent,
		Children:     []model.Child{model.NewChild(id, childName, age, now)},
		Points:       &points,
		CreatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return SignupResult{}, ErrConflict
		}
		return SignupResult{}, s.storeError("signup", err)
	}

	s.log.Info("account created", "user_id", id)
	s.emit(queue.AccountEvent{Type: queue.AccountCreated, UserID: id, Email: email})
	return SignupResult{UserID: id, Email: email}, nil
}

// LoginResult carries the shaped profile and the freshly minted pair.
type LoginResult struct {
	User       model.User
	Profile    model.Profile
	Access     utils.Token
	Refresh    utils.Token
	RememberMe bool
}

// Login checks the credentials and mints an access/refresh pair for the
// account.  A failure to record last_login is logged and otherwise ignored.
func (s *SessionManager) Login(ctx context.Context, email, password string, remember bool) (res LoginResult, err error) {
	defer func() { s.metrics.Observe("login", err) }()

	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, newError(CodeValidation, "Email and password are required")
	}

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, newError(CodeNotFound, "No user exists with this email address")
		}
		return LoginResult{}, s.storeError("login", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return LoginResult{}, ErrUnauthorized
	}

	accessTTL, refreshTTL := s.policy.AccessTTL, s.policy.RefreshTTL
	if remember {
		accessTTL, refreshTTL = s.policy.RememberTTL, s.policy.RememberTTL
	}
	access, err := s.codec.Mint(user.ID, utils.KindAccess, accessTTL)
	if err != nil {
		return LoginResult{}, wrapError(CodeStoreUnavailable, "Login failed", err)
	}
	refresh, err := s.codec.Mint(user.ID, utils.KindRefresh, refreshTTL)
	if err != nil {
		return LoginResult{}, wrapError(CodeStoreUnavailable, "Login failed", err)
	}

	at := s.now().UTC()
	patch := model.UserPatch{LastLogin: &at}
	if err := s.store.Update(ctx, email, patch); err != nil {
		s.log.Warn("last_login update failed", "user_id", user.ID, "err", err)
	} else {
		patch.Apply(&user)
	}

	profile := model.PrepareUserResponse(user)
	profile.RememberMe = &remember

	s.emit(queue.AccountEvent{
		Type: queue.SessionStarted, UserID: user.ID, Email: email,
		JTI: access.JTI, RememberMe: remember,
	})
	return LoginResult{
		User:       user,
		Profile:    profile,
		Access:     access,
		Refresh:    refresh,
		RememberMe: remember,
	}, nil
}

// Identity is a verified access token and the account it resolves to.
type Identity struct {
	User  model.User
	Token utils.Token
}

// Profile projects the resolved account.
func (i *Identity) Profile() model.Profile { return model.PrepareUserResponse(i.User) }

// Verify decodes an access token, rejects it if revoked, and resolves its
// subject.  It performs no writes.
func (s *SessionManager) Verify(ctx context.Context, raw string) (id *Identity, err error) {
	defer func() { s.metrics.Observe("verify", err) }()

	tok, err := s.decodeLive(ctx, raw, utils.KindAccess)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetByID(ctx, tok.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, s.storeError("verify", err)
	}
	return &Identity{User: user, Token: tok}, nil
}

// Refresh exchanges a refresh token for a new access token with the default
// access lifetime.  The refresh token itself stays valid.
func (s *SessionManager) Refresh(ctx context.Context, raw string) (access utils.Token, err error) {
	defer func() { s.metrics.Observe("refresh", err) }()

	tok, err := s.decodeLive(ctx, raw, utils.KindRefresh)
	if err != nil {
		return utils.Token{}, err
	}
	access, err = s.codec.Mint(tok.Subject, utils.KindAccess, s.policy.AccessTTL)
	if err != nil {
		return utils.Token{}, wrapError(CodeStoreUnavailable, "Token refresh failed", err)
	}
	s.emit(queue.AccountEvent{Type: queue.SessionRefreshed, UserID: tok.Subject, JTI: access.JTI})
	return access, nil
}

// Logout revokes the access token's jti.  The token only has to be
// correctly signed: an expired token is revoked all the same, and a token
// that is already revoked is not an error.  When refreshRaw decodes, its
// jti is revoked too; a bad refresh token never fails the logout.
func (s *SessionManager) Logout(ctx context.Context, accessRaw, refreshRaw string) (err error) {
	defer func() { s.metrics.Observe("logout", err) }()

	if accessRaw == "" {
		return ErrMissingToken
	}
	tok, err := s.codec.DecodeIgnoringExpiry(accessRaw)
	if err != nil {
		return ErrInvalidToken
	}
	if tok.Kind != utils.KindAccess {
		return ErrWrongTokenKind
	}
	if err := s.revoke(ctx, tok); err != nil {
		return err
	}

	if refreshRaw != "" {
		if rt, err := s.codec.DecodeIgnoringExpiry(refreshRaw); err == nil && rt.Kind == utils.KindRefresh {
			if err := s.revoke(ctx, rt); err != nil {
				return err
			}
		}
	}

	s.emit(queue.AccountEvent{Type: queue.SessionEnded, UserID: tok.Subject, JTI: tok.JTI})
	return nil
}

// Wait blocks until events already handed to the publisher are done.
func (s *SessionManager) Wait() { s.pending.Wait() }

// decodeLive decodes raw, requires kind, and rejects revoked jtis.
func (s *SessionManager) decodeLive(ctx context.Context, raw string, kind utils.Kind) (utils.Token, error) {
	if raw == "" {
		return utils.Token{}, ErrMissingToken
	}
	tok, err := s.codec.Decode(raw)
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			return utils.Token{}, ErrExpiredToken
		}
		return utils.Token{}, ErrInvalidToken
	}
	if tok.Kind != kind {
		return utils.Token{}, ErrWrongTokenKind
	}
	revoked, err := s.revoked.IsRevoked(ctx, tok.JTI)
	if err != nil {
		return utils.Token{}, s.storeError("revocation lookup", err)
	}
	if revoked {
		return utils.Token{}, ErrRevoked
	}
	return tok, nil
}

func (s *SessionManager) revoke(ctx context.Context, tok utils.Token) error {
	if err := s.revoked.Revoke(ctx, tok.JTI, tok.ExpiresAt); err != nil {
		return s.storeError("revoke", err)
	}
	s.metrics.Revoked()
	return nil
}

func (s *SessionManager) storeError(op string, err error) *Error {
	s.log.Error("store call failed", "op", op, "err", err)
	return wrapError(CodeStoreUnavailable, ErrStoreUnavailable.Message, err)
}

// emit publishes ev in the background; the request never waits on the broker.
func (s *SessionManager) emit(ev queue.AccountEvent) {
	if _, nop := s.events.(NopPublisher); nop {
		return
	}
	ev.OccurredAt = s.now().UTC().Format(time.RFC3339)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()
		if err := s.events.Publish(ctx, ev); err != nil {
			s.log.Warn("account event dropped", "type", ev.Type, "err", err)
		}
	}()
}
