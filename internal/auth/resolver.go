package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/teamtodo/teamtodo/internal/apperror"
	"github.com/teamtodo/teamtodo/internal/metrics"
	"github.com/teamtodo/teamtodo/internal/model"
	"github.com/teamtodo/teamtodo/internal/repository"
)

// APINamespace is the path prefix under which identity is resolved.
const APINamespace = "/api/"

// State is the outcome of identity resolution for a request.
type State int

// Resolution states.
const (
	StateUnresolved State = iota
	StateExempt
	StateAnonymous
	StateAuthenticated
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateExempt:
		return "exempt"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	case StateRejected:
		return "rejected"
	default:
		return "unresolved"
	}
}

// UserFinder looks up users by API key.
// It returns repository.ErrUserNotFound when no user owns the key.
type UserFinder interface {
	GetUserByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
}

// Resolution is the result of resolving a request's identity.
// RefreshedToken is set when a new access token was minted from the API key.
type Resolution struct {
	State          State
	Principal      model.Principal
	RefreshedToken string
}

// Refreshed reports whether the caller must hand a new token to the client.
func (r Resolution) Refreshed() bool {
	return r.RefreshedToken != ""
}

// Resolver turns request credentials into a principal.
type Resolver struct {
	allow   *AllowList
	codec   *TokenCodec
	users   UserFinder
	metrics metrics.Recorder
}

// NewResolver creates a Resolver.
func NewResolver(allow *AllowList, codec *TokenCodec, users UserFinder, recorder metrics.Recorder) *Resolver {
	if allow == nil {
		allow = NewAllowList()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Resolver{
		allow:   allow,
		codec:   codec,
		users:   users,
		metrics: recorder,
	}
}

// TokenTTL is the lifetime of tokens minted on refresh.
func (r *Resolver) TokenTTL() time.Duration {
	return r.codec.TTL()
}

// IsExempt reports whether the path skips identity resolution.
func (r *Resolver) IsExempt(urlPath string) bool {
	return !strings.HasPrefix(urlPath, APINamespace) || r.allow.IsExempt(urlPath)
}

// ResolveRequest resolves the identity of an HTTP request. Exempt paths are
// never inspected for credentials.
func (r *Resolver) ResolveRequest(req *http.Request) (Resolution, error) {
	if r.IsExempt(req.URL.Path) {
		return r.finish(Resolution{State: StateExempt}, nil)
	}

	creds, err := ExtractCredentials(req)
	if err != nil {
		return r.finish(Resolution{State: StateRejected}, apperror.Malformed(err.Error()))
	}

	return r.Resolve(req.Context(), creds)
}

// Resolve runs the credential state machine.
//
// A valid access token wins and the API key is not consulted. Otherwise the
// API key is looked up and, on success, a fresh token is minted.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (Resolution, error) {
	if creds.IsEmpty() {
		return r.finish(Resolution{State: StateAnonymous}, nil)
	}

	if creds.AccessToken != "" {
		if p, err := r.codec.Verify(creds.AccessToken); err == nil {
			return r.finish(Resolution{State: StateAuthenticated, Principal: p}, nil)
		}
	}

	if creds.APIKey == "" {
		return r.finish(Resolution{State: StateRejected}, apperror.Unauthenticated())
	}

	user, err := r.users.GetUserByAPIKey(ctx, creds.APIKey)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return r.finish(Resolution{State: StateRejected}, apperror.UnknownCredential())
		}
		return r.finish(Resolution{State: StateRejected}, apperror.Internal(err))
	}

	principal := user.Principal()
	token, err := r.codec.Issue(principal)
	if err != nil {
		return r.finish(Resolution{State: StateRejected}, apperror.Internal(err))
	}
	r.metrics.IncTokenRefresh()

	return r.finish(Resolution{
		State:          StateAuthenticated,
		Principal:      principal,
		RefreshedToken: token,
	}, nil)
}

func (r *Resolver) finish(res Resolution, err error) (Resolution, error) {
	r.metrics.IncAuthResolution(res.State.String())
	return res, err
}
