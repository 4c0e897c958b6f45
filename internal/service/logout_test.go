package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/campusware/campus-ui-api/internal/domain/auth"
	apperrors "github.com/campusware/campus-ui-api/internal/errors"
	"github.com/campusware/campus-ui-api/internal/mocks"
	mockauth "github.com/campusware/campus-ui-api/internal/mocks/auth"
	"github.com/campusware/campus-ui-api/internal/testutil"
)

func newLogoutFixture(t *testing.T, discovery *mocks.MockDiscoveryResolver, sweepers ...*mockauth.CountingSweeper) (*LogoutService, *mockauth.MemorySessionStore) {
	t.Helper()
	now := testutil.TestTime()
	store := mockauth.NewMemorySessionStore()
	sessions := newSessionService(store, &mockauth.FakeRefresher{}, testutil.FixedTimeFunc(now))

	seedSession(t, store, domainauth.Session{
		ID:        "sess-1",
		Subject:   "user-1",
		ExpiresAt: now.Add(time.Hour),
	})

	opts := LogoutServiceOptions{
		Sessions:              sessions,
		Discovery:             discovery,
		ClientID:              "campus",
		PostLogoutRedirectURL: "https://app.example.com/",
		SignInPath:            "/auth/login",
	}
	for _, s := range sweepers {
		opts.Sweepers = append(opts.Sweepers, s)
	}
	return NewLogoutService(opts), store
}

func TestLogoutFullTeardown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	discovery := mocks.NewMockDiscoveryResolver(ctrl)
	discovery.EXPECT().
		AuthorizationEndpoint(gomock.Any()).
		Return("https://idp.example.com/oauth2/authorize", nil)

	cacheSweeper := &mockauth.CountingSweeper{}
	scratchSweeper := &mockauth.CountingSweeper{}
	svc, store := newLogoutFixture(t, discovery, cacheSweeper, scratchSweeper)

	target := svc.Logout(context.Background(), "sess-1")

	// All sweepers ran for the session.
	assert.Equal(t, []string{"sess-1"}, cacheSweeper.Swept())
	assert.Equal(t, []string{"sess-1"}, scratchSweeper.Swept())

	// The session record is gone.
	_, err := store.Get(context.Background(), "sess-1")
	assert.Error(t, err)

	// The hosted logout URL uses the authorization endpoint's origin, not
	// its path, and carries encoded client_id and logout_uri.
	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "idp.example.com", u.Host)
	assert.Equal(t, "/logout", u.Path)
	assert.Equal(t, "campus", u.Query().Get("client_id"))
	assert.Equal(t, "https://app.example.com/", u.Query().Get("logout_uri"))
}

func TestLogoutFallsBackWhenDiscoveryFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	discovery := mocks.NewMockDiscoveryResolver(ctrl)
	discovery.EXPECT().
		AuthorizationEndpoint(gomock.Any()).
		Return("", apperrors.Discovery("idp unreachable"))

	sweeper := &mockauth.CountingSweeper{}
	svc, store := newLogoutFixture(t, discovery, sweeper)

	target := svc.Logout(context.Background(), "sess-1")

	// Local teardown happened even though the IdP URL could not be built.
	assert.Equal(t, []string{"sess-1"}, sweeper.Swept())
	_, err := store.Get(context.Background(), "sess-1")
	assert.Error(t, err)

	assert.Equal(t, "/auth/login", target)
}

func TestLogoutSweeperFailureDoesNotAbort(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	discovery := mocks.NewMockDiscoveryResolver(ctrl)
	discovery.EXPECT().
		AuthorizationEndpoint(gomock.Any()).
		Return("https://idp.example.com/oauth2/authorize", nil)

	failing := &mockauth.CountingSweeper{Err: errors.New("redis down")}
	healthy := &mockauth.CountingSweeper{}
	svc, store := newLogoutFixture(t, discovery, failing, healthy)

	target := svc.Logout(context.Background(), "sess-1")

	// Both sweepers were attempted and the flow continued.
	assert.Equal(t, []string{"sess-1"}, failing.Swept())
	assert.Equal(t, []string{"sess-1"}, healthy.Swept())
	_, err := store.Get(context.Background(), "sess-1")
	assert.Error(t, err)
	assert.Contains(t, target, "https://idp.example.com/logout")
}

func TestLogoutEmptySession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	discovery := mocks.NewMockDiscoveryResolver(ctrl)
	svc, _ := newLogoutFixture(t, discovery)

	assert.Equal(t, "/auth/login", svc.Logout(context.Background(), ""))
}
