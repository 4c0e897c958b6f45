// Package mocks provides mock implementations for testing the campus auth system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRefresher := mocks.NewMockTokenRefresher(ctrl)
//	mockRefresher.EXPECT().Refresh(gomock.Any(), "token").Return(tokens, nil)
package mocks

// Generate mock for DiscoveryResolver interface from internal/ports package.
// This creates MockDiscoveryResolver with methods: TokenEndpoint, AuthorizationEndpoint
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=discovery_resolver_mock.go github.com/campusware/campus-ui-api/internal/ports DiscoveryResolver

// Generate mock for TokenRefresher interface from internal/ports package.
// This creates MockTokenRefresher with methods: Refresh
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=token_refresher_mock.go github.com/campusware/campus-ui-api/internal/ports TokenRefresher

// Generate mock for SessionStore interface from internal/ports package.
// This creates MockSessionStore with methods: Save, Get, Delete
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=session_store_mock.go github.com/campusware/campus-ui-api/internal/ports SessionStore
