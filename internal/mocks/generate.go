// Package mocks provides mock implementations of the core ports for testing.
//
// This package uses go.uber.org/mock (gomock). The mocks are generated using go:generate
// directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	lister := mocks.NewMockChildLister(ctrl)
//	lister.EXPECT().ListChildren(gomock.Any(), -3, 1).Return(children, nil)
package mocks

// Generate mock for ChildLister interface from internal/core package.
// This creates MockChildLister with methods for all ChildLister interface methods:
// ListChildren
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=child_lister_mock.go github.com/campus-tools/adeplanning/internal/core ChildLister

// Generate mock for FeedSource interface from internal/core package.
// This creates MockFeedSource with methods for all FeedSource interface methods:
// Fetch
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=feed_source_mock.go github.com/campus-tools/adeplanning/internal/core FeedSource

// Generate mock for CacheRepository interface from internal/core package.
// This creates MockCacheRepository with methods for all CacheRepository interface methods:
// Set, Get, Delete, Exists, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/campus-tools/adeplanning/internal/core CacheRepository

// Generate mock for RemoteSession interface from internal/core package.
// This creates MockRemoteSession with methods for all RemoteSession interface methods:
// Connect, Connected, ListChildren, LookupID
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=remote_session_mock.go github.com/campus-tools/adeplanning/internal/core RemoteSession
