// Package mocks provides gomock doubles for the identity ports.
//
// To regenerate after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockIdentityStore(ctrl)
//	store.EXPECT().GetSessionAndUser(gomock.Any(), "tok").Return(nil, nil)
package mocks

// MockIdentityStore covers the adapter operations plus SetUserRole; MockReaperRepository
// covers the batched purge queries.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_mock.go github.com/budgetndiostory/bns-api/internal/ports IdentityStore,ReaperRepository
