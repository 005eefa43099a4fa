package ports_test

import (
	"testing"

	"github.com/budgetndiostory/bns-api/internal/adapters/authroles"
	"github.com/budgetndiostory/bns-api/internal/data"
	"github.com/budgetndiostory/bns-api/internal/mocks"
	mockauth "github.com/budgetndiostory/bns-api/internal/mocks/auth"
	"github.com/budgetndiostory/bns-api/internal/ports"
)

// Compile-time conformance of the concrete implementations and doubles.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	var _ ports.IdentityStore = (*data.IdentityAdapter)(nil)
	var _ ports.ReaperRepository = (*data.IdentityReaperRepo)(nil)
	var _ ports.RoleMapper = authroles.StaticRoleMapper{}

	var _ ports.IdentityStore = (*mocks.MockIdentityStore)(nil)
	var _ ports.ReaperRepository = (*mocks.MockReaperRepository)(nil)
	var _ ports.AuthProvider = (*mockauth.MockAuthProvider)(nil)
	var _ ports.IdentityStore = (*mockauth.MemoryIdentityStore)(nil)
}
