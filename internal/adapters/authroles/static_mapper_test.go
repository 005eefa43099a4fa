package authroles

import (
	"testing"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
	"github.com/stretchr/testify/assert"
)

func TestStaticRoleMapper_Map(t *testing.T) {
	m := StaticRoleMapper{AdminGroup: "bns-admins", EditorGroup: "bns-editors", AuthorGroup: "bns-writers"}

	tests := []struct {
		name   string
		groups []string
		want   domainauth.Role
	}{
		{name: "no groups", groups: nil, want: domainauth.RoleViewer},
		{name: "unrelated group", groups: []string{"staff"}, want: domainauth.RoleViewer},
		{name: "author", groups: []string{"bns-writers"}, want: domainauth.RoleAuthor},
		{name: "highest wins", groups: []string{"bns-writers", "bns-admins", "bns-editors"}, want: domainauth.RoleAdmin},
		{name: "editor over author", groups: []string{"bns-writers", "bns-editors"}, want: domainauth.RoleEditor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.groups))
		})
	}
}

func TestStaticRoleMapper_EmptyGroupNeverMatches(t *testing.T) {
	assert.Equal(t, domainauth.RoleViewer, StaticRoleMapper{}.Map([]string{""}))
}
