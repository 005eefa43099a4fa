package authroles

import (
	"slices"

	domainauth "github.com/budgetndiostory/bns-api/internal/domain/auth"
)

// StaticRoleMapper assigns the initial role of a newly created user from provider group
// claims. The highest-ranked matching group wins; no match yields viewer.
type StaticRoleMapper struct {
	AdminGroup  string
	EditorGroup string
	AuthorGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	has := func(g string) bool { return g != "" && slices.Contains(groups, g) }
	switch {
	case has(m.AdminGroup):
		return domainauth.RoleAdmin
	case has(m.EditorGroup):
		return domainauth.RoleEditor
	case has(m.AuthorGroup):
		return domainauth.RoleAuthor
	default:
		return domainauth.RoleViewer
	}
}
