package auth

// Outcome is the result of evaluating a page guard for one request.
type Outcome int

const (
	// OutcomeSignIn means no session resolved; send the client to sign in.
	OutcomeSignIn Outcome = iota
	// OutcomeUnauthorized means a session resolved but its role is not allowed.
	OutcomeUnauthorized
	// OutcomeRender means the request may proceed.
	OutcomeRender
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSignIn:
		return "sign_in"
	case OutcomeUnauthorized:
		return "unauthorized"
	case OutcomeRender:
		return "render"
	default:
		return "unknown"
	}
}

// Decision carries the guard outcome and, when rendering, the resolved identity.
type Decision struct {
	Outcome Outcome
	User    *User
	Role    Role
}

// Authorize evaluates a resolved session against an allow-list of roles.
// A nil session signs in; an empty allow-list admits any authenticated user.
func Authorize(sau *SessionAndUser, allowed ...Role) Decision {
	if sau == nil {
		return Decision{Outcome: OutcomeSignIn}
	}
	role := sau.User.Role
	if !role.IsValid() {
		role = RoleViewer
	}
	if len(allowed) > 0 && !Roles(allowed).Contains(role) {
		return Decision{Outcome: OutcomeUnauthorized}
	}
	user := sau.User
	user.Role = role
	return Decision{Outcome: OutcomeRender, User: &user, Role: role}
}
