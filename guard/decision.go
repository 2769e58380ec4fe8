package guard

// Decision is the outcome of a route check.
type Decision int

const (
	Allow Decision = iota + 1
	RedirectToLogin
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Reason explains a [Decision].
type Reason string

const (
	ReasonPublic            Reason = "public"
	ReasonGranted           Reason = "granted"
	ReasonAnonymous         Reason = "anonymous"
	ReasonTokenExpired      Reason = "token_expired"
	ReasonMissingPermission Reason = "missing_permission"
)

// Result is returned by [Guard.Check]. Missing lists the codes that were not
// satisfied when the decision is [Deny].
type Result struct {
	Decision Decision
	Reason   Reason
	Missing  []string
}

// Allowed reports whether the route may be rendered.
func (r Result) Allowed() bool {
	return r.Decision == Allow
}
