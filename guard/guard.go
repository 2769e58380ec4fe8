package guard

import "github.com/MrEthical07/goAccess/session"

// RoleGrants answers whether any of the role codes grants a permission code.
type RoleGrants interface {
	Grants(roleCodes []string, code string) bool
}

// CodeStatus reports whether a permission code is enabled in the catalog,
// taking ancestors into account. known is false for codes absent from it.
type CodeStatus interface {
	Enabled(code string) (enabled bool, known bool)
}

// TokenChecker reports whether a credential token has lapsed.
type TokenChecker interface {
	Expired(token string) bool
}

// Guard evaluates route requirements against a session state. It holds no
// state of its own and never caches decisions; every call reads the current
// snapshots of its collaborators.
type Guard struct {
	roles   RoleGrants
	catalog CodeStatus
	tokens  TokenChecker
}

// New returns a guard. Any collaborator may be nil: without roles only the
// user's explicit permissions count, without a catalog no code is treated as
// disabled, and without a token checker tokens never expire.
func New(roles RoleGrants, catalog CodeStatus, tokens TokenChecker) *Guard {
	return &Guard{roles: roles, catalog: catalog, tokens: tokens}
}

// Check decides whether st may enter route.
func (g *Guard) Check(st session.State, route Route) Result {
	if route.Public {
		return Result{Decision: Allow, Reason: ReasonPublic}
	}
	if !st.IsAuthenticated() {
		return Result{Decision: RedirectToLogin, Reason: ReasonAnonymous}
	}
	if g.tokenExpired(st.Token()) {
		return Result{Decision: RedirectToLogin, Reason: ReasonTokenExpired}
	}

	var missing []string
	for _, code := range route.AllOf {
		if !g.Can(st, code) {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return Result{Decision: Deny, Reason: ReasonMissingPermission, Missing: missing}
	}

	if len(route.AnyOf) > 0 {
		for _, code := range route.AnyOf {
			if g.Can(st, code) {
				return Result{Decision: Allow, Reason: ReasonGranted}
			}
		}
		return Result{Decision: Deny, Reason: ReasonMissingPermission, Missing: append([]string(nil), route.AnyOf...)}
	}
	return Result{Decision: Allow, Reason: ReasonGranted}
}

// CheckPath matches path in routes and checks it.
func (g *Guard) CheckPath(st session.State, routes *Routes, path string) (Route, Result) {
	route, _ := routes.Match(path)
	return route, g.Check(st, route)
}

// Can reports whether st holds code. Super admins always do. Otherwise a code
// whose catalog node (or any ancestor) is disabled is refused, and the code is
// granted by the user's explicit permissions or by any of the user's roles.
func (g *Guard) Can(st session.State, code string) bool {
	if !st.IsAuthenticated() {
		return false
	}
	if st.IsSuperAdmin() {
		return true
	}
	if g.catalog != nil {
		if enabled, known := g.catalog.Enabled(code); known && !enabled {
			return false
		}
	}
	if st.HasPermission(code) {
		return true
	}
	return g.roles != nil && g.roles.Grants(st.Roles(), code)
}

func (g *Guard) tokenExpired(token string) bool {
	return g.tokens != nil && token != "" && g.tokens.Expired(token)
}
