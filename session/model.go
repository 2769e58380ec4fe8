package session

import (
	"time"

	"github.com/MrEthical07/goAccess/permission"
)

// Status is the account status mirrored from the identity provider.
type Status string

const (
	// StatusActive marks an enabled account.
	StatusActive Status = "active"
	// StatusInactive marks a disabled account.
	StatusInactive Status = "inactive"
)

// User is the identity record of the authenticated principal as handed over by
// the credential-verification service. Roles and Permissions hold role codes and
// permission codes respectively.
type User struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	RealName      string     `json:"realName,omitempty"`
	Nickname      string     `json:"nickname,omitempty"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	Avatar        string     `json:"avatar,omitempty"`
	JobNumber     string     `json:"jobNumber,omitempty"`
	Status        Status     `json:"status"`
	Roles         []string   `json:"roles"`
	Permissions   []string   `json:"permissions"`
	LatestLoginAt *time.Time `json:"latestLoginAt,omitempty"`
}

// Profile is a partial update of the non-identity fields of [User]. Username,
// roles, and permissions cannot be changed while logged in.
type Profile struct {
	RealName      *string
	Nickname      *string
	Email         *string
	Phone         *string
	Avatar        *string
	JobNumber     *string
	Status        *Status
	LatestLoginAt *time.Time
}

func (p Profile) applyTo(u *User) {
	if p.RealName != nil {
		u.RealName = *p.RealName
	}
	if p.Nickname != nil {
		u.Nickname = *p.Nickname
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.JobNumber != nil {
		u.JobNumber = *p.JobNumber
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.LatestLoginAt != nil {
		t := *p.LatestLoginAt
		u.LatestLoginAt = &t
	}
}

func cloneUser(u User) User {
	if u.Roles != nil {
		u.Roles = append([]string(nil), u.Roles...)
	}
	if u.Permissions != nil {
		u.Permissions = append([]string(nil), u.Permissions...)
	}
	if u.LatestLoginAt != nil {
		t := *u.LatestLoginAt
		u.LatestLoginAt = &t
	}
	return u
}

// state is one published version of the session. It is never mutated after it
// has been stored in Store.cur.
type state struct {
	user  *User
	token string
	roles map[string]struct{}
	perms map[string]struct{}
}

func newState(u *User, token string) *state {
	st := &state{user: u, token: token}
	if u == nil {
		return st
	}
	st.roles = make(map[string]struct{}, len(u.Roles))
	for _, r := range u.Roles {
		st.roles[r] = struct{}{}
	}
	st.perms = make(map[string]struct{}, len(u.Permissions))
	for _, p := range u.Permissions {
		st.perms[p] = struct{}{}
	}
	return st
}

// State is an immutable view of the session at one point in time. The zero
// value is the anonymous state.
type State struct {
	s *state
}

// IsAuthenticated reports whether a user is present.
func (st State) IsAuthenticated() bool {
	return st.s != nil && st.s.user != nil
}

// User returns a copy of the identity record, or false when anonymous.
func (st State) User() (User, bool) {
	if !st.IsAuthenticated() {
		return User{}, false
	}
	return cloneUser(*st.s.user), true
}

// Token returns the credential token, or "" when none is held.
func (st State) Token() string {
	if st.s == nil {
		return ""
	}
	return st.s.token
}

// Roles returns the user's role codes, or nil when anonymous.
func (st State) Roles() []string {
	if !st.IsAuthenticated() {
		return nil
	}
	return append([]string(nil), st.s.user.Roles...)
}

// DisplayName returns nickname, then real name, then username; "" when anonymous.
func (st State) DisplayName() string {
	if !st.IsAuthenticated() {
		return ""
	}
	u := st.s.user
	switch {
	case u.Nickname != "":
		return u.Nickname
	case u.RealName != "":
		return u.RealName
	default:
		return u.Username
	}
}

// HasRole reports whether the user holds the role code.
func (st State) HasRole(code string) bool {
	if !st.IsAuthenticated() {
		return false
	}
	_, ok := st.s.roles[code]
	return ok
}

// IsSuperAdmin reports whether the user holds the super-admin role.
func (st State) IsSuperAdmin() bool {
	return st.HasRole(permission.SuperAdmin)
}

// HasPermission reports whether the user holds code. Super admins hold every
// code, whatever their explicit permission list says.
func (st State) HasPermission(code string) bool {
	if !st.IsAuthenticated() {
		return false
	}
	if st.IsSuperAdmin() {
		return true
	}
	_, ok := st.s.perms[code]
	return ok
}

// record converts the state into its persisted form.
func (st State) record() Record {
	if !st.IsAuthenticated() {
		return Record{}
	}
	u := cloneUser(*st.s.user)
	r := Record{User: &u, IsAuthenticated: true}
	if st.s.token != "" {
		token := st.s.token
		r.Token = &token
	}
	return r
}
