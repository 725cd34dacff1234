package authz

import "strings"

type Role string
type Action string

const (
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
	RoleDosen     Role = "dosen"
	RoleMahasiswa Role = "mahasiswa"
)

const (
	ActionViewAdminStats    Action = "viewAdminStats"
	ActionManageContacts    Action = "manageContacts"
	ActionCreateMember      Action = "createMember"
	ActionEditMember        Action = "editMember"
	ActionSetMemberOfficial Action = "setMemberOfficial"
	ActionDeleteMember      Action = "deleteMember"
	ActionManageLedger      Action = "manageLedger"
	ActionManageSchedule    Action = "manageSchedule"
	ActionManageUsers       Action = "manageUsers"
	ActionViewFullEmail     Action = "viewFullEmail"
)

// Can reports whether role may perform action. Every privileged action is
// admin-only; the switch stays in place so per-role grants can be added
// without touching call sites.
func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	default:
		return false
	}
}

// Normalize maps an arbitrary stored role string onto the closed enum,
// falling back to the least-privileged role.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleAdmin, RoleUser, RoleDosen, RoleMahasiswa:
		return Role(role)
	default:
		return RoleUser
	}
}

// Actor is the resolved identity a mutation is performed as. It is built
// once per session by the session resolver and passed explicitly into
// every service call that needs authorization or audit stamping.
type Actor struct {
	UID   string
	Name  string
	Email string
	Role  Role
}

// MaskEmail hides the local part of an address for viewers without the
// viewFullEmail grant: the first character survives for short local parts,
// the first two otherwise, padded with '*' to the original length.
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}
	local, domain := email[:at], email[at+1:]
	var masked string
	if len(local) <= 2 {
		masked = local[:1] + "*"
	} else {
		masked = local[:2] + strings.Repeat("*", len(local)-2)
	}
	return masked + "@" + domain
}
