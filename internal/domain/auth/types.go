package auth

// Package auth contains domain-level types for the portal session layer.
// It is pure and free of framework/adapter concerns.

// Role is an application role tag. The native values are defined as
// constants below, but the upstream admits dynamically created roles, so
// the type stays an open string rather than a closed enum.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCustomer     Role = "customer"
	RoleCollaborator Role = "collaborator"
	RoleSales        Role = "sales"
	RoleInstaller    Role = "installer"
)

// Capability names one of the fine-grained access gates attached to staff
// accounts.
type Capability string

const (
	CapabilityInstallation             Capability = "installation"
	CapabilityOffers                   Capability = "offers"
	CapabilityRequests                 Capability = "requests"
	CapabilityAdministrativeProcedures Capability = "administrative_procedures"
)

// UserAccess is the per-user capability record. A nil record on User means
// no fine-grained capability has been resolved and gates as all-false.
type UserAccess struct {
	Installation             bool `json:"installation"`
	Offers                   bool `json:"offers"`
	Requests                 bool `json:"requests"`
	AdministrativeProcedures bool `json:"administrative_procedures"`
}

// User is the authenticated principal as returned by the identity API.
// It is the sole entity the session store holds; "no user" is represented
// by the absence of a value, never by a zero-valued User.
type User struct {
	ID               string      `json:"id"`
	FirstName        string      `json:"first_name"`
	LastName         string      `json:"last_name"`
	Email            string      `json:"email"`
	Role             Role        `json:"role"`
	IsActive         bool        `json:"is_active"`
	AcceptInvitation bool        `json:"accept_invitation"`
	IsStaff          bool        `json:"is_staff"`
	IsSuperuser      bool        `json:"is_superuser"`
	UserAccess       *UserAccess `json:"useraccess,omitempty"`
}

// HasCapability reports whether the user's capability record grants cap.
// An absent record grants nothing.
func (u User) HasCapability(cap Capability) bool {
	if u.UserAccess == nil {
		return false
	}
	switch cap {
	case CapabilityInstallation:
		return u.UserAccess.Installation
	case CapabilityOffers:
		return u.UserAccess.Offers
	case CapabilityRequests:
		return u.UserAccess.Requests
	case CapabilityAdministrativeProcedures:
		return u.UserAccess.AdministrativeProcedures
	default:
		return false
	}
}

// FullName returns "First Last", falling back to whichever part is set and
// finally to the email address.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Email
	}
}
