package auth

// Canonical application routes the session layer redirects to. The view
// layer owns everything below these prefixes.
const (
	RouteLogin           = "/login"
	RouteHome            = "/home"
	RouteInstallations   = "/home/installations"
	RouteOffers          = "/home/offers"
	RouteRequests        = "/home/requests"
	RouteAccountSettings = "/home/settings/account"
)

// LandingRoute computes the canonical destination for a user, first match
// wins:
//
//  1. no user            -> login
//  2. superuser          -> home
//  3. staff + installation capability -> installations
//  4. staff + offers capability       -> offers
//  5. staff + requests capability     -> requests
//  6. staff, no matching capability   -> account settings
//  7. anyone else (customer-facing)   -> installations
//
// The result depends only on the user value, never on the navigation that
// triggered the computation.
func LandingRoute(u *User) string {
	if u == nil {
		return RouteLogin
	}
	if u.IsSuperuser {
		return RouteHome
	}
	if u.IsStaff {
		switch {
		case u.HasCapability(CapabilityInstallation):
			return RouteInstallations
		case u.HasCapability(CapabilityOffers):
			return RouteOffers
		case u.HasCapability(CapabilityRequests):
			return RouteRequests
		default:
			return RouteAccountSettings
		}
	}
	return RouteInstallations
}
