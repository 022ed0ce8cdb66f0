package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCapability_NilRecordGrantsNothing(t *testing.T) {
	u := User{IsStaff: true}

	assert.False(t, u.HasCapability(CapabilityInstallation))
	assert.False(t, u.HasCapability(CapabilityOffers))
	assert.False(t, u.HasCapability(CapabilityRequests))
	assert.False(t, u.HasCapability(CapabilityAdministrativeProcedures))
}

func TestHasCapability_ReadsRecordFlags(t *testing.T) {
	u := User{UserAccess: &UserAccess{Offers: true, Requests: true}}

	assert.False(t, u.HasCapability(CapabilityInstallation))
	assert.True(t, u.HasCapability(CapabilityOffers))
	assert.True(t, u.HasCapability(CapabilityRequests))
	assert.False(t, u.HasCapability(CapabilityAdministrativeProcedures))
}

func TestHasCapability_UnknownCapability(t *testing.T) {
	u := User{UserAccess: &UserAccess{Installation: true, Offers: true, Requests: true}}

	assert.False(t, u.HasCapability(Capability("billing")))
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Jeanne Martin", User{FirstName: "Jeanne", LastName: "Martin"}.FullName())
	assert.Equal(t, "Jeanne", User{FirstName: "Jeanne"}.FullName())
	assert.Equal(t, "Martin", User{LastName: "Martin"}.FullName())
	assert.Equal(t, "j.martin@example.com", User{Email: "j.martin@example.com"}.FullName())
}

func TestLandingRoute_NoUser(t *testing.T) {
	assert.Equal(t, RouteLogin, LandingRoute(nil))
}

func TestLandingRoute_SuperuserIgnoresCapabilities(t *testing.T) {
	u := &User{IsSuperuser: true, IsStaff: true, UserAccess: &UserAccess{Requests: true}}
	assert.Equal(t, RouteHome, LandingRoute(u))

	// Even with no capability record at all.
	assert.Equal(t, RouteHome, LandingRoute(&User{IsSuperuser: true}))
}

func TestLandingRoute_StaffPrecedence(t *testing.T) {
	cases := []struct {
		name   string
		access *UserAccess
		want   string
	}{
		{"installation wins", &UserAccess{Installation: true, Offers: true, Requests: true}, RouteInstallations},
		{"offers next", &UserAccess{Offers: true, Requests: true}, RouteOffers},
		{"requests next", &UserAccess{Requests: true}, RouteRequests},
		{"no capability falls back to account settings", &UserAccess{}, RouteAccountSettings},
		{"absent record falls back to account settings", nil, RouteAccountSettings},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &User{IsStaff: true, UserAccess: tc.access}
			assert.Equal(t, tc.want, LandingRoute(u))
		})
	}
}

func TestLandingRoute_NonStaffDefaultsToInstallations(t *testing.T) {
	u := &User{Role: RoleCustomer}
	assert.Equal(t, RouteInstallations, LandingRoute(u))
}
