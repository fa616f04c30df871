package rbac

import (
	"errors"
	"testing"
)

func TestCapabilitiesFor_OnboardingOnlyForClients(t *testing.T) {
	cases := []struct {
		role string
		want bool
	}{
		{RoleClient, true},
		{RoleManager, false},
		{RoleDeveloper, false},
		{"stranger", true},
	}
	for _, tc := range cases {
		if got := CapabilitiesFor(tc.role).SubjectToOnboarding; got != tc.want {
			t.Fatalf("role %q: expected SubjectToOnboarding=%v, got %v", tc.role, tc.want, got)
		}
	}
}

func TestCheckPermission(t *testing.T) {
	if err := CheckPermission(RoleClient, PermissionCreateProject); err != nil {
		t.Fatalf("expected client to create projects, got %v", err)
	}
	if err := CheckPermission(RoleManager, PermissionCreateProject); err == nil {
		t.Fatalf("expected manager to be denied project creation")
	}

	err := CheckPermission(RoleClient, PermissionReadAnyProject)
	var denied *PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected PermissionDeniedError, got %v", err)
	}
	if denied.Permission != PermissionReadAnyProject {
		t.Fatalf("unexpected permission in error: %s", denied.Permission)
	}
}
