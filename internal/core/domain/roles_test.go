package domain

import (
	"reflect"
	"testing"
)

func TestParseRole(t *testing.T) {
	if _, err := ParseRole("student"); err != nil {
		t.Errorf("ParseRole(student) unexpected error: %v", err)
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Error("ParseRole(superuser) should fail")
	}
	if _, err := ParseRole(""); err == nil {
		t.Error("ParseRole of empty string should fail")
	}
}

func TestParseRoleSet(t *testing.T) {
	t.Run("empty input yields default", func(t *testing.T) {
		set, err := ParseRoleSet(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(set, RoleSet{RoleStudent}) {
			t.Errorf("got %v, want default student set", set)
		}
	})

	t.Run("deduplicates", func(t *testing.T) {
		set, err := ParseRoleSet([]string{"teacher", "teacher", "parent"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(set) != 2 {
			t.Errorf("got %v, want 2 distinct roles", set)
		}
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		if _, err := ParseRoleSet([]string{"student", "wizard"}); err == nil {
			t.Error("expected error for unknown role")
		}
	})
}

func TestRoleSetIntersects(t *testing.T) {
	set := RoleSet{RoleStudent, RoleTeacher}

	if !set.Intersects(RoleTeacher, RolePlatformAdmin) {
		t.Error("should intersect on teacher")
	}
	if set.Intersects(RolePlatformAdmin, RoleSubAdmin) {
		t.Error("should not intersect with admin roles")
	}
	if set.Intersects() {
		t.Error("empty requirement should not match")
	}
}

func TestHasPrivileged(t *testing.T) {
	if (RoleSet{RoleStudent, RoleTeacher}).HasPrivileged() {
		t.Error("student/teacher set should not be privileged")
	}
	if !(RoleSet{RoleStudent, RoleSubAdmin}).HasPrivileged() {
		t.Error("set containing sub_admin should be privileged")
	}
	if !RolePlatformAdmin.IsPrivileged() {
		t.Error("platform_admin should be privileged")
	}
}
