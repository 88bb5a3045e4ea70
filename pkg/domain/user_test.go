package domain

import (
	"reflect"
	"testing"
)

func TestUserApplyNormalizesNames(t *testing.T) {
	tests := []struct {
		name  string
		start User
		patch UserPatch
		want  string
	}{
		{"full_name fills name", User{}, UserPatch{FullName: Ptr("Jane Doe")}, "Jane Doe"},
		{"name fills full_name", User{}, UserPatch{Name: Ptr("John Doe")}, "John Doe"},
		{"full_name wins when both", User{}, UserPatch{Name: Ptr("a"), FullName: Ptr("b")}, "b"},
		{"overwrites stale pair", User{Name: "old", FullName: "old"}, UserPatch{Name: Ptr("new")}, "new"},
		{"untouched pair is synced", User{Name: "only"}, UserPatch{College: Ptr("X")}, "only"},
		{"trims whitespace", User{}, UserPatch{FullName: Ptr("  Ada  ")}, "Ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.Apply(tt.patch)
			if got.Name != tt.want || got.FullName != tt.want {
				t.Errorf("Apply() name=%q full_name=%q, want both %q", got.Name, got.FullName, tt.want)
			}
		})
	}
}

func TestUserApplyLeavesOtherFields(t *testing.T) {
	u := User{Email: "a@b.c", PhoneNumber: "+911234567890", College: "X", IsStaff: true}
	got := u.Apply(UserPatch{College: Ptr("Y")})
	if got.College != "Y" {
		t.Errorf("College = %q, want %q", got.College, "Y")
	}
	if got.PhoneNumber != u.PhoneNumber || got.Email != u.Email || !got.IsStaff {
		t.Errorf("Apply() changed unrelated fields: %+v", got)
	}
	if u.College != "X" {
		t.Error("Apply() mutated the receiver")
	}
}

func TestMissingProfileFields(t *testing.T) {
	tests := []struct {
		name       string
		user       User
		requireUSN bool
		want       []string
	}{
		{"complete", User{PhoneNumber: "+911234567890", College: "X"}, false, nil},
		{"missing phone", User{College: "X"}, false, []string{"phone_number"}},
		{"missing college", User{PhoneNumber: "1"}, false, []string{"college"}},
		{"blank counts as missing", User{PhoneNumber: " ", College: "X"}, false, []string{"phone_number"}},
		{"usn required", User{PhoneNumber: "1", College: "X"}, true, []string{"usn"}},
		{"usn present", User{PhoneNumber: "1", College: "X", USN: "1XX22CS001"}, true, nil},
		{"all missing", User{}, true, []string{"phone_number", "college", "usn"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.user.MissingProfileFields(tt.requireUSN)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MissingProfileFields() = %v, want %v", got, tt.want)
			}
			if tt.user.ProfileComplete(tt.requireUSN) != (len(tt.want) == 0) {
				t.Errorf("ProfileComplete() disagrees with MissingProfileFields()")
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := (User{Email: "e@x"}).DisplayName(); got != "e@x" {
		t.Errorf("DisplayName() = %q, want email fallback", got)
	}
	if got := (User{Email: "e@x", Name: "N"}).DisplayName(); got != "N" {
		t.Errorf("DisplayName() = %q, want %q", got, "N")
	}
}

func TestProfileUpdateRequestPatch(t *testing.T) {
	p := ProfileUpdateRequest{FullName: "Jane", PhoneNumber: "1", College: "X"}.Patch()
	if p.USN != nil {
		t.Error("expected nil USN for empty value")
	}
	got := User{}.Apply(p)
	if got.Name != "Jane" || got.College != "X" || got.PhoneNumber != "1" {
		t.Errorf("Apply(Patch()) = %+v", got)
	}
}

func TestProfilePatchSkipsEmptyFields(t *testing.T) {
	base := User{Email: "a@b.c", FullName: "Old", PhoneNumber: "+91111", College: "X"}
	got := base.Apply(User{Name: "Grace", College: "Y"}.ProfilePatch())

	if got.FullName != "Grace" || got.Name != "Grace" {
		t.Errorf("names = %q/%q, want Grace/Grace", got.Name, got.FullName)
	}
	if got.PhoneNumber != "+91111" {
		t.Errorf("PhoneNumber = %q, want it untouched", got.PhoneNumber)
	}
	if got.College != "Y" {
		t.Errorf("College = %q, want Y", got.College)
	}
}

func TestUserPatchMerge(t *testing.T) {
	p := UserPatch{FullName: Ptr("Req"), College: Ptr("X")}.Merge(UserPatch{College: Ptr("Y"), USN: Ptr("1XX")})

	if *p.FullName != "Req" {
		t.Errorf("FullName = %q, want Req", *p.FullName)
	}
	if *p.College != "Y" {
		t.Errorf("College = %q, want Y", *p.College)
	}
	if p.USN == nil || *p.USN != "1XX" {
		t.Errorf("USN = %v, want 1XX", p.USN)
	}
	if p.PhoneNumber != nil {
		t.Errorf("PhoneNumber = %q, want nil", *p.PhoneNumber)
	}
}
