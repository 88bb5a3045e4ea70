package domain

import "strings"

// User is the signed-in club member as seen by the client.
// Name and FullName carry the same value; the backend uses both keys.
type User struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	FullName    string `json:"full_name,omitempty"`
	AvatarURL   string `json:"avatar,omitempty"`
	IsStaff     bool   `json:"is_staff"`
	PhoneNumber string `json:"phone_number,omitempty"`
	College     string `json:"college,omitempty"`
	USN         string `json:"usn,omitempty"`
}

// UserPatch is a partial update to a User. Nil fields are left untouched.
type UserPatch struct {
	Name        *string `json:"name,omitempty"`
	FullName    *string `json:"full_name,omitempty"`
	AvatarURL   *string `json:"avatar,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	College     *string `json:"college,omitempty"`
	USN         *string `json:"usn,omitempty"`
}

// DisplayName returns the best human-readable name for the user.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// NormalizeNames fills whichever of Name/FullName is empty from the other.
// When both are set and disagree, FullName wins.
func (u *User) NormalizeNames() {
	switch {
	case u.FullName != "":
		u.Name = u.FullName
	case u.Name != "":
		u.FullName = u.Name
	}
}

// Apply returns a copy of u with the patch merged in. A name supplied under
// either key is written to both; full_name wins if the patch carries both.
func (u User) Apply(p UserPatch) User {
	switch {
	case p.FullName != nil:
		u.FullName = strings.TrimSpace(*p.FullName)
		u.Name = u.FullName
	case p.Name != nil:
		u.Name = strings.TrimSpace(*p.Name)
		u.FullName = u.Name
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = strings.TrimSpace(*p.PhoneNumber)
	}
	if p.College != nil {
		u.College = strings.TrimSpace(*p.College)
	}
	if p.USN != nil {
		u.USN = strings.TrimSpace(*p.USN)
	}
	u.NormalizeNames()
	return u
}

// MissingProfileFields lists the profile fields that still need a value
// before gated actions may run. USN is only required when requireUSN is set.
func (u User) MissingProfileFields(requireUSN bool) []string {
	var missing []string
	if strings.TrimSpace(u.PhoneNumber) == "" {
		missing = append(missing, "phone_number")
	}
	if strings.TrimSpace(u.College) == "" {
		missing = append(missing, "college")
	}
	if requireUSN && strings.TrimSpace(u.USN) == "" {
		missing = append(missing, "usn")
	}
	return missing
}

// ProfileComplete reports whether the user may perform gated actions.
func (u User) ProfileComplete(requireUSN bool) bool {
	return len(u.MissingProfileFields(requireUSN)) == 0
}

// Merge returns p with every non-nil field of o laid over it.
func (p UserPatch) Merge(o UserPatch) UserPatch {
	for _, f := range []struct{ dst, src **string }{
		{&p.Name, &o.Name},
		{&p.FullName, &o.FullName},
		{&p.AvatarURL, &o.AvatarURL},
		{&p.PhoneNumber, &o.PhoneNumber},
		{&p.College, &o.College},
		{&p.USN, &o.USN},
	} {
		if *f.src != nil {
			*f.dst = *f.src
		}
	}
	return p
}

// Ptr is a small helper for building UserPatch values.
func Ptr(s string) *string { return &s }

// ProfilePatch returns the non-empty profile fields of u as a patch, for
// merging a server user record into the local session.
func (u User) ProfilePatch() UserPatch {
	var p UserPatch
	set := func(dst **string, v string) {
		if v != "" {
			*dst = Ptr(v)
		}
	}
	set(&p.FullName, u.FullName)
	if p.FullName == nil {
		set(&p.Name, u.Name)
	}
	set(&p.PhoneNumber, u.PhoneNumber)
	set(&p.College, u.College)
	set(&p.USN, u.USN)
	return p
}
