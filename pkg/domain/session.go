package domain

// Tokens is the access/refresh pair issued by the backend.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Empty reports whether no access token is present.
func (t Tokens) Empty() bool {
	return t.Access == ""
}

// LoginResponse is the payload returned by every login provider.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    User   `json:"user"`
}

// Tokens returns the credential pair carried by the response.
func (r LoginResponse) Tokens() Tokens {
	return Tokens{Access: r.Access, Refresh: r.Refresh}
}

// ProfileUpdateRequest is the body accepted by the profile endpoint.
type ProfileUpdateRequest struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	College     string `json:"college"`
	USN         string `json:"usn,omitempty"`
}

// Patch converts the request into a UserPatch for the local session.
func (r ProfileUpdateRequest) Patch() UserPatch {
	p := UserPatch{
		PhoneNumber: Ptr(r.PhoneNumber),
		College:     Ptr(r.College),
	}
	if r.FullName != "" {
		p.FullName = Ptr(r.FullName)
	}
	if r.USN != "" {
		p.USN = Ptr(r.USN)
	}
	return p
}
