package user

import "time"

const (
	RoleClient = "client"
	RoleLawyer = "lawyer"
	RoleExpat  = "expat"
	RoleAdmin  = "admin"
)

var ValidRoles = []string{RoleClient, RoleLawyer, RoleExpat, RoleAdmin}

type Profile struct {
	UID         string `firestore:"uid" json:"uid"`
	Email       string `firestore:"email,omitempty" json:"email,omitempty"`
	DisplayName string `firestore:"displayName,omitempty" json:"displayName,omitempty"`
	FirstName   string `firestore:"firstName,omitempty" json:"firstName,omitempty"`
	LastName    string `firestore:"lastName,omitempty" json:"lastName,omitempty"`

	Role      string   `firestore:"role,omitempty" json:"role,omitempty"`
	Roles     []string `firestore:"roles,omitempty" json:"roles,omitempty"`
	FCMTokens []string `firestore:"fcmTokens,omitempty" json:"-"`

	CreatedAt time.Time `firestore:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `firestore:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

func (p Profile) HasRole(r string) bool {
	if p.Role == r {
		return true
	}
	for _, x := range p.Roles {
		if x == r {
			return true
		}
	}
	return false
}

func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
