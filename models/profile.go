package models

// Profile is what the identity provider knows about a user.
type Profile struct {
	Name     string `json:"name"`
	Roll     string `json:"roll"`
	Email    string `json:"email"`
	PhotoRef string `json:"photoRef"`
}
