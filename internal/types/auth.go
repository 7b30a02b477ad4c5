package types

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/golang-jwt/jwt/v5"
)

// CurrentUser is the identity attached to a request by the auth middleware.
type CurrentUser struct {
	ID    string `json:"id" example:"d290f1ee-6c54-4b01-90e6-d701748f0851"` // Identifier issued by the remote API.
	Name  string `json:"name" example:"Nour"`                              // Display name, may be empty.
	Email string `json:"email" example:"nour@example.com"`                 // Email claim, may be empty.
	Token string `json:"-"`                                                // Raw bearer token, forwarded upstream.
	// Unverified is set when the token signature was not checked.
	Unverified bool `json:"-"`
}

// StateKey keys the state this service holds for the user. A claimed id is
// only trusted when the token was verified; otherwise the key is derived from
// the token itself so a forged claim cannot reach another user's state.
func (u *CurrentUser) StateKey() string {
	if !u.Unverified {
		return u.ID
	}
	sum := sha256.Sum256([]byte(u.Token))
	return "tok:" + hex.EncodeToString(sum[:])
}

// Claims are the claims the remote API is known to put in its access tokens.
// Several spellings of the user id are accepted; see Claims.Identity.
type Claims struct {
	UserID    string `json:"uid,omitempty"`
	NameID    string `json:"nameid,omitempty"`
	DotnetID  string `json:"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier,omitempty"`
	Name      string `json:"name,omitempty"`
	UniqueNm  string `json:"unique_name,omitempty"`
	Email     string `json:"email,omitempty"`
	DotnetEml string `json:"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress,omitempty"`
	jwt.RegisteredClaims
}

// Identity resolves the user described by the claims.
func (c *Claims) Identity(token string) *CurrentUser {
	id := firstNonEmpty(c.UserID, c.NameID, c.DotnetID, c.Subject)
	if id == "" {
		return nil
	}
	return &CurrentUser{
		ID:    id,
		Name:  firstNonEmpty(c.Name, c.UniqueNm),
		Email: firstNonEmpty(c.Email, c.DotnetEml),
		Token: token,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
