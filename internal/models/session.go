package models

// Session held by the token store
// Empty token strings and nil user mean the field is unset
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

func (s Session) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.User == nil
}

// Authenticated reports whether the session may be used to call the backend:
// a known user and at least one token to present or to refresh with
func (s Session) Authenticated() bool {
	return s.User != nil && (s.AccessToken != "" || s.RefreshToken != "")
}
