package model

// User is the authenticated principal extracted from the request JWT.
type User struct {
	// Sub is the token subject, used as the audit identity on version records
	Sub string `validate:"required"`

	Roles []string
}
