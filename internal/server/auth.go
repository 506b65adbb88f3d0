package server

// DefaultAdminPassword is the documented fallback secret for local and demo
// use. Any real deployment must override it via configuration.
const DefaultAdminPassword = "weathernow"

// AdminGate authorizes mutating API calls against a shared secret.
type AdminGate struct {
	secret string
}

// NewAdminGate constructs a gate for the given secret. An empty secret falls
// back to DefaultAdminPassword.
func NewAdminGate(secret string) *AdminGate {
	if secret == "" {
		secret = DefaultAdminPassword
	}
	return &AdminGate{secret: secret}
}

// Authorize reports whether the supplied secret matches the configured one.
// The comparison is a plain string equality check, not a constant-time one;
// the threat model here is a shared kiosk password, not a remote oracle.
func (g *AdminGate) Authorize(supplied string) bool {
	return supplied == g.secret
}
