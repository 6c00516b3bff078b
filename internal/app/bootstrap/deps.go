package bootstrap

import "github.com/dalemusser/signup/pantry/session"

// Deps holds the backends opened at startup.
type Deps struct {
	Sessions *session.Manager
}
