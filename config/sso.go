package config

import (
	"errors"
	"strings"
)

// DefaultEntryURL is the protected planning page that redirects to the CAS portal.
const DefaultEntryURL = "https://ade.bordeaux-inp.fr/direct/myplanning.jsp"

// SSOConfig contains the CAS portal login settings.
// Credentials are only needed by commands that open an RPC session.
type SSOConfig struct {
	EntryURL string `env:"CAS_ENTRY_URL" envDefault:"https://ade.bordeaux-inp.fr/direct/myplanning.jsp"`
	Username string `env:"CAS_USERNAME"`
	Password string `env:"CAS_PASSWORD"`
}

// Sanitize trims values and restores the default entry URL.
func (c *SSOConfig) Sanitize() {
	c.EntryURL = strings.TrimSpace(c.EntryURL)
	if c.EntryURL == "" {
		c.EntryURL = DefaultEntryURL
	}
	c.Username = strings.TrimSpace(c.Username)
}

// RequireCredentials reports missing credentials.
func (c *SSOConfig) RequireCredentials() error {
	var errs []error
	if c.Username == "" {
		errs = append(errs, errors.New("CAS_USERNAME is required"))
	}
	if c.Password == "" {
		errs = append(errs, errors.New("CAS_PASSWORD is required"))
	}
	return errors.Join(errs...)
}
