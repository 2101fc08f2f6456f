package comscore

import "fmt"

// UserConsent is the tri-state consent value forwarded to the vendor
type UserConsent string

// User consent constants. The wire values are the vendor's cs_ucfr codes.
const (
	ConsentDenied  UserConsent = "0"
	ConsentGranted UserConsent = "1"
	ConsentUnknown UserConsent = "-1"
)

// IsValid checks if the consent value is known
func (c UserConsent) IsValid() bool {
	switch c {
	case ConsentDenied, ConsentGranted, ConsentUnknown:
		return true
	default:
		return false
	}
}

// UpdateMode controls whether usage properties keep updating while the host
// application is backgrounded
type UpdateMode string

// Update mode constants
const (
	UpdateModeForegroundOnly          UpdateMode = "foregroundOnly"
	UpdateModeForegroundAndBackground UpdateMode = "foregroundAndBackground"
	UpdateModeDisabled                UpdateMode = "disabled"
)

// IsValid checks if the update mode is known
func (m UpdateMode) IsValid() bool {
	switch m {
	case UpdateModeForegroundOnly, UpdateModeForegroundAndBackground, UpdateModeDisabled:
		return true
	default:
		return false
	}
}

// Configuration holds the per-session vendor settings. Immutable for the life
// of a session instance.
type Configuration struct {
	PublisherID     string // The c2 value assigned by the vendor
	ApplicationName string
	UserConsent     UserConsent
	UpdateMode      UpdateMode // Defaults to foregroundOnly when empty
	Debug           bool
}

// Validate checks that required fields are present and enum values are known
func (c *Configuration) Validate() error {
	if c.PublisherID == "" {
		return fmt.Errorf("publisher id is required")
	}
	if c.ApplicationName == "" {
		return fmt.Errorf("application name is required")
	}
	if !c.UserConsent.IsValid() {
		return fmt.Errorf("invalid user consent: %q", c.UserConsent)
	}
	if c.UpdateMode != "" && !c.UpdateMode.IsValid() {
		return fmt.Errorf("invalid update mode: %q", c.UpdateMode)
	}
	return nil
}

// EffectiveUpdateMode returns the configured update mode, defaulting to
// foregroundOnly
func (c *Configuration) EffectiveUpdateMode() UpdateMode {
	if c.UpdateMode == "" {
		return UpdateModeForegroundOnly
	}
	return c.UpdateMode
}
