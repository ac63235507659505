package delivery

import (
	devenv "netentreprise-backend/dev/env"
	"netentreprise-backend/lib/telemetry"
)

// Config is the "delivery" section of the config files.
type Config struct {
	// may start with <dev_state>, no files are written when empty
	Directory   string       `json:"directory"`
	Identifiers []string     `json:"identifiers"`
	Email       *EmailConfig `json:"email"`
}

func (c Config) Options() Options {
	opts := DefaultOptions()
	if len(c.Identifiers) > 0 {
		opts.Identifiers = c.Identifiers
	}
	return opts
}

// Savers returns a saver per configured destination.
func (c Config) Savers(tel telemetry.API) (MultiSaver, error) {
	var savers MultiSaver
	if c.Directory != "" {
		dir, err := devenv.ResolvePath(c.Directory)
		if err != nil {
			return nil, err
		}
		savers = append(savers, NewFilesystemSaver(dir, tel))
	}
	if c.Email != nil && len(c.Email.To) > 0 {
		savers = append(savers, NewEmailSaver(*c.Email, tel))
	}
	return savers, nil
}
