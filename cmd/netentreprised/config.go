package main

import (
	"fmt"

	configlibsql "netentreprise-backend/lib/configutil/libsql"
	"netentreprise-backend/lib/delivery"
	"netentreprise-backend/services/declsync"
)

var defaultHours = []int{7, 19}

type Config struct {
	Accounts []declsync.Account  `json:"accounts"`
	State    configlibsql.Struct `json:"state"`
	Delivery delivery.Config     `json:"delivery"`

	// hours of the day (Europe/Paris) at which every account is synced,
	// defaults to 7 and 19
	Hours             []int   `json:"hours"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("no account configured")
	}
	seen := map[string]bool{}
	for _, account := range c.Accounts {
		if account.Siret == "" || account.Password == "" {
			return fmt.Errorf("account '%s' is missing its siret or password", account.Key())
		}
		if seen[account.Key()] {
			return fmt.Errorf("account '%s' is configured twice", account.Key())
		}
		seen[account.Key()] = true
	}
	if len(c.Hours) == 0 {
		c.Hours = defaultHours
	}
	for _, h := range c.Hours {
		if h < 0 || h > 23 {
			return fmt.Errorf("invalid hour %d", h)
		}
	}
	return nil
}
