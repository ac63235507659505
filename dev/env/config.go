package devenv

// PortalTestConfig is read from dev/.state/netentreprises.json5, tests that
// talk to the real portal are skipped when it is missing.
type PortalTestConfig struct {
	Siret     string `json:"siret"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Password  string `json:"password"`
}
