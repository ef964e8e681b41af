package config

type Environment struct {
	IsDevelopment bool
	Domain        string
	CookieSecure  bool
}

// NewEnvironment derives cookie settings from the cookie domain. No domain
// means local development: host-only, non secure cookies.
func NewEnvironment(domain string) Environment {
	isDev := domain == ""
	if isDev {
		domain = "localhost"
	}

	return Environment{
		IsDevelopment: isDev,
		Domain:        domain,
		CookieSecure:  !isDev,
	}
}
