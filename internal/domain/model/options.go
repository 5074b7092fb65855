package model

// DefaultRefreshTime is the polling interval, in seconds, used when no
// options have been saved yet.
const DefaultRefreshTime = 30

// Credentials are the HTTP basic-auth pair sent with every Gerrit request.
type Credentials struct {
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password" yaml:"password"`
}

// IsEmpty reports whether neither field is set.
func (c Credentials) IsEmpty() bool {
	return c.Email == "" && c.Password == ""
}

// Options is the endpoint configuration edited through the options surface
// and read back by the poller on every restart.
type Options struct {
	RefreshTime int         `json:"refreshTime" yaml:"refreshTime"`
	Endpoint    string      `json:"endpoint" yaml:"endpoint"`
	Credentials Credentials `json:"credentials" yaml:"credentials"`
}

// DefaultOptions returns the configuration used before the user saves any.
func DefaultOptions() Options {
	return Options{RefreshTime: DefaultRefreshTime}
}

// IsConfigured reports whether an endpoint has been set.
func (o Options) IsConfigured() bool {
	return o.Endpoint != ""
}
