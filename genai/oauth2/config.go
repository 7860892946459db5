package oauth2

import "golang.org/x/oauth2"

// Endpoint matches oauth2.Endpoint but with YAML/JSON tags for workspace files.
type Endpoint struct {
	AuthURL  string `yaml:"authURL"  json:"authURL"`
	TokenURL string `yaml:"tokenURL" json:"tokenURL"`
}

// Config pairs a name with an embedded oauth2.Config. ClientSecret is an
// ordinary field of that struct; nothing in this package encrypts or
// persists it.
type Config struct {
	Name          string
	oauth2.Config `yaml:",inline"`
}
