package models

// ConfigResponse is the public configuration served to the frontend. It must
// never carry secrets.
type ConfigResponse struct {
	Auth0    Auth0Config    `json:"auth0"`
	API      APIConfig      `json:"api"`
	Features FeaturesConfig `json:"features"`
}

type Auth0Config struct {
	Domain      string `json:"domain"`
	ClientID    string `json:"clientId"`
	RedirectURI string `json:"redirectUri,omitempty"`
	Audience    string `json:"audience,omitempty"`
}

type APIConfig struct {
	BaseURL string `json:"baseUrl"`
}

type FeaturesConfig struct {
	EnablePlaid bool `json:"enablePlaid"`
}
