package plaid

import (
	"fmt"

	plaidsdk "github.com/plaid/plaid-go/v41/plaid"
)

// NewSDKClient builds a plaid-go client, used only for webhook verification
// key retrieval. All data-plane calls go through Client.
func NewSDKClient(clientID, secret, env string) (*plaidsdk.APIClient, error) {
	configuration := plaidsdk.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	configuration.AddDefaultHeader("PLAID-SECRET", secret)

	switch env {
	case "sandbox":
		configuration.UseEnvironment(plaidsdk.Sandbox)
	case "production":
		configuration.UseEnvironment(plaidsdk.Production)
	default:
		return nil, fmt.Errorf("invalid Plaid environment: %s", env)
	}

	return plaidsdk.NewAPIClient(configuration), nil
}
