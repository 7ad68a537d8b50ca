package models

type ExchangeTokenRequest struct {
	PublicToken      string `json:"public_token"`
	Auth0AccessToken string `json:"auth0_access_token"`
}

type UserAccountsRequest struct {
	Auth0AccessToken string `json:"auth0AccessToken"`
}

// UserTransactionsRequest carries the bearer token and an optional date range
// (yyyy-mm-dd). Missing dates default to the last 30 days.
type UserTransactionsRequest struct {
	Auth0AccessToken string `json:"auth0AccessToken"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
}

type FireWebhookRequest struct {
	Auth0AccessToken string `json:"auth0_access_token"`
	ItemID           string `json:"item_id"`
	WebhookCode      string `json:"webhook_code"`
}
