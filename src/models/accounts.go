package models

// UserAccount is one upstream account decorated with the item and institution
// it came from.
type UserAccount struct {
	AccountID          string           `json:"account_id"`
	Name               string           `json:"name"`
	Type               string           `json:"type"`
	Subtype            string           `json:"subtype"`
	Mask               string           `json:"mask"`
	Balances           *AccountBalances `json:"balances,omitempty"`
	ItemID             string           `json:"item_id"`
	InstitutionID      string           `json:"institution_id,omitempty"`
	InstitutionIconURL string           `json:"institution_icon_url,omitempty"`
}

type AccountBalances struct {
	Available       *float64 `json:"available"`
	Current         *float64 `json:"current"`
	Limit           *float64 `json:"limit"`
	ISOCurrencyCode string   `json:"iso_currency_code,omitempty"`
}

// ItemSummary describes one linked institution in the aggregate response.
type ItemSummary struct {
	ItemID             string `json:"item_id"`
	InstitutionID      string `json:"institution_id,omitempty"`
	InstitutionIconURL string `json:"institution_icon_url,omitempty"`
}

type UserAccountsResponse struct {
	Accounts      []UserAccount `json:"accounts"`
	Items         []ItemSummary `json:"items"`
	TotalAccounts int           `json:"total_accounts"`
}
