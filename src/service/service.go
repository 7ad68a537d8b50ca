package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"budgetguard-server/src/models"
	"budgetguard-server/src/plaid"
	"budgetguard-server/src/vault"
)

const logoCDNFormat = "https://cdn.plaid.com/institutions/logos/%s.png"

type identityVerifier interface {
	Verify(token string) (string, error)
}

type userDirectory interface {
	GetOrCreate(ctx context.Context, subjectID string) (*models.User, error)
}

type credentialVault interface {
	ListCredentials(ctx context.Context, subjectID string) ([]models.Credential, error)
	FirstCredential(ctx context.Context, subjectID string) (*models.Credential, error)
	CredentialForItem(ctx context.Context, subjectID, itemID string) (*models.Credential, error)
	Upsert(ctx context.Context, subjectID, accessToken, itemID, institutionID, institutionName, logoURL, email, name string) error
	Remove(ctx context.Context, subjectID, itemID string) error
	RemoveAll(ctx context.Context, subjectID string) error
}

// Service composes the verifier, the user directory, the vault and the Plaid
// client into the operations the HTTP layer exposes. Every method that acts
// for a user takes the raw bearer token and resolves it here.
type Service struct {
	verifier identityVerifier
	users    userDirectory
	vault    credentialVault
	plaid    *plaid.Client
	logos    *LogoCache
}

func New(verifier identityVerifier, users userDirectory, creds credentialVault, plaidClient *plaid.Client, logos *LogoCache) *Service {
	return &Service{
		verifier: verifier,
		users:    users,
		vault:    creds,
		plaid:    plaidClient,
		logos:    logos,
	}
}

// authenticate verifies the bearer token and makes sure a user row exists for
// its subject.
func (s *Service) authenticate(ctx context.Context, bearer string) (string, error) {
	subjectID, err := s.verifier.Verify(bearer)
	if err != nil {
		return "", err
	}
	if _, err := s.users.GetOrCreate(ctx, subjectID); err != nil {
		return "", err
	}
	return subjectID, nil
}

func (s *Service) CreateLinkToken(ctx context.Context) (*plaid.LinkTokenCreateResponse, error) {
	return s.plaid.CreateLinkToken(ctx)
}

// ExchangePublicToken swaps the public token for a durable access token and
// stores it for the authenticated user, keyed by the returned item id.
// Institution metadata is best effort: a failed accounts lookup does not fail
// the exchange.
func (s *Service) ExchangePublicToken(ctx context.Context, bearer, publicToken string) (*plaid.ExchangeTokenResponse, error) {
	subjectID, err := s.authenticate(ctx, bearer)
	if err != nil {
		return nil, err
	}

	exchange, err := s.plaid.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: Exchanged public token for user %s, item %s", subjectID, exchange.ItemID)

	var institutionID, logoURL string
	if accounts, err := s.plaid.GetAccounts(ctx, exchange.AccessToken); err != nil {
		log.Printf("WARN: Could not fetch accounts for institution info on item %s: %v", exchange.ItemID, err)
	} else {
		institutionID = accounts.Item.InstitutionID
		logoURL = accounts.Item.LogoURL
	}

	if err := s.vault.Upsert(ctx, subjectID, exchange.AccessToken, exchange.ItemID, institutionID, "", logoURL, "", ""); err != nil {
		return nil, fmt.Errorf("store access token for item %s: %w", exchange.ItemID, err)
	}
	return exchange, nil
}

// ListUserAccounts aggregates accounts across every linked institution. One
// unreachable institution is logged and omitted; the aggregate still
// succeeds.
func (s *Service) ListUserAccounts(ctx context.Context, bearer string) (*models.UserAccountsResponse, error) {
	subjectID, err := s.authenticate(ctx, bearer)
	if err != nil {
		return nil, err
	}

	creds, err := s.vault.ListCredentials(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	resp := &models.UserAccountsResponse{
		Accounts: []models.UserAccount{},
		Items:    []models.ItemSummary{},
	}
	if len(creds) == 0 {
		log.Printf("INFO: No Plaid tokens found for user %s. Returning empty accounts list.", subjectID)
		return resp, nil
	}

	for _, cred := range creds {
		accounts, err := s.plaid.GetAccounts(ctx, cred.AccessToken)
		if err != nil {
			log.Printf("WARN: Failed to fetch accounts for item %s: %v", cred.ItemID, err)
			continue
		}

		itemID := accounts.Item.ItemID
		if itemID == "" {
			itemID = cred.ItemID
		}
		institutionID := accounts.Item.InstitutionID
		if institutionID == "" {
			institutionID = cred.InstitutionID
		}
		iconURL := s.resolveIconURL(ctx, cred.AccessToken, itemID, institutionID, accounts.Item.LogoURL)

		for _, account := range accounts.Accounts {
			balances := account.Balances
			resp.Accounts = append(resp.Accounts, models.UserAccount{
				AccountID: account.AccountID,
				Name:      account.Name,
				Type:      account.Type,
				Subtype:   account.Subtype,
				Mask:      account.Mask,
				Balances: &models.AccountBalances{
					Available:       balances.Available,
					Current:         balances.Current,
					Limit:           balances.Limit,
					ISOCurrencyCode: balances.ISOCurrencyCode,
				},
				ItemID:             itemID,
				InstitutionID:      institutionID,
				InstitutionIconURL: iconURL,
			})
		}

		resp.Items = append(resp.Items, models.ItemSummary{
			ItemID:             itemID,
			InstitutionID:      institutionID,
			InstitutionIconURL: iconURL,
		})
	}

	resp.TotalAccounts = len(resp.Accounts)
	log.Printf("INFO: Retrieved %d accounts across %d items for user %s", resp.TotalAccounts, len(resp.Items), subjectID)
	return resp, nil
}

// resolveIconURL picks an institution icon with this precedence: the logo on
// the accounts response, a logo discovered through a supplementary
// transactions call (memoized per item), then a URL constructed from the
// institution id.
func (s *Service) resolveIconURL(ctx context.Context, accessToken, itemID, institutionID, accountsLogoURL string) string {
	if accountsLogoURL != "" {
		s.logos.Set(itemID, accountsLogoURL)
		return accountsLogoURL
	}

	if url, ok := s.logos.Get(itemID); ok {
		return url
	}

	if itemID != "" {
		end := time.Now()
		start := end.AddDate(0, 0, -30)
		if transactions, err := s.plaid.GetTransactions(ctx, accessToken, start, end); err != nil {
			log.Printf("WARN: Could not fetch transactions for logo of item %s: %v", itemID, err)
		} else if transactions.Item.LogoURL != "" {
			s.logos.Set(itemID, transactions.Item.LogoURL)
			return transactions.Item.LogoURL
		}
	}

	if institutionID != "" {
		return fmt.Sprintf(logoCDNFormat, institutionID)
	}
	return ""
}

// ListUserTransactions fetches transactions through the user's first stored
// credential. Users with multiple linked institutions still get only the
// first one here; see DESIGN.md. A user with no credential gets an empty list
// and no error.
func (s *Service) ListUserTransactions(ctx context.Context, bearer, startDate, endDate string) (*plaid.TransactionsGetResponse, error) {
	subjectID, err := s.authenticate(ctx, bearer)
	if err != nil {
		return nil, err
	}

	cred, err := s.vault.FirstCredential(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		log.Printf("INFO: No Plaid token found for user %s. Returning empty transactions list.", subjectID)
		return &plaid.TransactionsGetResponse{Transactions: []plaid.Transaction{}}, nil
	}

	start, end, err := resolveDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	transactions, err := s.plaid.GetTransactions(ctx, cred.AccessToken, start, end)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: Fetched %d transactions for user %s", len(transactions.Transactions), subjectID)
	return transactions, nil
}

// ListItems returns credential metadata for every linked institution. Access
// tokens stay out of the response.
func (s *Service) ListItems(ctx context.Context, bearer string) ([]models.ItemSummary, error) {
	subjectID, err := s.authenticate(ctx, bearer)
	if err != nil {
		return nil, err
	}

	creds, err := s.vault.ListCredentials(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	items := []models.ItemSummary{}
	for _, cred := range creds {
		iconURL := cred.InstitutionLogoURL
		if iconURL == "" && cred.InstitutionID != "" {
			iconURL = fmt.Sprintf(logoCDNFormat, cred.InstitutionID)
		}
		items = append(items, models.ItemSummary{
			ItemID:             cred.ItemID,
			InstitutionID:      cred.InstitutionID,
			InstitutionIconURL: iconURL,
		})
	}
	return items, nil
}

// RemoveItem unlinks one institution. Removing an unknown item is a no-op.
func (s *Service) RemoveItem(ctx context.Context, bearer, itemID string) error {
	subjectID, err := s.authenticate(ctx, bearer)
	if err != nil {
		return err
	}
	return s.vault.Remove(ctx, subjectID, itemID)
}

func (s *Service) RemoveAllItems(ctx context.Context, bearer string) error {
	subjectID, err := s.authenticate(ctx, bearer)
	if err != nil {
		return err
	}
	return s.vault.RemoveAll(ctx, subjectID)
}

// FireSandboxWebhook triggers a test webhook for one of the user's items.
// With no item id it falls back to the first stored credential.
func (s *Service) FireSandboxWebhook(ctx context.Context, bearer, itemID, webhookCode string) (*plaid.WebhookFireResponse, error) {
	subjectID, err := s.authenticate(ctx, bearer)
	if err != nil {
		return nil, err
	}

	var cred *models.Credential
	if itemID != "" {
		cred, err = s.vault.CredentialForItem(ctx, subjectID, itemID)
	} else {
		cred, err = s.vault.FirstCredential(ctx, subjectID)
	}
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, &vault.InvalidArgumentError{Msg: "no linked Plaid item to fire a webhook for"}
	}

	return s.plaid.FireWebhook(ctx, cred.AccessToken, webhookCode)
}

func resolveDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	var err error
	if startDate != "" {
		if start, err = time.Parse("2006-01-02", startDate); err != nil {
			return time.Time{}, time.Time{}, &vault.InvalidArgumentError{Msg: "startDate must be formatted yyyy-mm-dd"}
		}
	}
	if endDate != "" {
		if end, err = time.Parse("2006-01-02", endDate); err != nil {
			return time.Time{}, time.Time{}, &vault.InvalidArgumentError{Msg: "endDate must be formatted yyyy-mm-dd"}
		}
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, &vault.InvalidArgumentError{Msg: "startDate must not be after endDate"}
	}
	return start, end, nil
}
