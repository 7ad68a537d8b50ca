package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"budgetguard-server/src/auth"
	"budgetguard-server/src/models"
	"budgetguard-server/src/plaid"
	"budgetguard-server/src/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	subject string
	err     error
}

func (f fakeVerifier) Verify(token string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.subject, nil
}

type fakeDirectory struct{}

func (fakeDirectory) GetOrCreate(ctx context.Context, subjectID string) (*models.User, error) {
	return &models.User{ID: "user-uuid", Auth0UserID: subjectID}, nil
}

type upsertCall struct {
	subjectID, accessToken, itemID, institutionID, logoURL string
}

type fakeVault struct {
	creds      []models.Credential
	upserts    []upsertCall
	removed    []string
	removedAll bool
}

func (f *fakeVault) ListCredentials(ctx context.Context, subjectID string) ([]models.Credential, error) {
	return f.creds, nil
}

func (f *fakeVault) FirstCredential(ctx context.Context, subjectID string) (*models.Credential, error) {
	if len(f.creds) == 0 {
		return nil, nil
	}
	return &f.creds[0], nil
}

func (f *fakeVault) CredentialForItem(ctx context.Context, subjectID, itemID string) (*models.Credential, error) {
	for i := range f.creds {
		if f.creds[i].ItemID == itemID {
			return &f.creds[i], nil
		}
	}
	return nil, nil
}

func (f *fakeVault) Upsert(ctx context.Context, subjectID, accessToken, itemID, institutionID, institutionName, logoURL, email, name string) error {
	f.upserts = append(f.upserts, upsertCall{subjectID, accessToken, itemID, institutionID, logoURL})
	return nil
}

func (f *fakeVault) Remove(ctx context.Context, subjectID, itemID string) error {
	f.removed = append(f.removed, itemID)
	return nil
}

func (f *fakeVault) RemoveAll(ctx context.Context, subjectID string) error {
	f.removedAll = true
	return nil
}

// newUpstream fakes the Plaid API. Responses are keyed by the access token in
// the request body so one server can play several institutions.
func newUpstream(t *testing.T, accounts map[string]*plaid.AccountsGetResponse, transactions map[string]*plaid.TransactionsGetResponse) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		token, _ := req["access_token"].(string)

		switch r.URL.Path {
		case "/item/public_token/exchange":
			json.NewEncoder(w).Encode(plaid.ExchangeTokenResponse{
				AccessToken: "access-new",
				ItemID:      "item-new",
			})
		case "/accounts/get":
			resp, ok := accounts[token]
			if !ok {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(plaid.PlaidError{
					ErrorType:    "ITEM_ERROR",
					ErrorCode:    "ITEM_LOGIN_REQUIRED",
					ErrorMessage: "the login details of this item have changed",
				})
				return
			}
			json.NewEncoder(w).Encode(resp)
		case "/transactions/get":
			resp, ok := transactions[token]
			if !ok {
				resp = &plaid.TransactionsGetResponse{Transactions: []plaid.Transaction{}}
			}
			json.NewEncoder(w).Encode(resp)
		case "/sandbox/item/fire_webhook":
			json.NewEncoder(w).Encode(plaid.WebhookFireResponse{WebhookFired: true})
		default:
			t.Errorf("unexpected upstream path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, v *fakeVault, upstream *httptest.Server) *Service {
	t.Helper()

	logos, err := NewLogoCache()
	require.NoError(t, err)
	client := plaid.NewClient(upstream.URL, "client-id", "secret")
	return New(fakeVerifier{subject: "auth0|user-1"}, fakeDirectory{}, v, client, logos)
}

func floatPtr(f float64) *float64 { return &f }

func TestListUserAccounts_MergesInstitutions(t *testing.T) {
	upstream := newUpstream(t, map[string]*plaid.AccountsGetResponse{
		"token-a": {
			Accounts: []plaid.Account{
				{AccountID: "acc-1", Name: "Checking", Type: "depository", Subtype: "checking", Mask: "0000",
					Balances: plaid.Balances{Available: floatPtr(100), Current: floatPtr(110), ISOCurrencyCode: "USD"}},
				{AccountID: "acc-2", Name: "Savings", Type: "depository", Subtype: "savings", Mask: "1111",
					Balances: plaid.Balances{Current: floatPtr(5000), ISOCurrencyCode: "USD"}},
			},
			Item: plaid.Item{ItemID: "item-a", InstitutionID: "ins-a", LogoURL: "https://logos.example/a.png"},
		},
		"token-b": {
			Accounts: []plaid.Account{
				{AccountID: "acc-3", Name: "Credit Card", Type: "credit", Subtype: "credit card", Mask: "2222",
					Balances: plaid.Balances{Current: floatPtr(-250), Limit: floatPtr(3000), ISOCurrencyCode: "USD"}},
			},
			Item: plaid.Item{ItemID: "item-b", InstitutionID: "ins-b"},
		},
	}, nil)

	v := &fakeVault{creds: []models.Credential{
		{ItemID: "item-a", AccessToken: "token-a"},
		{ItemID: "item-b", AccessToken: "token-b"},
	}}
	svc := newTestService(t, v, upstream)

	resp, err := svc.ListUserAccounts(context.Background(), "bearer")
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalAccounts)
	require.Len(t, resp.Accounts, 3)
	require.Len(t, resp.Items, 2)

	assert.Equal(t, "item-a", resp.Accounts[0].ItemID)
	assert.Equal(t, "https://logos.example/a.png", resp.Accounts[0].InstitutionIconURL)
	assert.Equal(t, floatPtr(100.0), resp.Accounts[0].Balances.Available)

	// item-b carries no logo anywhere, so the icon falls back to the CDN URL.
	assert.Equal(t, "https://cdn.plaid.com/institutions/logos/ins-b.png", resp.Accounts[2].InstitutionIconURL)
}

func TestListUserAccounts_SkipsUnreachableInstitution(t *testing.T) {
	upstream := newUpstream(t, map[string]*plaid.AccountsGetResponse{
		"token-a": {
			Accounts: []plaid.Account{{AccountID: "acc-1", Name: "Checking"}},
			Item:     plaid.Item{ItemID: "item-a", InstitutionID: "ins-a", LogoURL: "https://logos.example/a.png"},
		},
		// token-broken is absent: the upstream rejects it with ITEM_LOGIN_REQUIRED.
	}, nil)

	v := &fakeVault{creds: []models.Credential{
		{ItemID: "item-a", AccessToken: "token-a"},
		{ItemID: "item-broken", AccessToken: "token-broken"},
	}}
	svc := newTestService(t, v, upstream)

	resp, err := svc.ListUserAccounts(context.Background(), "bearer")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalAccounts)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "item-a", resp.Items[0].ItemID)
}

func TestListUserAccounts_NoCredentials(t *testing.T) {
	upstream := newUpstream(t, nil, nil)
	svc := newTestService(t, &fakeVault{}, upstream)

	resp, err := svc.ListUserAccounts(context.Background(), "bearer")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.TotalAccounts)
	assert.NotNil(t, resp.Accounts)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Accounts)
}

func TestListUserAccounts_LogoFromTransactionsFallback(t *testing.T) {
	upstream := newUpstream(t, map[string]*plaid.AccountsGetResponse{
		"token-c": {
			Accounts: []plaid.Account{{AccountID: "acc-1", Name: "Checking"}},
			Item:     plaid.Item{ItemID: "item-c", InstitutionID: "ins-c"},
		},
	}, map[string]*plaid.TransactionsGetResponse{
		"token-c": {
			Item: plaid.Item{ItemID: "item-c", LogoURL: "https://logos.example/c.png"},
		},
	})

	v := &fakeVault{creds: []models.Credential{{ItemID: "item-c", AccessToken: "token-c"}}}
	svc := newTestService(t, v, upstream)

	resp, err := svc.ListUserAccounts(context.Background(), "bearer")
	require.NoError(t, err)
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, "https://logos.example/c.png", resp.Accounts[0].InstitutionIconURL)
}

func TestListUserAccounts_AuthFailure(t *testing.T) {
	upstream := newUpstream(t, nil, nil)
	logos, err := NewLogoCache()
	require.NoError(t, err)
	svc := New(fakeVerifier{err: &auth.AuthenticationError{Reason: "signature validation failed"}},
		fakeDirectory{}, &fakeVault{}, plaid.NewClient(upstream.URL, "client-id", "secret"), logos)

	_, err = svc.ListUserAccounts(context.Background(), "bad-bearer")
	var authErr *auth.AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}

func TestExchangePublicToken_StoresCredential(t *testing.T) {
	upstream := newUpstream(t, map[string]*plaid.AccountsGetResponse{
		"access-new": {
			Item: plaid.Item{ItemID: "item-new", InstitutionID: "ins-new", LogoURL: "https://logos.example/new.png"},
		},
	}, nil)

	v := &fakeVault{}
	svc := newTestService(t, v, upstream)

	resp, err := svc.ExchangePublicToken(context.Background(), "bearer", "public-token")
	require.NoError(t, err)
	assert.Equal(t, "access-new", resp.AccessToken)

	require.Len(t, v.upserts, 1)
	assert.Equal(t, "auth0|user-1", v.upserts[0].subjectID)
	assert.Equal(t, "access-new", v.upserts[0].accessToken)
	assert.Equal(t, "item-new", v.upserts[0].itemID)
	assert.Equal(t, "ins-new", v.upserts[0].institutionID)
	assert.Equal(t, "https://logos.example/new.png", v.upserts[0].logoURL)
}

func TestExchangePublicToken_StoresDespiteAccountsFailure(t *testing.T) {
	// The upstream has no accounts entry for access-new, so the institution
	// lookup fails. The exchange must still store the credential.
	upstream := newUpstream(t, map[string]*plaid.AccountsGetResponse{}, nil)

	v := &fakeVault{}
	svc := newTestService(t, v, upstream)

	_, err := svc.ExchangePublicToken(context.Background(), "bearer", "public-token")
	require.NoError(t, err)

	require.Len(t, v.upserts, 1)
	assert.Equal(t, "item-new", v.upserts[0].itemID)
	assert.Empty(t, v.upserts[0].institutionID)
}

func TestListUserTransactions_NoCredential(t *testing.T) {
	upstream := newUpstream(t, nil, nil)
	svc := newTestService(t, &fakeVault{}, upstream)

	resp, err := svc.ListUserTransactions(context.Background(), "bearer", "", "")
	require.NoError(t, err)
	assert.NotNil(t, resp.Transactions)
	assert.Empty(t, resp.Transactions)
}

func TestListUserTransactions_UsesFirstCredential(t *testing.T) {
	upstream := newUpstream(t, nil, map[string]*plaid.TransactionsGetResponse{
		"token-a": {
			Transactions:      []plaid.Transaction{{TransactionID: "txn-1", Amount: 42.5}},
			TotalTransactions: 1,
		},
	})

	v := &fakeVault{creds: []models.Credential{
		{ItemID: "item-a", AccessToken: "token-a"},
		{ItemID: "item-b", AccessToken: "token-b"},
	}}
	svc := newTestService(t, v, upstream)

	resp, err := svc.ListUserTransactions(context.Background(), "bearer", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, "txn-1", resp.Transactions[0].TransactionID)
}

func TestListUserTransactions_BadDateFormat(t *testing.T) {
	upstream := newUpstream(t, nil, nil)
	v := &fakeVault{creds: []models.Credential{{ItemID: "item-a", AccessToken: "token-a"}}}
	svc := newTestService(t, v, upstream)

	_, err := svc.ListUserTransactions(context.Background(), "bearer", "01/01/2024", "")
	var invalidErr *vault.InvalidArgumentError
	require.ErrorAs(t, err, &invalidErr)
	assert.Contains(t, invalidErr.Msg, "startDate")
}

func TestListUserTransactions_StartAfterEnd(t *testing.T) {
	upstream := newUpstream(t, nil, nil)
	v := &fakeVault{creds: []models.Credential{{ItemID: "item-a", AccessToken: "token-a"}}}
	svc := newTestService(t, v, upstream)

	_, err := svc.ListUserTransactions(context.Background(), "bearer", "2024-02-01", "2024-01-01")
	var invalidErr *vault.InvalidArgumentError
	require.ErrorAs(t, err, &invalidErr)
	assert.Contains(t, invalidErr.Msg, "must not be after")
}

func TestListItems_MetadataOnly(t *testing.T) {
	upstream := newUpstream(t, nil, nil)
	v := &fakeVault{creds: []models.Credential{
		{ItemID: "item-a", AccessToken: "token-a", InstitutionID: "ins-a", InstitutionLogoURL: "https://logos.example/a.png"},
		{ItemID: "item-b", AccessToken: "token-b", InstitutionID: "ins-b"},
	}}
	svc := newTestService(t, v, upstream)

	items, err := svc.ListItems(context.Background(), "bearer")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "https://logos.example/a.png", items[0].InstitutionIconURL)
	assert.Equal(t, "https://cdn.plaid.com/institutions/logos/ins-b.png", items[1].InstitutionIconURL)
}

func TestRemoveItem(t *testing.T) {
	upstream := newUpstream(t, nil, nil)
	v := &fakeVault{creds: []models.Credential{{ItemID: "item-a", AccessToken: "token-a"}}}
	svc := newTestService(t, v, upstream)

	require.NoError(t, svc.RemoveItem(context.Background(), "bearer", "item-a"))
	assert.Equal(t, []string{"item-a"}, v.removed)

	require.NoError(t, svc.RemoveAllItems(context.Background(), "bearer"))
	assert.True(t, v.removedAll)
}

func TestFireSandboxWebhook_NoCredential(t *testing.T) {
	upstream := newUpstream(t, nil, nil)
	svc := newTestService(t, &fakeVault{}, upstream)

	_, err := svc.FireSandboxWebhook(context.Background(), "bearer", "", "DEFAULT_UPDATE")
	var invalidErr *vault.InvalidArgumentError
	assert.ErrorAs(t, err, &invalidErr)
}

func TestFireSandboxWebhook_FallsBackToFirstCredential(t *testing.T) {
	upstream := newUpstream(t, nil, nil)
	v := &fakeVault{creds: []models.Credential{{ItemID: "item-a", AccessToken: "token-a"}}}
	svc := newTestService(t, v, upstream)

	resp, err := svc.FireSandboxWebhook(context.Background(), "bearer", "", "DEFAULT_UPDATE")
	require.NoError(t, err)
	assert.True(t, resp.WebhookFired)
}

func TestLogoCache_RoundTrip(t *testing.T) {
	logos, err := NewLogoCache()
	require.NoError(t, err)

	logos.Set("item-a", "https://logos.example/a.png")
	logos.cache.Wait()

	url, ok := logos.Get("item-a")
	require.True(t, ok)
	assert.Equal(t, "https://logos.example/a.png", url)

	_, ok = logos.Get("item-missing")
	assert.False(t, ok)
}

func TestLogoCache_IgnoresEmptyValues(t *testing.T) {
	logos, err := NewLogoCache()
	require.NoError(t, err)

	logos.Set("item-a", "")
	logos.cache.Wait()

	_, ok := logos.Get("item-a")
	assert.False(t, ok)
}
