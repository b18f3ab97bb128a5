package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/Josczesny/BancoBrasil/internal/logger"
	"github.com/Josczesny/BancoBrasil/internal/repository/postgres"
	"github.com/Josczesny/BancoBrasil/internal/service/account"
	"github.com/Josczesny/BancoBrasil/internal/service/audit"
	"github.com/Josczesny/BancoBrasil/internal/service/auth"
	"github.com/Josczesny/BancoBrasil/internal/service/ledger"
	"github.com/Josczesny/BancoBrasil/internal/service/user"
	"github.com/Josczesny/BancoBrasil/internal/testutil"
)

func Test_Router(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Run http server with the full router over production services
	// Each test gets its own rolled back transaction
	withServer := func(t *testing.T, fn func(url string)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)

			authService, err := auth.NewService(auth.Config{Token: auth.TokenConfig{SecretKey: "test-secret"}}, storage.User())
			require.NoError(t, err, "auth service couldn't be started")

			router := NewRouter(
				authService,
				user.NewService(nil, storage),
				account.NewService(storage),
				ledger.NewService(storage),
				audit.NewService(storage),
				logger.NewNoOp(),
			)
			srv := httptest.NewServer(router)
			defer srv.Close()

			fn(srv.URL)
		})
	}

	do := func(t *testing.T, method string, url string, token string, body string) (int, string) {
		t.Helper()

		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequest(method, url, reader)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(respBody)
	}

	register := func(t *testing.T, url string) {
		t.Helper()
		code, body := do(t, "POST", url+"/api/auth/register", "",
			`{"name": "Test User", "email": "user@test.dev", "password": "password123"}`)
		require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)
	}

	login := func(t *testing.T, url string) string {
		t.Helper()
		code, body := do(t, "POST", url+"/api/auth/login", "",
			`{"email": "user@test.dev", "password": "password123"}`)
		require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)

		var res struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &res))
		require.NotEmpty(t, res.Token, "login should return access token")
		return res.Token
	}

	openAccount := func(t *testing.T, url string, token string, number string, creditLimit string) AccountResponse {
		t.Helper()
		code, body := do(t, "POST", url+"/api/accounts", token, fmt.Sprintf(
			`{"branch_code": "0001", "number": "%s", "kind": "CHECKING", "credit_limit": "%s"}`, number, creditLimit))
		require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)

		var res AccountResponse
		require.NoError(t, json.Unmarshal([]byte(body), &res))
		return res
	}

	t.Run("register", func(t *testing.T) {
		t.Run("register ok", func(t *testing.T) {
			withServer(t, func(url string) {
				code, body := do(t, "POST", url+"/api/auth/register", "",
					`{"name": "Test User", "email": "user@test.dev", "password": "password123"}`)

				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)

				var res struct {
					ID    string `json:"id"`
					Name  string `json:"name"`
					Email string `json:"email"`
				}
				require.NoError(t, json.Unmarshal([]byte(body), &res))
				require.NotEmpty(t, res.ID)
				require.Equal(t, "Test User", res.Name)
				require.Equal(t, "user@test.dev", res.Email)
			})
		})

		t.Run("duplicate email conflict", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)

				code, body := do(t, "POST", url+"/api/auth/register", "",
					`{"name": "Other", "email": "user@test.dev", "password": "password456"}`)

				require.Equalf(t, http.StatusConflict, code, "not expected code. Body: %s", body)
			})
		})

		t.Run("invalid payload rejected", func(t *testing.T) {
			withServer(t, func(url string) {
				code, body := do(t, "POST", url+"/api/auth/register", "",
					`{"name": "T", "email": "not-an-email", "password": "short"}`)

				require.Equalf(t, http.StatusBadRequest, code, "not expected code. Body: %s", body)
				require.Contains(t, body, "validation_failed")
			})
		})
	})

	t.Run("login", func(t *testing.T) {
		t.Run("login ok", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)

				code, body := do(t, "GET", url+"/api/users/me", token, "")

				require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)
				require.Contains(t, body, "user@test.dev")
			})
		})

		t.Run("bad credentials unauthorized", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)

				code, body := do(t, "POST", url+"/api/auth/login", "",
					`{"email": "user@test.dev", "password": "wrong-password"}`)

				require.Equalf(t, http.StatusUnauthorized, code, "not expected code. Body: %s", body)
				require.JSONEq(t, `
					{
						"error": "service_error",
						"message": "Invalid credentials"
					}`, body)
			})
		})

		t.Run("protected route without token", func(t *testing.T) {
			withServer(t, func(url string) {
				code, _ := do(t, "GET", url+"/api/users/me", "", "")

				require.Equal(t, http.StatusUnauthorized, code, "request without token should be unauthorized")
			})
		})
	})

	t.Run("accounts", func(t *testing.T) {
		t.Run("open and get", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)

				opened := openAccount(t, url, token, "0001-000001", "500")
				require.Equal(t, "0.00", opened.Balance, "new account should start at zero")
				require.Equal(t, "500.00", opened.CreditLimit)
				require.Equal(t, "500.00", opened.AvailableBalance)

				code, body := do(t, "GET", url+"/api/accounts/"+opened.ID, token, "")
				require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)

				var got AccountResponse
				require.NoError(t, json.Unmarshal([]byte(body), &got))
				require.Equal(t, opened.ID, got.ID)
			})
		})

		t.Run("duplicate number conflict", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)
				openAccount(t, url, token, "0001-000001", "0")

				code, body := do(t, "POST", url+"/api/accounts", token,
					`{"branch_code": "0001", "number": "0001-000001", "kind": "SAVINGS"}`)

				require.Equalf(t, http.StatusConflict, code, "not expected code. Body: %s", body)
			})
		})

		t.Run("list own accounts", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)
				openAccount(t, url, token, "0001-000001", "0")
				openAccount(t, url, token, "0001-000002", "0")

				code, body := do(t, "GET", url+"/api/accounts", token, "")

				require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)

				var accounts []AccountResponse
				require.NoError(t, json.Unmarshal([]byte(body), &accounts))
				require.Len(t, accounts, 2)
			})
		})

		t.Run("update credit limit", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)
				opened := openAccount(t, url, token, "0001-000001", "100")

				code, body := do(t, "PATCH", url+"/api/accounts/"+opened.ID+"/credit-limit", token,
					`{"credit_limit": "250"}`)

				require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)

				var got AccountResponse
				require.NoError(t, json.Unmarshal([]byte(body), &got))
				require.Equal(t, "250.00", got.CreditLimit)
				require.Equal(t, "250.00", got.AvailableBalance)
			})
		})

		t.Run("unknown account not found", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)

				code, _ := do(t, "GET", url+"/api/accounts/019915cb-4b43-7a2e-8c0e-000000000000", token, "")

				require.Equal(t, http.StatusNotFound, code)
			})
		})
	})

	t.Run("transactions", func(t *testing.T) {
		t.Run("deposit then withdraw", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)
				opened := openAccount(t, url, token, "0001-000001", "0")

				code, body := do(t, "POST", url+"/api/transactions/deposit", token, fmt.Sprintf(
					`{"destination_account_id": "%s", "amount": "100.50"}`, opened.ID))
				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)

				var deposited TransactionResponse
				require.NoError(t, json.Unmarshal([]byte(body), &deposited))
				require.Equal(t, "DEPOSIT", deposited.Kind)
				require.Equal(t, "100.50", deposited.Amount)
				require.Equal(t, "Deposit", deposited.Description, "blank description should get the default")

				code, body = do(t, "POST", url+"/api/transactions/withdraw", token, fmt.Sprintf(
					`{"source_account_id": "%s", "amount": "30.50", "description": "groceries"}`, opened.ID))
				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)

				code, body = do(t, "GET", url+"/api/accounts/"+opened.ID, token, "")
				require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)

				var got AccountResponse
				require.NoError(t, json.Unmarshal([]byte(body), &got))
				require.Equal(t, "70.00", got.Balance)
			})
		})

		t.Run("withdraw over limit conflict", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)
				opened := openAccount(t, url, token, "0001-000001", "50")

				code, body := do(t, "POST", url+"/api/transactions/withdraw", token, fmt.Sprintf(
					`{"source_account_id": "%s", "amount": "50.01"}`, opened.ID))

				require.Equalf(t, http.StatusConflict, code, "not expected code. Body: %s", body)
				require.JSONEq(t, `
					{
						"error": "service_error",
						"message": "Insufficient available balance"
					}`, body)
			})
		})

		t.Run("transfer by ids", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)
				source := openAccount(t, url, token, "0001-000001", "0")
				destination := openAccount(t, url, token, "0001-000002", "0")

				code, body := do(t, "POST", url+"/api/transactions/deposit", token, fmt.Sprintf(
					`{"destination_account_id": "%s", "amount": "100"}`, source.ID))
				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)

				code, body = do(t, "POST", url+"/api/transactions/transfer", token, fmt.Sprintf(
					`{"source_account_id": "%s", "destination_account_id": "%s", "amount": "40"}`, source.ID, destination.ID))
				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)

				var tr TransactionResponse
				require.NoError(t, json.Unmarshal([]byte(body), &tr))
				require.Equal(t, "TRANSFER", tr.Kind)
				require.Equal(t, source.ID, *tr.SourceID)
				require.Equal(t, destination.ID, *tr.DestinationID)
			})
		})

		t.Run("transfer by numbers", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)
				source := openAccount(t, url, token, "0001-000001", "100")
				openAccount(t, url, token, "0001-000002", "0")

				code, body := do(t, "POST", url+"/api/transactions/transfer", token,
					`{"source_account_number": "0001-000001", "destination_account_number": "0001-000002", "amount": "25"}`)

				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)

				var tr TransactionResponse
				require.NoError(t, json.Unmarshal([]byte(body), &tr))
				require.Equal(t, source.ID, *tr.SourceID)
			})
		})

		t.Run("transfer without accounts rejected", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)

				code, body := do(t, "POST", url+"/api/transactions/transfer", token, `{"amount": "25"}`)

				require.Equalf(t, http.StatusBadRequest, code, "not expected code. Body: %s", body)
			})
		})

		t.Run("same account transfer rejected", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)
				opened := openAccount(t, url, token, "0001-000001", "100")

				code, body := do(t, "POST", url+"/api/transactions/transfer", token, fmt.Sprintf(
					`{"source_account_id": "%s", "destination_account_id": "%s", "amount": "10"}`, opened.ID, opened.ID))

				require.Equalf(t, http.StatusBadRequest, code, "not expected code. Body: %s", body)
			})
		})

		t.Run("account history", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)
				opened := openAccount(t, url, token, "0001-000001", "0")

				code, body := do(t, "POST", url+"/api/transactions/deposit", token, fmt.Sprintf(
					`{"destination_account_id": "%s", "amount": "100"}`, opened.ID))
				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)
				code, body = do(t, "POST", url+"/api/transactions/withdraw", token, fmt.Sprintf(
					`{"source_account_id": "%s", "amount": "40"}`, opened.ID))
				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)

				code, body = do(t, "GET", url+"/api/accounts/"+opened.ID+"/transactions", token, "")
				require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)

				var history []TransactionResponse
				require.NoError(t, json.Unmarshal([]byte(body), &history))
				require.Len(t, history, 2)
				require.Equal(t, "WITHDRAWAL", history[0].Kind, "newest transaction should come first")

				code, body = do(t, "GET", url+"/api/accounts/"+opened.ID+"/transactions?kind=DEPOSIT", token, "")
				require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)

				require.NoError(t, json.Unmarshal([]byte(body), &history))
				require.Len(t, history, 1)
				require.Equal(t, "DEPOSIT", history[0].Kind)
			})
		})

		t.Run("get by id", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)
				opened := openAccount(t, url, token, "0001-000001", "0")

				code, body := do(t, "POST", url+"/api/transactions/deposit", token, fmt.Sprintf(
					`{"destination_account_id": "%s", "amount": "100"}`, opened.ID))
				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)

				var created TransactionResponse
				require.NoError(t, json.Unmarshal([]byte(body), &created))

				code, body = do(t, "GET", url+"/api/transactions/"+created.ID, token, "")
				require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)

				code, _ = do(t, "GET", url+"/api/transactions/not-a-uuid", token, "")
				require.Equal(t, http.StatusBadRequest, code)

				code, _ = do(t, "GET", url+"/api/transactions/019915cb-4b43-7a2e-8c0e-000000000000", token, "")
				require.Equal(t, http.StatusNotFound, code)
			})
		})
	})

	t.Run("audit", func(t *testing.T) {
		t.Run("mutations leave trail", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)
				opened := openAccount(t, url, token, "0001-000001", "0")

				code, body := do(t, "POST", url+"/api/transactions/deposit", token, fmt.Sprintf(
					`{"destination_account_id": "%s", "amount": "100"}`, opened.ID))
				require.Equalf(t, http.StatusCreated, code, "not expected code. Body: %s", body)

				code, body = do(t, "GET", url+"/api/audit?table=accounts", token, "")
				require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)

				var records []map[string]any
				require.NoError(t, json.Unmarshal([]byte(body), &records))
				require.Len(t, records, 1, "account opening should be audited")
				require.Equal(t, "INSERT", records[0]["action"])

				code, body = do(t, "GET", url+"/api/audit?table=transactions", token, "")
				require.Equalf(t, http.StatusOK, code, "not expected code. Body: %s", body)

				require.NoError(t, json.Unmarshal([]byte(body), &records))
				require.Len(t, records, 1, "deposit should be audited")
				require.Equal(t, "DEPOSIT", records[0]["action"])
			})
		})

		t.Run("missing filter rejected", func(t *testing.T) {
			withServer(t, func(url string) {
				register(t, url)
				token := login(t, url)

				code, _ := do(t, "GET", url+"/api/audit", token, "")

				require.Equal(t, http.StatusBadRequest, code)
			})
		})
	})
}
