package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Fi44er/kirda/internal/cashfree"
	"github.com/Fi44er/kirda/internal/handlers"
	"github.com/Fi44er/kirda/internal/service/servicetest"
	"github.com/Fi44er/kirda/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	app *fiber.App
	env *servicetest.Env
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	env := servicetest.New(t)
	app := fiber.New()
	handlers.NewHandler(env.Service, utils.NewNopLogger()).SetupRoutes(app)
	return &testApp{app: app, env: env}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any, headers ...string) (int, map[string]any) {
	t.Helper()
	status, raw := a.raw(t, method, path, token, body, headers...)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return status, out
}

func (a *testApp) list(t *testing.T, path, token string) []map[string]any {
	t.Helper()
	status, raw := a.raw(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	var out []map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func (a *testApp) raw(t *testing.T, method, path, token string, body any, headers ...string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (a *testApp) register(t *testing.T, username, referredBy string) (int64, string) {
	t.Helper()
	status, body := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "password": "secret123", "referred_by": referredBy,
	})
	require.Equal(t, http.StatusCreated, status, body)
	user := body["user"].(map[string]any)
	return int64(user["id"].(float64)), body["token"].(string)
}

func (a *testApp) adminToken(t *testing.T) string {
	t.Helper()
	require.NoError(t, a.env.Service.EnsureAdmin(context.Background()))
	status, body := a.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"username": "admin", "password": "admin123"})
	require.Equal(t, http.StatusOK, status, body)
	return body["token"].(string)
}

func TestAuthFlow(t *testing.T) {
	a := newTestApp(t)
	_, token := a.register(t, "alice", "")

	status, body := a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusConflict, status)
	require.Contains(t, body["message"], "username already exists")

	status, _ = a.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "bob", "password": "secret123", "referred_by": "KIRDA00000"})
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, status)

	status, body = a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "alice", "password": "secret123"})
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, body["token"])

	status, body = a.do(t, http.MethodGet, "/api/user/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "alice", body["username"])
	require.Equal(t, "0.00", body["deposit_wallet"])
	require.NotContains(t, body, "password_hash")

	status, body = a.do(t, http.MethodGet, "/api/user/me/stats", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "0%", body["win_rate"])

	status, _ = a.do(t, http.MethodGet, "/api/user/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(t, http.MethodGet, "/api/admin/users", token, nil)
	require.Equal(t, http.StatusForbidden, status)
}

func TestDepositFlow(t *testing.T) {
	a := newTestApp(t)
	referrerID, _ := a.register(t, "alice", "")
	referrer := a.env.User(t, referrerID)
	_, token := a.register(t, "bob", referrer.ReferralCode)

	status, _ := a.do(t, http.MethodPost, "/api/payment/create-order", token, map[string]any{"amount": 10})
	require.Equal(t, http.StatusBadRequest, status)

	status, body := a.do(t, http.MethodPost, "/api/payment/create-order", token, map[string]any{"amount": "100"})
	require.Equal(t, http.StatusOK, status, body)
	orderID := body["order_id"].(string)
	require.Equal(t, "100.00", body["amount"])
	require.Equal(t, "session_"+orderID, body["payment_session_id"])

	status, _ = a.do(t, http.MethodPost, "/api/payment/verify", token, map[string]string{"order_id": orderID})
	require.Equal(t, http.StatusBadRequest, status)

	a.env.Gateway.SetOrderStatus(orderID, cashfree.StatusPaid, servicetest.Money("100"))
	status, body = a.do(t, http.MethodPost, "/api/payment/verify", token, map[string]string{"order_id": orderID})
	require.Equal(t, http.StatusOK, status, body)
	require.Equal(t, "100.00", body["deposit_wallet"])
	require.Equal(t, false, body["already_processed"])

	hook := []byte(fmt.Sprintf(`{"data":{"order":{"order_id":%q,"order_amount":100},"payment":{"payment_status":"SUCCESS","payment_amount":100}}}`, orderID))
	status, _ = a.do(t, http.MethodPost, "/api/payment/webhook", "", hook,
		"x-webhook-timestamp", "1700000000", "x-webhook-signature", "forged")
	require.Equal(t, http.StatusUnauthorized, status)

	status, body = a.do(t, http.MethodPost, "/api/payment/webhook", "", hook,
		"x-webhook-timestamp", "1700000000", "x-webhook-signature", cashfree.Sign(servicetest.WebhookSecret, "1700000000", hook))
	require.Equal(t, http.StatusOK, status, body)

	txs := a.list(t, "/api/transactions", token)
	require.Len(t, txs, 1)
	require.Equal(t, "deposit", txs[0]["type"])
	require.Equal(t, "100.00", txs[0]["amount"])

	require.Equal(t, "7.00", a.env.User(t, referrerID).ReferralWallet.StringFixed(2))
}

func TestUpstreamFailureMapsToBadGateway(t *testing.T) {
	a := newTestApp(t)
	_, token := a.register(t, "bob", "")
	a.env.Gateway.CreateOrderErr = &cashfree.APIError{StatusCode: http.StatusUnauthorized, Message: "authentication Failed"}

	status, body := a.do(t, http.MethodPost, "/api/payment/create-order", token, map[string]any{"amount": 100})
	require.Equal(t, http.StatusBadGateway, status)
	require.EqualValues(t, http.StatusUnauthorized, body["upstream_status"])
	require.Equal(t, "authentication Failed", body["error"])
}

func TestJoinTournament(t *testing.T) {
	a := newTestApp(t)
	userID, token := a.register(t, "bob", "")
	a.env.SetWallets(t, userID, "30", "0", "50")
	tournament := a.env.Tournament(t, "40", 1)
	path := fmt.Sprintf("/api/tournaments/%d/join", tournament.ID)

	status, body := a.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusOK, status, body)
	require.Equal(t, "0.00", body["deposit_wallet"])
	require.Equal(t, "40.00", body["referral_wallet"])
	entry := body["entry"].(map[string]any)
	require.Equal(t, "40.00", entry["entry_fee"])

	otherID, other := a.register(t, "carol", "")
	a.env.SetWallets(t, otherID, "100", "0", "0")
	status, _ = a.do(t, http.MethodPost, path, other, nil)
	require.Equal(t, http.StatusConflict, status)

	status, _ = a.do(t, http.MethodPost, "/api/tournaments/9999/join", other, nil)
	require.Equal(t, http.StatusNotFound, status)

	status, _ = a.do(t, http.MethodPost, "/api/tournaments/abc/join", other, nil)
	require.Equal(t, http.StatusBadRequest, status)

	poor := a.env.Tournament(t, "500", 10)
	status, _ = a.do(t, http.MethodPost, fmt.Sprintf("/api/tournaments/%d/join", poor.ID), other, nil)
	require.Equal(t, http.StatusBadRequest, status)

	entries := a.list(t, "/api/tournaments/entries", token)
	require.Len(t, entries, 1)

	tournaments := a.list(t, fmt.Sprintf("/api/tournaments?gameId=%d", a.env.Game.ID), "")
	require.Len(t, tournaments, 2)
	require.Len(t, a.list(t, "/api/games", ""), 1)
}

func TestWithdraw(t *testing.T) {
	a := newTestApp(t)
	userID, token := a.register(t, "bob", "")
	a.env.SetWallets(t, userID, "0", "300", "0")

	status, body := a.do(t, http.MethodPost, "/api/wallet/withdraw", token, map[string]any{
		"amount": "150", "bank_account": "123456789012", "ifsc": "SBIN0001234", "account_holder_name": "Bob",
	})
	require.Equal(t, http.StatusOK, status, body)
	require.Equal(t, "150.00", body["new_balance"])
	transferID := body["transfer_id"].(string)

	a.env.Gateway.SetTransferStatus(transferID, "SUCCESS")
	status, body = a.do(t, http.MethodGet, "/api/withdrawal/status/"+transferID, token, nil)
	require.Equal(t, http.StatusOK, status, body)
	require.Equal(t, "SUCCESS", body["status"])
	require.Equal(t, "XXXXXXXX9012", body["bank_account"])

	status, _ = a.do(t, http.MethodPost, "/api/wallet/withdraw", token, map[string]any{
		"amount": "500", "bank_account": "123456789012", "ifsc": "SBIN0001234", "account_holder_name": "Bob",
	})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestAdminEndpoints(t *testing.T) {
	a := newTestApp(t)
	userID, userToken := a.register(t, "bob", "")
	admin := a.adminToken(t)

	status, _ := a.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"username": "admin", "password": "bad"})
	require.Equal(t, http.StatusUnauthorized, status)

	status, body := a.do(t, http.MethodPost, "/api/admin/wallet/credit", admin, map[string]any{"user_id": userID, "amount": 250, "note": "cash"})
	require.Equal(t, http.StatusOK, status, body)
	require.Equal(t, "250.00", body["deposit_wallet"])

	status, body = a.do(t, http.MethodPost, "/api/admin/games", admin, map[string]any{"display_name": "BGMI"})
	require.Equal(t, http.StatusCreated, status, body)
	gameID := int64(body["id"].(float64))

	status, body = a.do(t, http.MethodPost, "/api/admin/tournaments", admin, map[string]any{
		"game_id": gameID, "name": "Solo Victory", "entry_fee": "30", "prize_pool": "3000",
		"max_players": 50, "start_time": "2030-01-01T18:00:00Z",
	})
	require.Equal(t, http.StatusCreated, status, body)
	require.Equal(t, "30.00", body["entry_fee"])
	tournamentID := int64(body["id"].(float64))

	status, _ = a.do(t, http.MethodPost, fmt.Sprintf("/api/tournaments/%d/join", tournamentID), userToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, a.list(t, fmt.Sprintf("/api/admin/tournaments/%d/entries", tournamentID), admin), 1)

	status, body = a.do(t, http.MethodGet, "/api/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 1, body["users"])
	require.Equal(t, "220.00", body["deposit_wallets"])
	require.Equal(t, "250.00", body["total_deposited"])

	require.Len(t, a.list(t, "/api/admin/users", admin), 1)
	require.Len(t, a.list(t, "/api/admin/transactions?limit=1", admin), 1)

	status, body = a.do(t, http.MethodPost, "/api/help", userToken, map[string]any{"issue_type": "payment", "description": "where is my prize"})
	require.Equal(t, http.StatusCreated, status, body)
	helpID := int64(body["id"].(float64))

	status, body = a.do(t, http.MethodPut, fmt.Sprintf("/api/admin/help-requests/%d", helpID), admin, map[string]any{"status": "resolved", "admin_response": "paid out"})
	require.Equal(t, http.StatusOK, status, body)
	require.Equal(t, "resolved", body["status"])
	require.Len(t, a.list(t, "/api/admin/help-requests?status=open", admin), 0)

	status, body = a.do(t, http.MethodPost, "/api/admin/messages", admin, map[string]string{"title": "Hi", "message": "Welcome"})
	require.Equal(t, http.StatusCreated, status, body)
	messageID := int64(body["id"].(float64))
	require.Len(t, a.list(t, "/api/messages", ""), 1)

	status, _ = a.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/messages/%d", messageID), admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, a.list(t, "/api/messages", ""), 0)
	require.Len(t, a.list(t, "/api/admin/messages", admin), 1)

	status, _ = a.do(t, http.MethodDelete, "/api/admin/messages/9999", admin, nil)
	require.Equal(t, http.StatusNotFound, status)
}
