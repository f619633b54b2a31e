package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/paymybuddy/paymybuddy-be/internal/auth"
	"github.com/paymybuddy/paymybuddy-be/internal/database"
	"github.com/paymybuddy/paymybuddy-be/internal/models"
	"github.com/paymybuddy/paymybuddy-be/internal/monitoring"
	"github.com/paymybuddy/paymybuddy-be/internal/services"
	"github.com/paymybuddy/paymybuddy-be/internal/websocket"
)

var apiTestDBCounter atomic.Int64

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	auth.Init("integration-test-secret")

	dsn := fmt.Sprintf("file:api_test_%d?mode=memory&cache=shared", apiTestDBCounter.Add(1))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	hub := websocket.NewHub()
	go hub.Run()

	userService := services.NewUserService(db)
	eventService := services.NewEventService(db)
	buddyService := services.NewBuddyService(db, userService, eventService)
	transferService := services.NewTransferService(db, userService, buddyService, eventService, hub)
	scheduleService := services.NewScheduleService(db, eventService)
	monitor := monitoring.NewHealthMonitor(hub)

	router := NewRouter(hub, monitor, userService, buddyService, transferService, eventService, scheduleService)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()

	var body *bytes.Buffer = bytes.NewBuffer(nil)
	if payload != nil {
		require.NoError(t, json.NewEncoder(body).Encode(payload))
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// registerAndLogin creates an account and returns its ID and a valid token.
func registerAndLogin(t *testing.T, baseURL, email string) (string, string) {
	t.Helper()

	resp := doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "CouldIBeAnyMoreBored",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user models.User
	decodeBody(t, resp, &user)

	resp = doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "CouldIBeAnyMoreBored",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &login)
	require.NotEmpty(t, login.Token)

	return user.ID, login.Token
}

func TestRegisterLoginAndProtectedRoutes(t *testing.T) {
	ts := newTestServer(t)

	// Protected routes reject anonymous requests
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	_, token := registerAndLogin(t, ts.URL, "bingchandler@friends.com")

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me models.User
	decodeBody(t, resp, &me)
	assert.Equal(t, "bingchandler@friends.com", me.Email)
}

func TestRegister_Validation(t *testing.T) {
	ts := newTestServer(t)

	// Malformed email
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]string{
		"email":    "username@domain",
		"password": "CouldIBeAnyMoreBored",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Duplicate email
	registerAndLogin(t, ts.URL, "bingchandler@friends.com")
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]string{
		"email":    "bingchandler@friends.com",
		"password": "CouldIBeAnyMoreBored",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Short password
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/auth/register", "", map[string]string{
		"email":    "otheremail@mail.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestDepositWithdrawAndTransferFlow(t *testing.T) {
	ts := newTestServer(t)

	_, chandlerToken := registerAndLogin(t, ts.URL, "bingchandler@friends.com")
	joeyID, joeyToken := registerAndLogin(t, ts.URL, "otheremail@mail.com")

	// Deposit; a negative input is treated as its magnitude
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/balance/deposit", chandlerToken, map[string]string{"amount": "-2509.56"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var chandler models.User
	decodeBody(t, resp, &chandler)
	assert.True(t, chandler.Balance.Equal(decimal.RequireFromString("2509.56")))

	// Transfer before connecting is rejected
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/transfers", chandlerToken, map[string]string{
		"buddyEmail": "otheremail@mail.com",
		"amount":     "509.56",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Connect, then transfer
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/buddies", chandlerToken, map[string]string{"email": "otheremail@mail.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/transfers", chandlerToken, map[string]string{
		"buddyEmail":  "otheremail@mail.com",
		"amount":      "509.56",
		"description": "Sandwich money",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var tx models.Transaction
	decodeBody(t, resp, &tx)
	assert.Equal(t, joeyID, tx.ReceiverID)

	// Receiver sees the money
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/users/me", joeyToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var joey models.User
	decodeBody(t, resp, &joey)
	assert.True(t, joey.Balance.Equal(decimal.RequireFromString("509.56")))

	// Withdraw has no lower-bound check
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/balance/withdraw", joeyToken, map[string]string{"amount": "600.00"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &joey)
	assert.True(t, joey.Balance.Equal(decimal.RequireFromString("-90.44")))

	// Transaction history for the sender
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/transfers", chandlerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var txs []models.Transaction
	decodeBody(t, resp, &txs)
	require.Len(t, txs, 2) // deposit + transfer

	// Activity feed for the sender
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/events", chandlerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []models.Event
	decodeBody(t, resp, &events)
	assert.NotEmpty(t, events)
}

func TestInsufficientFundsTransfer(t *testing.T) {
	ts := newTestServer(t)

	_, chandlerToken := registerAndLogin(t, ts.URL, "bingchandler@friends.com")
	registerAndLogin(t, ts.URL, "otheremail@mail.com")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/buddies", chandlerToken, map[string]string{"email": "otheremail@mail.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/v1/transfers", chandlerToken, map[string]string{
		"buddyEmail": "otheremail@mail.com",
		"amount":     "10.00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestUserListProjection(t *testing.T) {
	ts := newTestServer(t)

	_, token := registerAndLogin(t, ts.URL, "bingchandler@friends.com")
	registerAndLogin(t, ts.URL, "otheremail@mail.com")

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/users", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []models.UserView
	decodeBody(t, resp, &views)
	require.Len(t, views, 2)
	// Repository order preserved
	assert.Equal(t, "bingchandler@friends.com", views[0].Email)
	assert.Equal(t, "otheremail@mail.com", views[1].Email)
}

func TestScheduleEndpoints(t *testing.T) {
	ts := newTestServer(t)

	_, token := registerAndLogin(t, ts.URL, "bingchandler@friends.com")
	registerAndLogin(t, ts.URL, "otheremail@mail.com")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/schedules", token, map[string]interface{}{
		"buddyEmail":     "otheremail@mail.com",
		"name":           "Monthly rent share",
		"cronExpression": "0 9 1 * *",
		"amount":         "350.00",
		"isActive":       true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.TransferSchedule
	decodeBody(t, resp, &created)
	require.NotNil(t, created.NextRunAt)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/schedules", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var schedules []models.TransferSchedule
	decodeBody(t, resp, &schedules)
	require.Len(t, schedules, 1)

	// Another user cannot touch this schedule
	_, otherToken := registerAndLogin(t, ts.URL, "thirdwheel@mail.com")
	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/schedules/"+created.ID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/v1/schedules/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}
