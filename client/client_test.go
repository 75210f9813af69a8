package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolfund/chain"
	"github.com/poolfund/config"
	"github.com/poolfund/levelDB"
	"github.com/poolfund/meta"
)

const tokenHex = "aa00000000000000000000000000000000000000000000000000000000000001"

type apiTest struct {
	t      *testing.T
	router *gin.Engine
	hub    *Hub
	pool   meta.Identifier
}

func newAPI(t *testing.T) *apiTest {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := levelDB.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hub := NewHub()
	host := chain.NewHost(db, hub)
	pool := chain.ContractAddress("distribution")
	s := NewServer(host, pool, hub, config.ClientConfig{Addr: ":0"})
	return &apiTest{t: t, router: s.Router(), hub: hub, pool: pool}
}

func (a *apiTest) do(method, path, invoker string, body interface{}) (int, meta.HttpResponse) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if invoker != "" {
		req.Header.Set(InvokerHeader, invoker)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp meta.HttpResponse
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func (a *apiTest) ok(method, path, invoker string, body interface{}) meta.HttpResponse {
	a.t.Helper()
	code, resp := a.do(method, path, invoker, body)
	require.Equal(a.t, http.StatusOK, code, resp.Error)
	return resp
}

func (a *apiTest) balance(id string) float64 {
	a.t.Helper()
	resp := a.ok(http.MethodGet, "/token/balance?token="+tokenHex+"&id="+id, "", nil)
	return resp.Data.(map[string]interface{})["balance"].(float64)
}

// 创建代币，三个用户各 1000 并授权给奖池，初始化合约
func (a *apiTest) setup() {
	a.t.Helper()
	a.ok(http.MethodPost, "/token/initialize", "account:token-admin", gin.H{
		"token": tokenHex, "decimals": 7, "name": "name", "symbol": "symbol",
	})
	for _, u := range []string{"account:user1", "account:user2", "account:user3"} {
		a.ok(http.MethodPost, "/token/mint", "account:token-admin", gin.H{"token": tokenHex, "to": u, "amount": 1000})
		a.ok(http.MethodPost, "/token/approve", u, gin.H{"token": tokenHex, "amount": 1000})
	}
	a.ok(http.MethodPost, "/initialize", "account:admin", gin.H{"token": tokenHex})
}

func TestDistributeFlow(t *testing.T) {
	a := newAPI(t)
	a.setup()
	for _, u := range []string{"account:user1", "account:user2", "account:user3"} {
		a.ok(http.MethodPost, "/deposit", u, gin.H{"amount": 1000})
	}
	assert.Equal(t, float64(3000), a.balance(a.pool.String()))

	a.ok(http.MethodPost, "/attended", "account:admin", gin.H{"participant": "account:user1"})
	a.ok(http.MethodPost, "/attended", "account:admin", gin.H{"participant": "user2"})

	resp := a.ok(http.MethodPost, "/distribute", "account:admin", nil)
	result := resp.Data.(map[string]interface{})["result"].(map[string]interface{})
	assert.Equal(t, float64(1500), result["share"])

	assert.Equal(t, float64(1500), a.balance("account:user1"))
	assert.Equal(t, float64(1500), a.balance("account:user2"))
	assert.Equal(t, float64(0), a.balance("account:user3"))
	assert.Equal(t, float64(0), a.balance(a.pool.String()))

	state := a.ok(http.MethodGet, "/state", "", nil).Data.(map[string]interface{})
	assert.Equal(t, "distributed", state["settlement"])
}

func TestRefundFlow(t *testing.T) {
	a := newAPI(t)
	a.setup()
	for _, u := range []string{"account:user1", "account:user2", "account:user3"} {
		a.ok(http.MethodPost, "/deposit", u, gin.H{"amount": 1000})
	}
	resp := a.ok(http.MethodPost, "/refund", "account:admin", nil)
	result := resp.Data.(map[string]interface{})["result"].(map[string]interface{})
	assert.Equal(t, float64(3000), result["total"])
	assert.Equal(t, float64(1000), a.balance("account:user3"))

	code, errResp := a.do(http.MethodPost, "/refund", "account:admin", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_SETTLED", errResp.Code)
}

func TestErrorStatus(t *testing.T) {
	a := newAPI(t)

	code, resp := a.do(http.MethodPost, "/deposit", "account:user1", gin.H{"amount": 10})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_INITIALIZED", resp.Code)

	a.setup()

	code, resp = a.do(http.MethodPost, "/distribute", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "MISSING_INVOKER", resp.Code)

	code, resp = a.do(http.MethodPost, "/distribute", "account:user1", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "NOT_AUTHORIZED", resp.Code)

	code, resp = a.do(http.MethodPost, "/distribute", "account:admin", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "NO_ELIGIBLE_PARTICIPANTS", resp.Code)

	code, resp = a.do(http.MethodPost, "/attended", "account:admin", gin.H{"participant": "account:nobody"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "UNKNOWN_PARTICIPANT", resp.Code)

	code, resp = a.do(http.MethodPost, "/deposit", "account:user1", gin.H{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_AMOUNT", resp.Code)

	code, resp = a.do(http.MethodPost, "/deposit", "account:user1", gin.H{"amount": 2000})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "LEDGER_OPERATION_FAILED", resp.Code)

	a.ok(http.MethodPost, "/deposit", "account:user1", gin.H{"amount": 10})
	code, resp = a.do(http.MethodPost, "/deposit", "account:user1", gin.H{"amount": 10})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "DUPLICATE_DEPOSIT", resp.Code)

	code, resp = a.do(http.MethodPost, "/initialize", "account:user1", gin.H{"token": tokenHex})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ALREADY_INITIALIZED", resp.Code)

	code, resp = a.do(http.MethodPost, "/token/mint", "account:user1", gin.H{"token": tokenHex, "to": "account:user1", "amount": 1})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "TOKEN_NOT_AUTHORIZED", resp.Code)

	code, resp = a.do(http.MethodPost, "/attended", "account:admin", gin.H{"participant": "bogus:x"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_PARAM", resp.Code)
}

func TestReceipts(t *testing.T) {
	a := newAPI(t)
	a.setup()
	resp := a.ok(http.MethodGet, "/receipts", "", nil)
	receipts := resp.Data.([]interface{})
	// 代币创建、3 次铸币、3 次授权、合约初始化
	assert.Len(t, receipts, 8)
	last := receipts[7].(map[string]interface{})
	assert.Equal(t, "initialize", last["method"])
}

func TestCorsPreflight(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/deposit", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Invoker")
}

func TestEventStream(t *testing.T) {
	a := newAPI(t)
	srv := httptest.NewServer(a.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return a.hub.subscribers() == 1 }, time.Second, 10*time.Millisecond)

	a.ok(http.MethodPost, "/token/initialize", "account:token-admin", gin.H{
		"token": tokenHex, "decimals": 7, "name": "name", "symbol": "symbol",
	})

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var e meta.ContractEvent
	require.NoError(t, ws.ReadJSON(&e))
	assert.Equal(t, "initialize", e.Topic)
	assert.Equal(t, meta.Contract(tokenHex), e.Contract)
}

func TestTlsHandlerRedirects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TlsHandler("example.com"))
	r.GET("/state", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "http://localhost/state", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "https://example.com/state", w.Header().Get("Location"))
}
