package whmcs

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/billing-bridge/pkg/config"
)

// fakeWHMCS emulates the api.php endpoint: it records every form post and
// answers each action from the handlers map.
type fakeWHMCS struct {
	t        *testing.T
	mu       sync.Mutex
	requests []recordedRequest
	handlers map[string]func(form url.Values) (int, string)
}

type recordedRequest struct {
	Path   string
	Host   string
	Header http.Header
	Form   url.Values
}

func newFakeWHMCS(t *testing.T) (*fakeWHMCS, *httptest.Server) {
	t.Helper()
	f := &fakeWHMCS{t: t, handlers: map[string]func(url.Values) (int, string){}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeWHMCS) on(action string, h func(form url.Values) (int, string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[action] = h
}

func (f *fakeWHMCS) reply(action, body string) {
	f.on(action, func(url.Values) (int, string) { return http.StatusOK, body })
}

func (f *fakeWHMCS) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		f.t.Errorf("failed to parse form: %v", err)
	}
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Path: r.URL.Path, Host: r.Host, Header: r.Header.Clone(), Form: r.PostForm})
	h, ok := f.handlers[r.PostForm.Get("action")]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"result":"error","message":"Command Not Found"}`)
		return
	}
	status, body := h(r.PostForm)
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeWHMCS) calls() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func testConfig(serverURL string) config.WHMCSConfig {
	return config.WHMCSConfig{
		URL:          serverURL,
		Identifier:   "ident",
		Secret:       "secret",
		Timeout:      5 * time.Second,
		MaxRedirects: 3,
	}
}

func newTestClient(t *testing.T, cfg config.WHMCSConfig, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithoutBreaker()}, opts...)
	c, err := New(cfg, zap.NewNop(), opts...)
	require.NoError(t, err)
	return c
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://billing.example.com", "https://billing.example.com/includes/api.php"},
		{"https://billing.example.com/", "https://billing.example.com/includes/api.php"},
		{"https://billing.example.com/whmcs//", "https://billing.example.com/whmcs/includes/api.php"},
		{"https://billing.example.com/includes/api.php", "https://billing.example.com/includes/api.php"},
		{"https://billing.example.com/custom/api.php", "https://billing.example.com/custom/api.php"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeURL(tt.in), tt.in)
	}
}

func TestCall_NotConfigured(t *testing.T) {
	c := newTestClient(t, config.WHMCSConfig{URL: "https://billing.example.com"})

	err := c.Call(context.Background(), "GetClients", nil, nil)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeNotConfigured))
	assert.ErrorIs(t, err, ErrNotConfigured)

	last := c.LastError()
	require.NotNil(t, last)
	assert.Equal(t, CodeNotConfigured, last.Code)
	assert.False(t, c.IsConfigured())
}

func TestCall_SendsFixedFieldsAndHeaders(t *testing.T) {
	fake, srv := newFakeWHMCS(t)
	fake.reply("GetClients", `{"result":"success","totalresults":0}`)

	c := newTestClient(t, testConfig(srv.URL))
	params := url.Values{}
	params.Set("limitnum", "5")
	require.NoError(t, c.Call(context.Background(), "GetClients", params, nil))

	calls := fake.calls()
	require.Len(t, calls, 1)
	got := calls[0]
	assert.Equal(t, "/includes/api.php", got.Path)
	assert.Equal(t, "ident", got.Form.Get("identifier"))
	assert.Equal(t, "secret", got.Form.Get("secret"))
	assert.Equal(t, "GetClients", got.Form.Get("action"))
	assert.Equal(t, "json", got.Form.Get("responsetype"))
	assert.Equal(t, "5", got.Form.Get("limitnum"))
	assert.Equal(t, "application/json, text/plain, */*", got.Header.Get("Accept"))
	assert.Equal(t, "en-US,en;q=0.9", got.Header.Get("Accept-Language"))
	assert.Contains(t, got.Header.Get("User-Agent"), "Chrome/120")
	assert.Nil(t, c.LastError())
}

func TestCall_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    Code
		message string
	}{
		{name: "application error", status: 200, body: `{"result":"error","message":"Invalid IP"}`, code: CodeAPI, message: "Invalid IP"},
		{name: "application error without message", status: 200, body: `{"result":"error"}`, code: CodeAPI, message: "Unknown WHMCS API error"},
		{name: "http error", status: 403, body: `<html>blocked</html>`, code: CodeHTTP, message: "HTTP error code: 403"},
		{name: "parse error", status: 200, body: `<html>not json</html>`, code: CodeParse, message: "Failed to parse WHMCS API response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, srv := newFakeWHMCS(t)
			fake.on("GetClients", func(url.Values) (int, string) { return tt.status, tt.body })

			c := newTestClient(t, testConfig(srv.URL))
			err := c.Call(context.Background(), "GetClients", nil, nil)
			require.Error(t, err)

			apiErr, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.code, c.LastError().Code)
		})
	}
}

func TestCall_TransportError(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := newTestClient(t, testConfig("http://"+addr))
	err = c.Call(context.Background(), "GetClients", nil, nil)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeTransport))
}

func TestCall_RedirectsCapped(t *testing.T) {
	var hops int
	var mu sync.Mutex
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hops++
		n := hops
		mu.Unlock()
		http.Redirect(w, r, fmt.Sprintf("%s/hop%d/api.php", srv.URL, n), http.StatusFound)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(srv.URL))
	err := c.Call(context.Background(), "GetClients", nil, nil)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeTransport))
	assert.Equal(t, 4, hops, "initial request plus three followed redirects")
}

func TestCall_DirectIPKeepsHostname(t *testing.T) {
	fake, srv := newFakeWHMCS(t)
	fake.reply("WhmcsDetails", `{"result":"success"}`)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	cfg := testConfig("http://billing.invalid:" + u.Port())
	cfg.DirectIP = "127.0.0.1"
	c := newTestClient(t, cfg)

	require.NoError(t, c.Call(context.Background(), "WhmcsDetails", nil, nil))
	calls := fake.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "billing.invalid:"+u.Port(), calls[0].Host)
}

func TestCall_VirtualHostForIPEndpoint(t *testing.T) {
	fake, srv := newFakeWHMCS(t)
	fake.reply("WhmcsDetails", `{"result":"success"}`)

	cfg := testConfig(srv.URL)
	cfg.VirtualHost = "https://billing.example.com/whmcs/"
	c := newTestClient(t, cfg)

	require.NoError(t, c.Call(context.Background(), "WhmcsDetails", nil, nil))
	calls := fake.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "billing.example.com", calls[0].Host)
}

func TestCall_BreakerOpensAfterFailures(t *testing.T) {
	fake, srv := newFakeWHMCS(t)
	fake.on("GetClients", func(url.Values) (int, string) { return http.StatusBadGateway, "bad gateway" })

	c, err := New(testConfig(srv.URL), zap.NewNop())
	require.NoError(t, err)
	c.limiter = nil

	for i := 0; i < 10; i++ {
		err := c.Call(context.Background(), "GetClients", nil, nil)
		require.True(t, IsCode(err, CodeHTTP), "call %d: %v", i, err)
	}

	err = c.Call(context.Background(), "GetClients", nil, nil)
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeTransport))
	assert.Equal(t, "circuit breaker open", c.LastError().Message)
	assert.Len(t, fake.calls(), 10)
}

func TestCountsAsSuccess(t *testing.T) {
	assert.True(t, countsAsSuccess(nil))
	assert.True(t, countsAsSuccess(&Error{Code: CodeHTTP, Status: 404}))
	assert.False(t, countsAsSuccess(&Error{Code: CodeHTTP, Status: 503}))
	assert.False(t, countsAsSuccess(&Error{Code: CodeTransport}))
}

func TestTestConnection(t *testing.T) {
	t.Run("catalog succeeds", func(t *testing.T) {
		fake, srv := newFakeWHMCS(t)
		fake.reply("GetProducts", `{"result":"success","totalresults":0}`)

		c := newTestClient(t, testConfig(srv.URL))
		assert.True(t, c.TestConnection(context.Background()))
		assert.Len(t, fake.calls(), 1)
	})

	t.Run("falls back to WhmcsDetails", func(t *testing.T) {
		fake, srv := newFakeWHMCS(t)
		fake.reply("GetProducts", `{"result":"error","message":"Invalid Permissions"}`)
		fake.reply("WhmcsDetails", `{"result":"success","whmcs":{"version":"8.8.0"}}`)

		c := newTestClient(t, testConfig(srv.URL))
		assert.True(t, c.TestConnection(context.Background()))
		calls := fake.calls()
		require.Len(t, calls, 2)
		assert.Equal(t, "WhmcsDetails", calls[1].Form.Get("action"))
	})

	t.Run("both fail", func(t *testing.T) {
		fake, srv := newFakeWHMCS(t)
		fake.reply("GetProducts", `{"result":"error","message":"Invalid Permissions"}`)
		fake.reply("WhmcsDetails", `{"result":"error","message":"Authentication Failed"}`)

		c := newTestClient(t, testConfig(srv.URL))
		assert.False(t, c.TestConnection(context.Background()))
		assert.Equal(t, "Authentication Failed", c.LastError().Message)
	})
}

func TestGetClients_SingletonAndArray(t *testing.T) {
	fake, srv := newFakeWHMCS(t)
	fake.on("GetClients", func(form url.Values) (int, string) {
		if form.Get("limitstart") == "0" {
			return 200, `{"result":"success","totalresults":"2","startnumber":0,"numreturned":1,
				"clients":{"client":{"id":"7","firstname":"Jane","lastname":"Doe","email":"jane@example.com","status":"Active"}}}`
		}
		return 200, `{"result":"success","totalresults":2,"clients":{"client":[{"id":8,"email":"john@example.com"}]}}`
	})

	c := newTestClient(t, testConfig(srv.URL))

	page, err := c.GetClients(context.Background(), ClientQuery{Offset: 0, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Records(), 1)
	assert.Equal(t, int64(7), page.Records()[0].ID.Int64())
	assert.Equal(t, "Jane", page.Records()[0].FirstName)
	assert.Equal(t, int64(2), page.TotalResults.Int64())

	page, err = c.GetClients(context.Background(), ClientQuery{Offset: 1, Limit: 1, Status: "Active"})
	require.NoError(t, err)
	require.Len(t, page.Records(), 1)
	assert.Equal(t, int64(8), page.Records()[0].ID.Int64())

	calls := fake.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "id", calls[0].Form.Get("sorting"))
	assert.Equal(t, "", calls[0].Form.Get("status"))
	assert.Equal(t, "Active", calls[1].Form.Get("status"))
}

func TestGetClientProducts_EmptyShapes(t *testing.T) {
	for _, body := range []string{
		`{"result":"success","totalresults":0,"products":""}`,
		`{"result":"success","totalresults":0}`,
		`{"result":"success","totalresults":0,"products":{"product":[]}}`,
	} {
		fake, srv := newFakeWHMCS(t)
		fake.reply("GetClientsProducts", body)

		c := newTestClient(t, testConfig(srv.URL))
		page, err := c.GetClientProducts(context.Background(), 3, 0, 100)
		require.NoError(t, err, body)
		assert.Empty(t, page.Records(), body)
	}
}

func TestGetClientProducts_DecodesFields(t *testing.T) {
	fake, srv := newFakeWHMCS(t)
	fake.reply("GetClientsProducts", `{"result":"success","totalresults":1,"products":{"product":
		{"id":"55","clientid":"3","pid":"42","name":"Pro Hosting","groupname":"Hosting","domain":"example.com",
		 "recurringamount":"12.50","billingcycle":"Monthly","nextduedate":"2026-11-01","regdate":"2024-01-15","status":"Active"}}}`)

	c := newTestClient(t, testConfig(srv.URL))
	page, err := c.GetClientProducts(context.Background(), 3, 0, 100)
	require.NoError(t, err)
	require.Len(t, page.Records(), 1)

	p := page.Records()[0]
	assert.Equal(t, int64(55), p.ID.Int64())
	assert.Equal(t, int64(42), p.ProductID.Int64())
	assert.Equal(t, "Hosting", p.GroupName)
	assert.Equal(t, "12.5", p.RecurringAmount.String())
	assert.Equal(t, "Active", p.Status)

	calls := fake.calls()
	assert.Equal(t, "3", calls[0].Form.Get("clientid"))
}

func TestValidateLogin(t *testing.T) {
	fake, srv := newFakeWHMCS(t)
	fake.on("ValidateLogin", func(form url.Values) (int, string) {
		if form.Get("email") == "jane@example.com" && form.Get("password2") == "hunter2" {
			return 200, `{"result":"success","userid":7}`
		}
		return 200, `{"result":"error","message":"Email or Password Invalid"}`
	})
	fake.reply("GetClientsDetails", `{"result":"success","userid":7,"client":{"id":7,"email":"jane@example.com","firstname":"Jane","status":"Active"}}`)

	c := newTestClient(t, testConfig(srv.URL))

	client, err := c.ValidateLogin(context.Background(), "jane@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, int64(7), client.RemoteID())
	assert.Equal(t, "Jane", client.FirstName)

	_, err = c.ValidateLogin(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeAPI))

	calls := fake.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "7", calls[1].Form.Get("clientid"))
}

func TestGetClientByEmail_MissingClient(t *testing.T) {
	fake, srv := newFakeWHMCS(t)
	fake.reply("GetClientsDetails", `{"result":"success"}`)

	c := newTestClient(t, testConfig(srv.URL))
	_, err := c.GetClientByEmail(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeParse))
	assert.Equal(t, "ghost@example.com", fake.calls()[0].Form.Get("email"))
}

func TestGetProductGroups(t *testing.T) {
	fake, srv := newFakeWHMCS(t)
	fake.reply("GetProducts", `{"result":"success","products":{"product":[
		{"pid":1,"gid":10,"name":"Basic","groupname":"Hosting"},
		{"pid":2,"gid":10,"name":"Pro","groupname":"Hosting Renamed"},
		{"pid":3,"gid":20,"name":"VPS"},
		{"pid":4,"gid":0,"name":"Loose"}]}}`)

	c := newTestClient(t, testConfig(srv.URL))
	groups, err := c.GetProductGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ProductGroup{{ID: 10, Name: "Hosting"}, {ID: 20, Name: "Unknown"}}, groups)
}

func TestGetFullClientData(t *testing.T) {
	fake, srv := newFakeWHMCS(t)
	fake.reply("GetClientsDetails", `{"result":"success","client":{"id":7,"email":"jane@example.com"}}`)
	fake.reply("GetClientsProducts", `{"result":"success","products":{"product":[{"id":1,"pid":2},{"id":3,"pid":4}]}}`)
	fake.reply("GetClientsDomains", `{"result":"error","message":"No domains"}`)

	c := newTestClient(t, testConfig(srv.URL))
	data, err := c.GetFullClientData(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), data.Client.RemoteID())
	assert.Len(t, data.Products, 2)
	assert.Empty(t, data.Domains)

	actions := make([]string, 0)
	for _, call := range fake.calls() {
		actions = append(actions, call.Form.Get("action"))
	}
	assert.Equal(t, "GetClientsDetails,GetClientsProducts,GetClientsDomains", strings.Join(actions, ","))
}
