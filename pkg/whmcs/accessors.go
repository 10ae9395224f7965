package whmcs

import (
	"context"
	"net/url"
	"strconv"
)

const defaultPageSize = 100

// TestConnection reports whether the API answers with result=success. It tries
// the product catalog first and falls back to WhmcsDetails; on false the reason
// is available from LastError.
func (c *Client) TestConnection(ctx context.Context) bool {
	var env envelope
	if err := c.Call(ctx, "GetProducts", nil, &env); err == nil && env.Result == "success" {
		return true
	}

	env = envelope{}
	if err := c.Call(ctx, "WhmcsDetails", nil, &env); err != nil {
		return false
	}
	if env.Result != "success" {
		_ = c.fail("WhmcsDetails", &Error{Code: CodeAPI, Message: "unexpected result: " + env.Result})
		return false
	}
	return true
}

// GetClients returns one page of the client listing.
func (c *Client) GetClients(ctx context.Context, q ClientQuery) (*ClientPage, error) {
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	if q.Sort == "" {
		q.Sort = "id"
	}

	params := url.Values{}
	params.Set("limitstart", strconv.Itoa(q.Offset))
	params.Set("limitnum", strconv.Itoa(q.Limit))
	params.Set("sorting", q.Sort)
	if q.Status != "" {
		params.Set("status", q.Status)
	}

	page := new(ClientPage)
	if err := c.Call(ctx, "GetClients", params, page); err != nil {
		return nil, err
	}
	return page, nil
}

// GetClientByID returns the full record of one client.
func (c *Client) GetClientByID(ctx context.Context, clientID int64) (*ClientDetail, error) {
	params := url.Values{}
	params.Set("clientid", strconv.FormatInt(clientID, 10))
	return c.getClientDetails(ctx, params)
}

// GetClientByEmail returns the full record of the client owning email.
func (c *Client) GetClientByEmail(ctx context.Context, email string) (*ClientDetail, error) {
	params := url.Values{}
	params.Set("email", email)
	return c.getClientDetails(ctx, params)
}

func (c *Client) getClientDetails(ctx context.Context, params url.Values) (*ClientDetail, error) {
	var resp clientDetailResponse
	if err := c.Call(ctx, "GetClientsDetails", params, &resp); err != nil {
		return nil, err
	}
	if resp.Client == nil {
		return nil, c.fail("GetClientsDetails", &Error{Code: CodeParse, Message: "client record missing from response"})
	}
	if resp.Client.RemoteID() == 0 {
		resp.Client.UserID = resp.UserID
	}
	return resp.Client, nil
}

// ValidateLogin checks email and password against the billing system and, on
// success, returns the client's full record. Every rejection is reported the
// same way whether or not the account exists.
func (c *Client) ValidateLogin(ctx context.Context, email, password string) (*ClientDetail, error) {
	params := url.Values{}
	params.Set("email", email)
	params.Set("password2", password)

	var resp validateLoginResponse
	if err := c.Call(ctx, "ValidateLogin", params, &resp); err != nil {
		return nil, err
	}
	if resp.Result != "success" || resp.UserID == 0 {
		return nil, c.fail("ValidateLogin", &Error{Code: CodeAPI, Message: "login validation failed"})
	}
	return c.GetClientByID(ctx, resp.UserID.Int64())
}

// GetClientProducts returns one page of the services owned by clientID.
func (c *Client) GetClientProducts(ctx context.Context, clientID int64, offset, limit int) (*ProductPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	params := url.Values{}
	params.Set("clientid", strconv.FormatInt(clientID, 10))
	params.Set("limitstart", strconv.Itoa(offset))
	params.Set("limitnum", strconv.Itoa(limit))

	page := new(ProductPage)
	if err := c.Call(ctx, "GetClientsProducts", params, page); err != nil {
		return nil, err
	}
	return page, nil
}

// GetProducts returns the full product catalog.
func (c *Client) GetProducts(ctx context.Context) ([]CatalogProduct, error) {
	var resp catalogResponse
	if err := c.Call(ctx, "GetProducts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products.Product, nil
}

// GetProductGroups collapses the catalog into its distinct groups, in catalog
// order. Products without a group id are ignored.
func (c *Client) GetProductGroups(ctx context.Context) ([]ProductGroup, error) {
	products, err := c.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	return groupsFromCatalog(products), nil
}

func groupsFromCatalog(products []CatalogProduct) []ProductGroup {
	seen := make(map[int64]struct{})
	groups := make([]ProductGroup, 0)
	for _, p := range products {
		gid := p.GroupID.Int64()
		if gid == 0 {
			continue
		}
		if _, ok := seen[gid]; ok {
			continue
		}
		seen[gid] = struct{}{}

		name := p.GroupName
		if name == "" {
			name = "Unknown"
		}
		groups = append(groups, ProductGroup{ID: gid, Name: name})
	}
	return groups
}

// GetClientDomains returns the domains registered to clientID.
func (c *Client) GetClientDomains(ctx context.Context, clientID int64) ([]Domain, error) {
	params := url.Values{}
	params.Set("clientid", strconv.FormatInt(clientID, 10))

	var resp domainsResponse
	if err := c.Call(ctx, "GetClientsDomains", params, &resp); err != nil {
		return nil, err
	}
	return resp.Domains.Domain, nil
}

// GetFullClientData returns the client record with its first page of products
// and its domains. Only the client lookup is required to succeed.
func (c *Client) GetFullClientData(ctx context.Context, clientID int64) (*FullClientData, error) {
	client, err := c.GetClientByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	data := &FullClientData{Client: client, Products: []Product{}, Domains: []Domain{}}
	if page, err := c.GetClientProducts(ctx, clientID, 0, defaultPageSize); err == nil {
		data.Products = append(data.Products, page.Records()...)
	}
	if domains, err := c.GetClientDomains(ctx, clientID); err == nil {
		data.Domains = append(data.Domains, domains...)
	}
	return data, nil
}
