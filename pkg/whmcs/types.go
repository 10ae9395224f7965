package whmcs

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

var (
	jsonNull        = []byte("null")
	jsonEmptyString = []byte(`""`)
)

func isEmptyJSON(data []byte) bool {
	return len(data) == 0 || bytes.Equal(data, jsonNull) || bytes.Equal(data, jsonEmptyString)
}

// List is a collection returned by the API. WHMCS renders a one-element
// collection as the bare object instead of an array of one, and an empty one as
// "" or null; List decodes all of these shapes into a plain slice.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isEmptyJSON(data) {
		*l = nil
		return nil
	}

	switch data[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
	case '{':
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return err
		}
		*l = List[T]{item}
	default:
		return fmt.Errorf("unexpected collection shape: %.32s", data)
	}
	return nil
}

// FlexInt decodes integers that WHMCS sends either as JSON numbers or as strings.
type FlexInt int64

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isEmptyJSON(data) {
		*i = 0
		return nil
	}

	s := strings.Trim(string(data), `"`)
	if s == "" {
		*i = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("invalid integer %q: %w", s, err)
		}
		n = int64(f)
	}
	*i = FlexInt(n)
	return nil
}

// Int64 returns the value as int64.
func (i FlexInt) Int64() int64 { return int64(i) }

// Amount decodes money values sent as strings or numbers; empty values decode to zero.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	a.Decimal = d
	return nil
}

// decodeSection decodes a {"<item>": ...} wrapper into dst, treating "" and null as empty.
func decodeSection(data []byte, dst any) error {
	data = bytes.TrimSpace(data)
	if isEmptyJSON(data) || bytes.Equal(data, []byte("[]")) {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// envelope is the part of every response used to detect application errors.
type envelope struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

// ClientSummary is one row of the GetClients listing.
type ClientSummary struct {
	ID          FlexInt `json:"id"`
	FirstName   string  `json:"firstname"`
	LastName    string  `json:"lastname"`
	CompanyName string  `json:"companyname"`
	Email       string  `json:"email"`
	DateCreated string  `json:"datecreated"`
	GroupID     FlexInt `json:"groupid"`
	Status      string  `json:"status"`
}

type clientSection struct {
	Client List[ClientSummary] `json:"client"`
}

func (s *clientSection) UnmarshalJSON(data []byte) error {
	type plain clientSection
	return decodeSection(data, (*plain)(s))
}

// ClientPage is one page of the GetClients listing.
type ClientPage struct {
	TotalResults FlexInt       `json:"totalresults"`
	StartNumber  FlexInt       `json:"startnumber"`
	NumReturned  FlexInt       `json:"numreturned"`
	Clients      clientSection `json:"clients"`
}

// Records returns the page's clients.
func (p *ClientPage) Records() []ClientSummary {
	return p.Clients.Client
}

// ClientDetail is the client record returned by GetClientsDetails.
type ClientDetail struct {
	ID          FlexInt `json:"id"`
	ClientID    FlexInt `json:"client_id"`
	UserID      FlexInt `json:"userid"`
	FirstName   string  `json:"firstname"`
	LastName    string  `json:"lastname"`
	FullName    string  `json:"fullname"`
	CompanyName string  `json:"companyname"`
	Email       string  `json:"email"`
	Status      string  `json:"status"`
	GroupID     FlexInt `json:"groupid"`
	Country     string  `json:"country"`
	PhoneNumber string  `json:"phonenumber"`
}

// RemoteID returns the client id, whichever field the API version populated.
func (c *ClientDetail) RemoteID() int64 {
	for _, id := range []FlexInt{c.ID, c.ClientID, c.UserID} {
		if id != 0 {
			return id.Int64()
		}
	}
	return 0
}

type clientDetailResponse struct {
	UserID FlexInt       `json:"userid"`
	Client *ClientDetail `json:"client"`
}

type validateLoginResponse struct {
	Result string  `json:"result"`
	UserID FlexInt `json:"userid"`
}

// Product is one service instance from GetClientsProducts. ID is the service id.
type Product struct {
	ID              FlexInt `json:"id"`
	ClientID        FlexInt `json:"clientid"`
	OrderID         FlexInt `json:"orderid"`
	ProductID       FlexInt `json:"pid"`
	RegDate         string  `json:"regdate"`
	Name            string  `json:"name"`
	GroupName       string  `json:"groupname"`
	Domain          string  `json:"domain"`
	RecurringAmount Amount  `json:"recurringamount"`
	BillingCycle    string  `json:"billingcycle"`
	NextDueDate     string  `json:"nextduedate"`
	Status          string  `json:"status"`
}

type productSection struct {
	Product List[Product] `json:"product"`
}

func (s *productSection) UnmarshalJSON(data []byte) error {
	type plain productSection
	return decodeSection(data, (*plain)(s))
}

// ProductPage is one page of a client's products.
type ProductPage struct {
	TotalResults FlexInt        `json:"totalresults"`
	StartNumber  FlexInt        `json:"startnumber"`
	NumReturned  FlexInt        `json:"numreturned"`
	Products     productSection `json:"products"`
}

// Records returns the page's products.
func (p *ProductPage) Records() []Product {
	return p.Products.Product
}

// CatalogProduct is one entry of the GetProducts catalog.
type CatalogProduct struct {
	ProductID   FlexInt `json:"pid"`
	GroupID     FlexInt `json:"gid"`
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	GroupName   string  `json:"groupname"`
	Module      string  `json:"module"`
	PayType     string  `json:"paytype"`
}

type catalogSection struct {
	Product List[CatalogProduct] `json:"product"`
}

func (s *catalogSection) UnmarshalJSON(data []byte) error {
	type plain catalogSection
	return decodeSection(data, (*plain)(s))
}

type catalogResponse struct {
	Result   string         `json:"result"`
	Products catalogSection `json:"products"`
}

// ProductGroup is a distinct product group derived from the catalog.
type ProductGroup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Domain is one domain registration owned by a client.
type Domain struct {
	ID              FlexInt `json:"id"`
	UserID          FlexInt `json:"userid"`
	OrderID         FlexInt `json:"orderid"`
	RegType         string  `json:"regtype"`
	DomainName      string  `json:"domainname"`
	Registrar       string  `json:"registrar"`
	RegPeriod       FlexInt `json:"regperiod"`
	RecurringAmount Amount  `json:"recurringamount"`
	RegDate         string  `json:"regdate"`
	ExpiryDate      string  `json:"expirydate"`
	NextDueDate     string  `json:"nextduedate"`
	Status          string  `json:"status"`
}

type domainSection struct {
	Domain List[Domain] `json:"domain"`
}

func (s *domainSection) UnmarshalJSON(data []byte) error {
	type plain domainSection
	return decodeSection(data, (*plain)(s))
}

type domainsResponse struct {
	TotalResults FlexInt       `json:"totalresults"`
	Domains      domainSection `json:"domains"`
}

// FullClientData bundles everything known about one client.
type FullClientData struct {
	Client   *ClientDetail `json:"client"`
	Products []Product     `json:"products"`
	Domains  []Domain      `json:"domains"`
}

// ClientQuery selects one page of the client listing.
type ClientQuery struct {
	Offset int
	Limit  int
	// Sort defaults to "id".
	Sort string
	// Status filters by client status when non-empty.
	Status string
}
