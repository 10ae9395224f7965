package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/billing-bridge/internal/metrics"
	"github.com/chainsafe/billing-bridge/pkg/bridge"
	"github.com/chainsafe/billing-bridge/pkg/bridgestore"
	"github.com/chainsafe/billing-bridge/pkg/grouppolicy"
	"github.com/chainsafe/billing-bridge/pkg/whmcs"
)

const (
	defaultClientStatus  = "Active"
	defaultProductStatus = "Unknown"
	remoteDateLayout     = "2006-01-02"
)

// UpsertClient mirrors one remote client. It creates the local identity when
// none matches the email and auto-create is enabled, links it to the client,
// then applies the group mappings to the client's current products.
func (e *Engine) UpsertClient(ctx context.Context, client *whmcs.ClientSummary) (Action, error) {
	_, action, err := e.upsertClient(ctx, client, e.settings.AutoCreateUsers)
	return action, err
}

// ProvisionClient is UpsertClient with auto-create forced on. It returns the
// linked local identity.
func (e *Engine) ProvisionClient(ctx context.Context, detail *whmcs.ClientDetail) (*bridge.LocalUser, error) {
	client := summaryFromDetail(detail)
	local, _, err := e.upsertClient(ctx, &client, true)
	return local, err
}

// SyncClient refreshes an already fetched client and then its products.
func (e *Engine) SyncClient(ctx context.Context, detail *whmcs.ClientDetail) error {
	client := summaryFromDetail(detail)
	if _, err := e.UpsertClient(ctx, &client); err != nil {
		return err
	}
	_, err := e.SyncClientProducts(ctx, client.ID.Int64())
	return err
}

func (e *Engine) upsertClient(ctx context.Context, client *whmcs.ClientSummary, autoCreate bool) (*bridge.LocalUser, Action, error) {
	email := strings.TrimSpace(client.Email)
	clientID := client.ID.Int64()
	if email == "" || clientID == 0 {
		return nil, ActionFailed, fmt.Errorf("client %d: %w", clientID, ErrInvalidRecord)
	}
	status := client.Status
	if status == "" {
		status = defaultClientStatus
	}

	action := ActionUnchanged
	local, err := e.store.GetLocalUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, bridgestore.ErrLocalUserNotFound) {
			return nil, ActionFailed, fmt.Errorf("failed to look up local user: %w", err)
		}
		if !autoCreate {
			return nil, ActionUnchanged, nil
		}
		local, err = e.createLocalUser(ctx, email, client.FirstName, client.LastName)
		if err != nil {
			return nil, ActionFailed, err
		}
		action = ActionCreated
		e.logger.Info("Created local user for client",
			zap.Int64("client_id", clientID),
			zap.String("email", email),
			zap.String("username", local.Username))
	}

	now := e.now()
	bu := &bridge.BridgeUser{
		LocalUserID:  local.ID,
		ClientID:     clientID,
		Email:        email,
		FirstName:    client.FirstName,
		LastName:     client.LastName,
		ClientStatus: status,
		LastSync:     &now,
		SyncStatus:   bridge.SyncStatusSynced,
	}
	if _, err := e.store.UpsertBridgeUser(ctx, bu); err != nil {
		return nil, ActionFailed, err
	}
	if action != ActionCreated {
		action = ActionUpdated
	}

	// An existing bridge row keeps the identity it was first linked to.
	if err := e.applyGroups(ctx, bu.LocalUserID, clientID); err != nil {
		return nil, ActionFailed, err
	}
	if bu.LocalUserID != local.ID {
		e.logger.Debug("Bridge row linked to a different local user",
			zap.Int64("client_id", clientID),
			zap.Int64("linked_user_id", bu.LocalUserID),
			zap.Int64("email_user_id", local.ID))
	}
	return local, action, nil
}

// applyGroups grants the groups of every published mapping matched by the
// client's products. A remote failure skips the step; store failures are returned.
func (e *Engine) applyGroups(ctx context.Context, localUserID, clientID int64) error {
	products, err := e.fetchClientProducts(ctx, clientID)
	if err != nil {
		e.logger.Warn("Skipping group mapping, product fetch failed",
			zap.Int64("client_id", clientID),
			zap.Error(err))
		return nil
	}
	if len(products) == 0 {
		return nil
	}

	mappings, err := e.store.ListGroupMappings(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list group mappings: %w", err)
	}
	if len(mappings) == 0 {
		return nil
	}
	rules := make([]bridge.GroupMapping, 0, len(mappings))
	for _, m := range mappings {
		rules = append(rules, *m)
	}

	granted := grouppolicy.Resolve(rules, products)
	if len(granted) == 0 {
		return nil
	}

	existing, err := e.store.GetUserGroups(ctx, localUserID)
	if err != nil {
		return fmt.Errorf("failed to load user groups: %w", err)
	}
	_, added := grouppolicy.Merge(existing, granted)
	if len(added) == 0 {
		return nil
	}
	if err := e.store.AddUserGroups(ctx, localUserID, added); err != nil {
		return fmt.Errorf("failed to add user groups: %w", err)
	}

	metrics.GroupsGrantedTotal.Add(float64(len(added)))
	e.logger.Debug("Updated user groups",
		zap.Int64("user_id", localUserID),
		zap.Int64("client_id", clientID),
		zap.Int64s("added", added))
	return nil
}

// fetchClientProducts reads every page of the client's products.
func (e *Engine) fetchClientProducts(ctx context.Context, clientID int64) ([]whmcs.Product, error) {
	var all []whmcs.Product
	offset := 0
	for page := 0; ; page++ {
		if page >= e.settings.MaxPages {
			e.logger.Warn("Stopped product pagination at page cap",
				zap.Int64("client_id", clientID),
				zap.Int("max_pages", e.settings.MaxPages),
				zap.Int("fetched", len(all)))
			return all, nil
		}

		resp, err := e.api.GetClientProducts(ctx, clientID, offset, e.settings.PageSize)
		if err != nil {
			return nil, err
		}
		records := resp.Records()
		all = append(all, records...)
		offset += e.settings.PageSize
		if len(records) == 0 || offset >= int(resp.TotalResults.Int64()) {
			return all, nil
		}
	}
}

// SyncClientProducts upserts the current products of one client. It is a no-op
// returning zero when the client has no bridge user.
func (e *Engine) SyncClientProducts(ctx context.Context, clientID int64) (int, error) {
	bu, err := e.store.GetBridgeUser(ctx, bridgestore.WithClientID(clientID))
	if err != nil {
		if errors.Is(err, bridgestore.ErrBridgeUserNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to look up bridge user: %w", err)
	}
	return e.syncProductsFor(ctx, bu)
}

func (e *Engine) syncProductsFor(ctx context.Context, bu *bridge.BridgeUser) (int, error) {
	products, err := e.fetchClientProducts(ctx, bu.ClientID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	now := e.now()
	upserted := 0
	for i := range products {
		p := toBridgeProduct(bu.ID, &products[i], now)
		if p == nil {
			continue
		}
		inserted, err := e.store.UpsertBridgeProduct(ctx, p)
		if err != nil {
			return upserted, fmt.Errorf("service %d: %w", p.ServiceID, err)
		}
		action := ActionUpdated
		if inserted {
			action = ActionCreated
		}
		metrics.SyncRecordsTotal.WithLabelValues(string(bridge.SyncTypeProducts), string(action)).Inc()
		upserted++
	}
	return upserted, nil
}

// toBridgeProduct maps a remote service onto its mirror row. Entries without a
// service id yield nil.
func toBridgeProduct(bridgeUserID int64, p *whmcs.Product, now time.Time) *bridge.BridgeProduct {
	serviceID := p.ID.Int64()
	if serviceID == 0 {
		return nil
	}

	status := p.Status
	if status == "" {
		status = defaultProductStatus
	}
	var domain *string
	if d := strings.TrimSpace(p.Domain); d != "" {
		domain = &d
	}

	return &bridge.BridgeProduct{
		BridgeUserID:     bridgeUserID,
		ServiceID:        serviceID,
		ProductID:        p.ProductID.Int64(),
		Name:             p.Name,
		GroupName:        p.GroupName,
		Domain:           domain,
		Status:           status,
		BillingCycle:     p.BillingCycle,
		NextDueDate:      parseRemoteDate(p.NextDueDate),
		Amount:           p.RecurringAmount.Decimal,
		Currency:         bridge.DefaultCurrency,
		RegistrationDate: parseRemoteDate(p.RegDate),
		LastSync:         &now,
	}
}

// parseRemoteDate returns nil for empty, zero (0000-00-00) or malformed dates.
func parseRemoteDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "0000-00-00") {
		return nil
	}
	if len(s) > len(remoteDateLayout) {
		s = s[:len(remoteDateLayout)]
	}
	t, err := time.Parse(remoteDateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
