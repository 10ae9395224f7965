package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/billing-bridge/pkg/app/errors"
	apphttp "github.com/chainsafe/billing-bridge/pkg/app/http"
	"github.com/chainsafe/billing-bridge/pkg/auth"
	"github.com/chainsafe/billing-bridge/pkg/bridge"
)

const anonymousActor = "operator"

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers the operator endpoints on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/sync/users", apphttp.HandleError(h.syncUsers))
	r.Post("/sync/products", apphttp.HandleError(h.syncProducts))
	r.Post("/sync/users/{clientID}", apphttp.HandleError(h.syncUser))
	r.Get("/sync/test", apphttp.HandleError(h.testConnection))
	r.Get("/dashboard", apphttp.HandleError(h.dashboard))
	r.Get("/runs", apphttp.HandleError(h.listRuns))

	r.Get("/mappings", apphttp.HandleError(h.listMappings))
	r.Post("/mappings", apphttp.HandleError(h.createMapping))
	r.Put("/mappings/{id}", apphttp.HandleError(h.updateMapping))
	r.Delete("/mappings/{id}", apphttp.HandleError(h.deleteMapping))

	r.Get("/product-groups", apphttp.HandleError(h.listProductGroups))
	r.Get("/products", apphttp.HandleError(h.listProducts))
	r.Put("/products/{pid}/mappings", apphttp.HandleError(h.setProductMappings))
}

// actor names the operator from the request token, if any.
func actor(r *http.Request) string {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims.Subject != "" {
		return claims.Subject
	}
	return anonymousActor
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.BadRequestError(err, "invalid "+name)
	}
	return id, nil
}

// keepWriting lifts the server write deadline for a response that waits on a
// full sync pass. Writers that cannot change it are left as they are.
func keepWriting(w http.ResponseWriter) {
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
}

func (h *HTTP) syncUsers(w http.ResponseWriter, r *http.Request) error {
	keepWriting(w)
	res, err := h.service.SyncUsers(r.Context(), actor(r))
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, res)
	return nil
}

func (h *HTTP) syncProducts(w http.ResponseWriter, r *http.Request) error {
	keepWriting(w)
	res, err := h.service.SyncProducts(r.Context(), actor(r))
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, res)
	return nil
}

func (h *HTTP) syncUser(w http.ResponseWriter, r *http.Request) error {
	clientID, err := pathID(r, "clientID")
	if err != nil {
		return err
	}
	if err := h.service.SyncUser(r.Context(), clientID); err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "client_id": clientID})
	return nil
}

func (h *HTTP) testConnection(w http.ResponseWriter, r *http.Request) error {
	st, err := h.service.TestConnection(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, st)
	return nil
}

func (h *HTTP) dashboard(w http.ResponseWriter, r *http.Request) error {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, d)
	return nil
}

func (h *HTTP) listRuns(w http.ResponseWriter, r *http.Request) error {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.BadRequestError(err, "invalid limit")
		}
		limit = n
	}
	runs, err := h.service.ListRuns(r.Context(), limit)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, runs)
	return nil
}

func (h *HTTP) listMappings(w http.ResponseWriter, r *http.Request) error {
	mappings, err := h.service.ListGroupMappings(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, mappings)
	return nil
}

func (h *HTTP) createMapping(w http.ResponseWriter, r *http.Request) error {
	var m bridge.GroupMapping
	if err := apphttp.DecodeJSON(r, &m); err != nil {
		return err
	}
	created, err := h.service.CreateGroupMapping(r.Context(), &m)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusCreated, created)
	return nil
}

func (h *HTTP) updateMapping(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var m bridge.GroupMapping
	if err := apphttp.DecodeJSON(r, &m); err != nil {
		return err
	}
	m.ID = id
	updated, err := h.service.UpdateGroupMapping(r.Context(), &m)
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, updated)
	return nil
}

func (h *HTTP) deleteMapping(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteGroupMapping(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *HTTP) listProductGroups(w http.ResponseWriter, r *http.Request) error {
	groups, err := h.service.ListProductGroups(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, groups)
	return nil
}

func (h *HTTP) listProducts(w http.ResponseWriter, r *http.Request) error {
	products, err := h.service.ListProductsWithMappings(r.Context())
	if err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, products)
	return nil
}

type productMappingsRequest struct {
	GroupIDs []int64 `json:"group_ids"`
}

func (h *HTTP) setProductMappings(w http.ResponseWriter, r *http.Request) error {
	pid, err := pathID(r, "pid")
	if err != nil {
		return err
	}
	var req productMappingsRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.service.SetProductMappings(r.Context(), pid, req.GroupIDs); err != nil {
		return err
	}
	apphttp.WriteJSON(w, http.StatusOK, map[string]any{"product_id": pid, "group_ids": req.GroupIDs})
	return nil
}
