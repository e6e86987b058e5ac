package httpadapter

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/shop-verification/internal/core/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type statusChangeRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type shopListResponse struct {
	Shops []domain.Shop `json:"shops"`
}

type catalogResponse struct {
	Category  domain.BusinessCategory   `json:"category"`
	Documents []domain.RequiredDocument `json:"documents"`
}

func (rt *Router) getCatalog(w http.ResponseWriter, r *http.Request) {
	category, err := domain.ParseBusinessCategory(r.PathValue("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	docs, err := rt.shops.RequiredDocuments(category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse{Category: category, Documents: docs})
}

func (rt *Router) getApprovalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.shops.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) registerShop(w http.ResponseWriter, r *http.Request) {
	var reg domain.ShopRegistration
	if err := decodeJSON(r, &reg, false); err != nil {
		writeError(w, r, err)
		return
	}
	shop, err := rt.shops.Register(r.Context(), reg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, shop)
}

func (rt *Router) listShops(w http.ResponseWriter, r *http.Request) {
	filter, err := shopFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shops, err := rt.shops.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shopListResponse{Shops: shops})
}

func shopFilterFromQuery(r *http.Request) (domain.ShopFilter, error) {
	query := r.URL.Query()
	var filter domain.ShopFilter

	var status, category string
	if err := runtime.BindQueryParameter("form", true, false, "status", query, &status); err != nil {
		return filter, domain.WrapError(domain.ErrInvalidInput, "bind status", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "category", query, &category); err != nil {
		return filter, domain.WrapError(domain.ErrInvalidInput, "bind category", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &filter.Limit); err != nil {
		return filter, domain.WrapError(domain.ErrInvalidInput, "bind limit", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", query, &filter.Offset); err != nil {
		return filter, domain.WrapError(domain.ErrInvalidInput, "bind offset", err)
	}

	if strings.TrimSpace(status) != "" {
		parsed, err := domain.ParseShopStatus(status)
		if err != nil {
			return filter, err
		}
		filter.Status = parsed
	}
	if strings.TrimSpace(category) != "" {
		parsed, err := domain.ParseBusinessCategory(category)
		if err != nil {
			return filter, err
		}
		filter.Category = parsed
	}
	return filter, nil
}

func (rt *Router) getShop(w http.ResponseWriter, r *http.Request) {
	shopID, err := pathID(r, "shopId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	shop, err := rt.shops.Get(r.Context(), shopID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shop)
}

func (rt *Router) setShopStatus(w http.ResponseWriter, r *http.Request) {
	var req statusChangeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := domain.ParseShopStatus(req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.transition(w, r, status, req.Notes)
}

func (rt *Router) approveShop(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	rt.transition(w, r, domain.ShopApproved, req.Notes)
}

func (rt *Router) rejectShop(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	rt.transition(w, r, domain.ShopRejected, req.Reason)
}

func (rt *Router) suspendShop(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	rt.transition(w, r, domain.ShopSuspended, req.Reason)
}

// reinstateShop moves a suspended shop back to PENDING unless another target is given.
func (rt *Router) reinstateShop(w http.ResponseWriter, r *http.Request) {
	var req statusChangeRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	status := domain.ShopPending
	if strings.TrimSpace(req.Status) != "" {
		parsed, err := domain.ParseShopStatus(req.Status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		status = parsed
	}
	rt.transition(w, r, status, req.Notes)
}

func (rt *Router) transition(w http.ResponseWriter, r *http.Request, status domain.ShopStatus, notes string) {
	shopID, err := pathID(r, "shopId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	shop, err := rt.shops.SetStatus(r.Context(), shopID, status, notes, actorFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recordTransition(string(status))
	writeJSON(w, http.StatusOK, shop)
}

func (rt *Router) getProgress(w http.ResponseWriter, r *http.Request) {
	shopID, err := pathID(r, "shopId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	progress, err := rt.shops.Progress(r.Context(), shopID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (rt *Router) exportReport(w http.ResponseWriter, r *http.Request) {
	shopID, err := pathID(r, "shopId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	err = rt.reports.Export(r.Context(), shopID, &buf)
	rt.recordReport(err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="shop-%d-verification.xlsx"`, shopID))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
