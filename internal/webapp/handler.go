// Package webapp exposes the signed-in shopper's basket over JSON HTTP.
//
// The webapp trusts identity headers set by the gateway in front of it and
// hosts one storefront.State per user session.
package webapp

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xenking/eshop-basket/internal/basketrpc"
	"github.com/xenking/eshop-basket/internal/domain/catalog"
	"github.com/xenking/eshop-basket/internal/identity"
	"github.com/xenking/eshop-basket/internal/orderingapi"
	"github.com/xenking/eshop-basket/internal/storefront"
	"github.com/xenking/eshop-basket/pkg/httpmiddleware"
)

// Handler serves the basket routes.
type Handler struct {
	sessions *Sessions
}

// NewHandler returns a Handler backed by sessions.
func NewHandler(sessions *Sessions) *Handler {
	return &Handler{sessions: sessions}
}

// Register mounts the basket routes on r.
func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/basket").Subrouter()
	api.Use(mux.MiddlewareFunc(Identity))
	api.HandleFunc("", h.getBasket).Methods(http.MethodGet)
	api.HandleFunc("", h.deleteBasket).Methods(http.MethodDelete)
	api.HandleFunc("/items", h.addItem).Methods(http.MethodPost)
	api.HandleFunc("/items/{productId:[0-9]+}", h.setQuantity).Methods(http.MethodPut)
	api.HandleFunc("/checkout", h.checkout).Methods(http.MethodPost)
}

// Identity copies the gateway identity headers into the request context.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := identity.WithUser(r.Context(), identity.FromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) getBasket(w http.ResponseWriter, r *http.Request) {
	user := identity.FromContext(r.Context())
	if !user.Authenticated() {
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			encodeBasket(e, nil, 0)
		})
		return
	}
	s := h.sessions.get(user.ID)
	h.respondBasket(w, r, s)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	d, err := readBody(r)
	if err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	productID, err := decodeAddItem(d)
	if err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	s.mu.Lock()
	err = s.state.Add(r.Context(), productID)
	s.mu.Unlock()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	h.respondBasket(w, r, s)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["productId"], 10, 32)
	if err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	productID := int(id)
	d, err := readBody(r)
	if err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	quantity, err := decodeSetQuantity(d)
	if err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	s.mu.Lock()
	err = s.state.SetQuantity(r.Context(), productID, quantity)
	s.mu.Unlock()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	h.respondBasket(w, r, s)
}

func (h *Handler) deleteBasket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	err := s.state.DeleteBasket(r.Context())
	s.mu.Unlock()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	d, err := readBody(r)
	if err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := decodeCheckout(d)
	if err != nil {
		httpmiddleware.WriteError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	s.mu.Lock()
	err = s.state.Checkout(r.Context(), info)
	s.mu.Unlock()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("requestId")
		e.Str(info.RequestID.String())
		e.ObjEnd()
	})
}

// session returns the session of the caller, answering 401 for anonymous
// callers.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	user := identity.FromContext(r.Context())
	if !user.Authenticated() {
		httpmiddleware.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}
	return h.sessions.get(user.ID), true
}

func (h *Handler) respondBasket(w http.ResponseWriter, r *http.Request, s *session) {
	items, err := s.state.GetItems(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	version := s.version.Load()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeBasket(e, items, version)
	})
}

func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missing   *catalog.MissingProductError
		rejection *orderingapi.StatusError
	)
	switch {
	case errors.Is(err, storefront.ErrNotAuthenticated),
		errors.Is(err, storefront.ErrNoBuyerID),
		errors.Is(err, storefront.ErrNoUserName),
		errors.Is(err, basketrpc.ErrUnauthenticated):
		httpmiddleware.WriteError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, basketrpc.ErrBasketNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, "basket not found")
	case errors.Is(err, storefront.ErrUnknownProduct):
		httpmiddleware.WriteError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, basketrpc.ErrOutOfRange):
		httpmiddleware.WriteError(w, http.StatusBadRequest, "value out of range")
	case errors.As(err, &rejection) && rejection.StatusCode < http.StatusInternalServerError:
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, "order was rejected")
	default:
		lg := zctx.From(r.Context())
		if errors.As(err, &missing) {
			lg = lg.With(zap.Int("product_id", missing.ProductID))
		}
		lg.Error("Basket request failed", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
