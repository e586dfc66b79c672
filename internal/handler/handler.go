// Package handler exposes the catalog view over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/catalog-view/internal/domain/card"
	"github.com/xenking/catalog-view/internal/domain/catalog"
	"github.com/xenking/catalog-view/internal/domain/product"
	"github.com/xenking/catalog-view/internal/domain/query"
	"github.com/xenking/catalog-view/internal/session"
)

// DefaultCookieName names the session cookie.
const DefaultCookieName = "catalog_session"

// maxBodySize bounds request bodies.
const maxBodySize = 4 << 10

const catalogPath = "/api/catalog"

// Config holds non-dependency settings of the Handler.
type Config struct {
	Inquiry      card.Inquiry
	CookieName   string
	CookieSecure bool
	// CookieSameSite defaults to http.SameSiteLaxMode. Frontends served from
	// another site need http.SameSiteNoneMode together with CookieSecure.
	CookieSameSite http.SameSite
	SessionTTL     time.Duration
}

// Handler serves the catalog API.
type Handler struct {
	sessions *session.Registry
	inquiry  card.Inquiry
	cookie   string
	secure   bool
	sameSite http.SameSite
	ttl      time.Duration
}

// New creates a Handler serving the catalog of sessions' store.
func New(cfg Config, sessions *session.Registry) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = session.DefaultTTL
	}
	if cfg.CookieSameSite == 0 {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	return &Handler{
		sessions: sessions,
		inquiry:  cfg.Inquiry,
		cookie:   cfg.CookieName,
		secure:   cfg.CookieSecure,
		sameSite: cfg.CookieSameSite,
		ttl:      cfg.SessionTTL,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+catalogPath, h.Catalog)
	mux.HandleFunc("GET /api/categories", h.Categories)
	mux.HandleFunc("GET /api/products/{id}", h.Product)
	mux.HandleFunc("POST /api/products/{id}/images/next", h.NextImage)
	mux.HandleFunc("POST /api/products/{id}/images/prev", h.PrevImage)
	mux.HandleFunc("PUT /api/products/{id}/quantity", h.SelectQuantity)
	mux.HandleFunc("GET /api/products/{id}/inquiry", h.Inquiry)
}

// session resolves the caller's session and returns the presentation adapter
// bound to it together with the catalog snapshot its state belongs to. A
// cookie naming a session this server did not issue, or one that expired,
// is replaced by a freshly minted session.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*card.Adapter, catalog.Snapshot) {
	var table *catalog.StateTable
	id := uuid.Nil
	if c, err := r.Cookie(h.cookie); err == nil {
		if parsed, err := uuid.Parse(c.Value); err == nil {
			if t, ok := h.sessions.Lookup(parsed); ok {
				id, table = parsed, t
			}
		}
	}
	if table == nil {
		id, table = h.sessions.New()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie,
		Value:    id.String(),
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: h.sameSite,
	})
	return card.NewAdapter(table, h.inquiry), table.Snapshot()
}

// product resolves the session and the product named by the {id} path value
// within the session's snapshot.
func (h *Handler) product(w http.ResponseWriter, r *http.Request) (*card.Adapter, *product.Product, error) {
	a, snap := h.session(w, r)
	p, err := snap.Product(r.PathValue("id"))
	if err != nil {
		return nil, nil, err
	}
	return a, p, nil
}

// Catalog serves one page of the filtered and sorted catalog.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	params, err := query.ParseParams(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	a, snap := h.session(w, r)
	res := query.Run(snap.Products, params)
	cards := make([]card.Card, len(res.Items))
	for i := range res.Items {
		cards[i] = a.Card(&res.Items[i])
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodePage(e, params, res, cards) })
}

// Categories serves the filter vocabulary.
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCategories(e, product.Categories()) })
}

// Product serves the card of one product.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	a, p, err := h.product(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCard(w, a, p)
}

// NextImage advances the product's current image.
func (h *Handler) NextImage(w http.ResponseWriter, r *http.Request) {
	a, p, err := h.product(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a.NextImage(p)
	h.writeCard(w, a, p)
}

// PrevImage moves the product's current image back.
func (h *Handler) PrevImage(w http.ResponseWriter, r *http.Request) {
	a, p, err := h.product(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a.PrevImage(p)
	h.writeCard(w, a, p)
}

// SelectQuantity stores the selected quantity option.
func (h *Handler) SelectQuantity(w http.ResponseWriter, r *http.Request) {
	a, p, err := h.product(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := decodeQuantity(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.fail(w, r, &badRequestError{err: err})
		return
	}
	if _, err := a.SelectQuantity(p, q); err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeCard(w, a, p)
}

// Inquiry redirects to the outbound inquiry link of the product.
func (h *Handler) Inquiry(w http.ResponseWriter, r *http.Request) {
	a, p, err := h.product(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, a.InquiryLink(p), http.StatusFound)
}

func (h *Handler) writeCard(w http.ResponseWriter, a *card.Adapter, p *product.Product) {
	c := a.Card(p)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCard(e, &c) })
}

// badRequestError marks malformed request input.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return "bad request: " + e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

// fail maps domain errors to HTTP status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, card.ErrInvalidQuantity):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, query.ErrInvalidSort),
		errors.Is(err, query.ErrUnknownCategory),
		errors.Is(err, query.ErrInvalidPage),
		errors.As(err, new(*badRequestError)):
		code = http.StatusBadRequest
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		msg = "internal error"
	}
	writeError(w, code, msg)
}
