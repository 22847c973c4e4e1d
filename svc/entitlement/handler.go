package entitlement

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gestaonuvem/entitlements/pkg/access"
	"github.com/gestaonuvem/entitlements/pkg/payment"
	"github.com/gestaonuvem/entitlements/pkg/plan"
	"github.com/gestaonuvem/entitlements/pkg/proration"
	"github.com/gestaonuvem/entitlements/pkg/requestid"
	"github.com/gestaonuvem/entitlements/pkg/subscription"
)

type httpHandler struct {
	svc *Service
}

// Handler exposes the service as JSON for a local UI shell.
//
//	GET    /plans
//	GET    /subscription                 POST /subscription/refresh
//	GET    /access/{view}                GET  /modules/{view}
//	GET    /entitlements/{resource}      GET  /features/{feature}
//	GET    /uploads?size_mb=             GET  /usage
//	POST   /usage/{resource}             POST /quotes
//	POST   /downgrade                    POST /upgrade-prompts
//	GET    /upgrade-prompts/stream       POST /signout
//	POST   /payments/card|pix|boleto
//	GET    /payments/{channel}           POST /payments/{channel}/resume
//	DELETE /payments/{channel}
func Handler(s *Service) http.Handler {
	h := &httpHandler{svc: s}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)

	r.Get("/plans", h.plans)
	r.Post("/signout", h.signOut)
	r.Get("/upgrade-prompts/stream", h.promptStream)
	r.Post("/upgrade-prompts", h.triggerUpgrade)

	r.Group(func(r chi.Router) {
		r.Use(h.requireRecord)

		r.Get("/subscription", h.subscription)
		r.Post("/subscription/refresh", h.refresh)
		r.Get("/access/{view}", h.access)
		r.Get("/modules/{view}", h.module)
		r.Get("/entitlements/{resource}", h.canCreate)
		r.Get("/features/{feature}", h.feature)
		r.Get("/uploads", h.upload)
		r.Get("/usage", h.usage)
		r.Post("/usage/{resource}", h.incrementUsage)
		r.Post("/quotes", h.quote)
		r.Post("/downgrade", h.downgrade)

		r.Route("/payments", func(r chi.Router) {
			r.Post("/card", h.payByCard)
			r.Post("/pix", h.startPix)
			r.Post("/boleto", h.startBoleto)
			r.Get("/{channel}", h.payment)
			r.Post("/{channel}/resume", h.resume)
			r.Delete("/{channel}", h.closePayment)
		})
	})

	return r
}

// requireRecord loads the subscription on first use.
func (h *httpHandler) requireRecord(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.svc.Loaded() {
			if _, err := h.svc.Load(r.Context()); err != nil {
				respondError(w, err, nil)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type subscriptionView struct {
	Record        *subscription.Record `json:"subscription"`
	EffectivePlan plan.Tier            `json:"effectivePlan"`
	TrialDaysLeft int                  `json:"trialDaysLeft,omitempty"`
	Loading       bool                 `json:"loading"`
}

func (h *httpHandler) view(rec *subscription.Record) subscriptionView {
	now := h.svc.clock.Now()
	v := subscriptionView{Record: rec, Loading: h.svc.Loading()}
	if rec != nil {
		v.EffectivePlan = rec.EffectivePlan(now)
		v.TrialDaysLeft = rec.TrialDaysRemainingAt(now)
	}
	return v
}

func (h *httpHandler) plans(w http.ResponseWriter, _ *http.Request) {
	respond(w, h.svc.catalog.All())
}

func (h *httpHandler) subscription(w http.ResponseWriter, _ *http.Request) {
	respond(w, h.view(h.svc.Record()))
}

func (h *httpHandler) refresh(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Revalidate(r.Context())
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respond(w, h.view(rec))
}

func (h *httpHandler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SignOut(r.Context()); err != nil {
		respondError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *httpHandler) access(w http.ResponseWriter, r *http.Request) {
	respond(w, h.svc.CheckAccess(access.View(chi.URLParam(r, "view"))))
}

func (h *httpHandler) module(w http.ResponseWriter, r *http.Request) {
	view := access.View(chi.URLParam(r, "view"))
	if promptRequested(r) {
		_ = h.svc.RequireModule(view)
	}
	respond(w, h.svc.CheckModuleAccess(view))
}

func (h *httpHandler) canCreate(w http.ResponseWriter, r *http.Request) {
	res := plan.Resource(chi.URLParam(r, "resource"))
	d := h.svc.CanCreate(res)
	if promptRequested(r) {
		h.svc.upsell(d)
	}
	respond(w, d)
}

func (h *httpHandler) feature(w http.ResponseWriter, r *http.Request) {
	d := h.svc.HasFeature(plan.Feature(chi.URLParam(r, "feature")))
	if promptRequested(r) {
		h.svc.upsell(d)
	}
	respond(w, d)
}

func (h *httpHandler) upload(w http.ResponseWriter, r *http.Request) {
	size, err := strconv.ParseFloat(r.URL.Query().Get("size_mb"), 64)
	if err != nil || size < 0 {
		respondError(w, fmt.Errorf("%w: size_mb", errInvalidParam), nil)
		return
	}
	respond(w, h.svc.CanUploadFile(size))
}

type usageView struct {
	Overview map[plan.Resource]subscription.UsageStat `json:"overview"`
	Warnings []string                                 `json:"warnings"`
}

func (h *httpHandler) usage(w http.ResponseWriter, _ *http.Request) {
	respond(w, usageView{Overview: h.svc.UsageOverview(), Warnings: h.svc.UsageWarnings()})
}

type incrementRequest struct {
	Amount float64 `json:"amount"`
}

func (h *httpHandler) incrementUsage(w http.ResponseWriter, r *http.Request) {
	req := incrementRequest{Amount: 1}
	if r.ContentLength != 0 {
		if err := bindJSON(r, &req); err != nil {
			respondError(w, err, nil)
			return
		}
	}
	rec, err := h.svc.IncrementUsage(r.Context(), plan.Resource(chi.URLParam(r, "resource")), req.Amount)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respond(w, h.view(rec))
}

func (h *httpHandler) quote(w http.ResponseWriter, r *http.Request) {
	var target proration.Target
	if err := bindJSON(r, &target); err != nil {
		respondError(w, err, nil)
		return
	}
	q, err := h.svc.QuotePlanChange(target)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respond(w, q)
}

func (h *httpHandler) downgrade(w http.ResponseWriter, r *http.Request) {
	var target proration.Target
	if err := bindJSON(r, &target); err != nil {
		respondError(w, err, nil)
		return
	}
	d, err := h.svc.RequestDowngrade(r.Context(), target.Plan, target.Cycle)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respond(w, d)
}

type upgradeRequest struct {
	Reason       string    `json:"reason"`
	RequiredPlan plan.Tier `json:"requiredPlan,omitempty"`
}

func (h *httpHandler) triggerUpgrade(w http.ResponseWriter, r *http.Request) {
	var req upgradeRequest
	if err := bindJSON(r, &req); err != nil {
		respondError(w, err, nil)
		return
	}
	if req.RequiredPlan != "" && !req.RequiredPlan.Valid() {
		respondError(w, fmt.Errorf("%w: requiredPlan %q", ErrInvalidTarget, req.RequiredPlan), nil)
		return
	}
	writeJSON(w, http.StatusAccepted, jsonResponse{Data: h.svc.TriggerUpgrade(req.Reason, req.RequiredPlan)})
}

// promptStream relays upgrade prompts as server-sent events until the client leaves.
func (h *httpHandler) promptStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, fmt.Errorf("%w: streaming unsupported", errInvalidParam), nil)
		return
	}

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for p := range h.svc.Subscribe(r.Context()) {
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: upgrade\ndata: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (h *httpHandler) payByCard(w http.ResponseWriter, r *http.Request) {
	var req payment.CheckoutRequest
	if err := bindJSON(r, &req); err != nil {
		respondError(w, err, nil)
		return
	}
	out, err := h.svc.PayByCard(r.Context(), req)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respond(w, out)
}

type paymentView struct {
	Intent    payment.Intent     `json:"intent"`
	State     payment.WatchState `json:"state,omitempty"`
	Remaining string             `json:"remaining"`
	Seconds   int64              `json:"secondsRemaining"`
}

func watchView(wt *payment.Watch) paymentView {
	cd := wt.Countdown()
	return paymentView{
		Intent:    wt.Intent(),
		State:     wt.State(),
		Remaining: cd.String(),
		Seconds:   int64(cd.Remaining / time.Second),
	}
}

func (h *httpHandler) startPix(w http.ResponseWriter, r *http.Request) {
	var req payment.IntentRequest
	if err := bindJSON(r, &req); err != nil {
		respondError(w, err, nil)
		return
	}
	wt, err := h.svc.StartPix(r.Context(), req, nil)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{Data: watchView(wt)})
}

func (h *httpHandler) startBoleto(w http.ResponseWriter, r *http.Request) {
	var req payment.IntentRequest
	if err := bindJSON(r, &req); err != nil {
		respondError(w, err, nil)
		return
	}
	var details payment.BillingDetails
	if req.BillingDetails != nil {
		details = *req.BillingDetails
	}
	wt, err := h.svc.StartBoleto(r.Context(), req, details, nil)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{Data: watchView(wt)})
}

func channelParam(r *http.Request) (payment.Channel, error) {
	ch := payment.Channel(chi.URLParam(r, "channel"))
	if !ch.Async() {
		return "", fmt.Errorf("%w: %q", payment.ErrUnknownChannel, ch)
	}
	return ch, nil
}

func (h *httpHandler) payment(w http.ResponseWriter, r *http.Request) {
	ch, err := channelParam(r)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	if wt, ok := h.svc.Payment(ch); ok {
		respond(w, watchView(wt))
		return
	}
	if intent, ok := h.svc.PendingPayment(ch); ok {
		respond(w, paymentView{Intent: intent, State: payment.WatchClosed})
		return
	}
	respondError(w, fmt.Errorf("%w: %s", ErrNoActivePayment, ch), nil)
}

func (h *httpHandler) resume(w http.ResponseWriter, r *http.Request) {
	ch, err := channelParam(r)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	wt, err := h.svc.ResumePayment(r.Context(), ch, nil)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respond(w, watchView(wt))
}

func (h *httpHandler) closePayment(w http.ResponseWriter, r *http.Request) {
	ch, err := channelParam(r)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	h.svc.ClosePayment(ch)
	w.WriteHeader(http.StatusNoContent)
}

func promptRequested(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("prompt"))
	return v
}
