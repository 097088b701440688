// Package handler exposes the registration journey and contact verification over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"registrar/internal/domain"
	"registrar/internal/payment"
	"registrar/internal/registration"
	"registrar/internal/verification"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

// Registration is the subset of the registration machine served over HTTP.
type Registration interface {
	View() registration.View
	Submit(ctx context.Context, form registration.Form) error
	EditFromConfirmation(ctx context.Context) error
	ReturnToConfirmation(ctx context.Context) error
	PayNow(ctx context.Context) (registration.PaymentView, error)
	PaymentReturned(ctx context.Context, paymentID string) error
	ManualVerify(ctx context.Context, proof payment.ManualProof) (registration.PaymentView, error)
}

// Verification is the subset of the verification flow served over HTTP.
type Verification interface {
	View() verification.View
	SendCode(ctx context.Context, channel domain.Channel, identifier string) error
	ResendCode(ctx context.Context) (verification.ResendResult, error)
	VerifyCode(ctx context.Context, code string) error
}

// Handler wires registration and verification endpoints.
type Handler struct {
	registration Registration
	verification Verification
	logger       *slog.Logger
	operatorOnly func(http.Handler) http.Handler
}

// New constructs the handler. operatorOnly guards the manual payment
// verification route; nil leaves it open.
func New(reg Registration, ver Verification, logger *slog.Logger, operatorOnly func(http.Handler) http.Handler) *Handler {
	if operatorOnly == nil {
		operatorOnly = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		registration: reg,
		verification: ver,
		logger:       logger,
		operatorOnly: operatorOnly,
	}
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registration", func(r chi.Router) {
		r.Get("/", h.HandleView)
		r.Post("/submit", h.HandleSubmit)
		r.Post("/edit", h.HandleEdit)
		r.Post("/return", h.HandleReturn)
		r.Post("/pay", h.HandlePay)
		r.Get("/payment/return", h.HandlePaymentReturn)
		r.With(h.operatorOnly).Post("/payment/manual-verify", h.HandleManualVerify)
	})
	r.Route("/verification", func(r chi.Router) {
		r.Get("/", h.HandleVerificationView)
		r.Post("/send", h.HandleSendCode)
		r.Post("/resend", h.HandleResendCode)
		r.Post("/verify", h.HandleVerifyCode)
	})
}

// HandleView handles GET /registration.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.registration.View())
}

// HandleSubmit handles POST /registration/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.registration.Submit(ctx, req.Form()); err != nil {
		h.fail(ctx, w, "registration submit failed", err)
		return
	}
	h.logger.InfoContext(ctx, "registration submitted",
		"request_id", requestID,
		"invite_channel", req.InviteChannel,
	)
	httputil.WriteJSON(w, http.StatusOK, h.registration.View())
}

// HandleEdit handles POST /registration/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "edit from confirmation failed", h.registration.EditFromConfirmation)
}

// HandleReturn handles POST /registration/return.
func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "return to confirmation failed", h.registration.ReturnToConfirmation)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, msg string, fn func(context.Context) error) {
	ctx := r.Context()
	if err := fn(ctx); err != nil {
		h.fail(ctx, w, msg, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.registration.View())
}

// HandlePay handles POST /registration/pay.
func (h *Handler) HandlePay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pv, err := h.registration.PayNow(ctx)
	if err != nil {
		h.fail(ctx, w, "payment initiation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pv)
}

// HandlePaymentReturn handles GET /registration/payment/return, the landing
// route after the external payment page.
func (h *Handler) HandlePaymentReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paymentID := strings.TrimSpace(r.URL.Query().Get("payment_id"))
	if paymentID == "" {
		httputil.WriteError(w, dErrors.Validation("payment_id is required", map[string]string{"payment_id": "required"}))
		return
	}
	if err := h.registration.PaymentReturned(ctx, paymentID); err != nil {
		h.fail(ctx, w, "payment return failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, h.registration.View())
}

// HandleManualVerify handles POST /registration/payment/manual-verify.
func (h *Handler) HandleManualVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ManualVerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	actor := requestcontext.Actor(ctx)
	pv, err := h.registration.ManualVerify(ctx, req.Proof(actor))
	if err != nil {
		h.fail(ctx, w, "manual verification failed", err)
		return
	}
	h.logger.InfoContext(ctx, "manual verification accepted",
		"request_id", requestID,
		"actor", actor,
		"payment_id", pv.PaymentID,
	)
	httputil.WriteJSON(w, http.StatusOK, pv)
}

// HandleVerificationView handles GET /verification.
func (h *Handler) HandleVerificationView(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.verification.View())
}

// HandleSendCode handles POST /verification/send.
func (h *Handler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SendCodeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.verification.SendCode(ctx, req.Channel, req.Identifier); err != nil {
		h.fail(ctx, w, "send verification code failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.verification.View())
}

// HandleResendCode handles POST /verification/resend.
func (h *Handler) HandleResendCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.verification.ResendCode(ctx)
	if err != nil {
		h.fail(ctx, w, "resend verification code failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ResendResponse{
		Sent:              res.Sent,
		CooldownRemaining: res.CooldownRemaining,
		Notice:            res.Notice,
	})
}

// HandleVerifyCode handles POST /verification/verify.
func (h *Handler) HandleVerifyCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyCodeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.verification.VerifyCode(ctx, req.Code); err != nil {
		h.fail(ctx, w, "verify code failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.verification.View())
}

// fail logs at a level matching the error class and writes it.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	code := dErrors.CodeOf(err)
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"code", string(code),
		"error", err,
	}
	if dErrors.ToHTTPStatus(code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
