package signup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dalemusser/signup/httputil"
	"github.com/dalemusser/signup/metrics"
	"github.com/dalemusser/signup/pantry/validate"
	"github.com/dalemusser/signup/pantry/websocket"
)

// Live events. Input re-evaluates a field; blur also marks it touched.
const (
	EventInput = "input"
	EventBlur  = "blur"
)

var errUnknownEvent = errors.New("unknown event")

// fieldEvent is one live validation request.
type fieldEvent struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Event string `json:"event"`
}

// fieldResult is a field's state as sent to the browser.
type fieldResult struct {
	Name    string          `json:"name"`
	Valid   bool            `json:"valid"`
	Touched bool            `json:"touched"`
	Reason  validate.Reason `json:"reason,omitempty"`
	Message string          `json:"message,omitempty"`
}

// liveResponse answers one fieldEvent.
type liveResponse struct {
	Field     fieldResult `json:"field"`
	FormValid bool        `json:"form_valid"`
}

// apply feeds ev into f and reports the field's new state.
func apply(f *validate.Form, ev fieldEvent) (liveResponse, error) {
	if !f.Has(ev.Field) {
		return liveResponse{}, fmt.Errorf("%w: %q", validate.ErrUnknownField, ev.Field)
	}
	if ev.Event != EventInput && ev.Event != EventBlur {
		return liveResponse{}, fmt.Errorf("%w %q", errUnknownEvent, ev.Event)
	}
	_ = f.Set(ev.Field, normalize(ev.Field, ev.Value))
	if ev.Event == EventBlur {
		_ = f.Touch(ev.Field)
	}
	st := f.State(ev.Field)
	return liveResponse{
		Field: fieldResult{
			Name:    ev.Field,
			Valid:   st.Valid,
			Touched: st.Touched,
			Reason:  st.Reason,
			Message: st.Message(),
		},
		FormValid: f.Valid(),
	}, nil
}

// eventError maps apply failures to a JSON error code.
func eventError(err error) (code string, status int) {
	switch {
	case errors.Is(err, validate.ErrUnknownField):
		return "unknown_field", http.StatusBadRequest
	case errors.Is(err, errUnknownEvent):
		return "unknown_event", http.StatusBadRequest
	default:
		return "bad_request", http.StatusBadRequest
	}
}

// validateField handles POST /validate.
func (h *Handler) validateField(w http.ResponseWriter, r *http.Request) {
	var ev fieldEvent
	if err := httputil.BindJSON(r, &ev); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	sess, f, d, err := h.loadDraft(r)
	if err != nil {
		h.logger.Error("load session failed", zap.Error(err))
		httputil.JSONError(w, http.StatusInternalServerError, "internal", "session unavailable")
		return
	}

	res, err := apply(f, ev)
	if err != nil {
		code, status := eventError(err)
		httputil.JSONError(w, status, code, err.Error())
		return
	}
	metrics.ObserveLiveValidation("http", res.Field.Valid)

	if err := h.saveDraft(w, r, sess, f, d.ShowPassword); err != nil {
		h.logger.Error("save session failed", zap.Error(err))
		httputil.JSONError(w, http.StatusInternalServerError, "internal", "session unavailable")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// liveSocket handles GET /live. The connection owns one Form for its
// lifetime and persists the draft after every event, so a reload shows what
// was typed.
func (h *Handler) liveSocket(w http.ResponseWriter, r *http.Request) {
	sess, f, d, err := h.loadDraft(r)
	if err != nil {
		h.logger.Error("load session failed", zap.Error(err))
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}
	// The 101 response is the only chance to set the cookie.
	h.sessions.SetCookie(w, sess)

	conn, err := websocket.Accept(w, r, &h.accept)
	if err != nil {
		h.logger.Debug("websocket upgrade refused", zap.Error(err))
		return
	}

	err = websocket.Serve(r.Context(), conn, h.live, func(ctx context.Context, msg []byte) (any, error) {
		var ev fieldEvent
		if err := httputil.DecodeJSON(bytes.NewReader(msg), &ev); err != nil {
			return httputil.ErrorResponse{Error: "bad_request", Message: err.Error()}, nil
		}
		res, err := apply(f, ev)
		if err != nil {
			code, _ := eventError(err)
			return httputil.ErrorResponse{Error: code, Message: err.Error()}, nil
		}
		metrics.ObserveLiveValidation("ws", res.Field.Valid)

		if err := sess.Put(draftKey, Draft{Form: f.Snapshot(), ShowPassword: d.ShowPassword}); err != nil {
			return nil, err
		}
		if err := h.sessions.Persist(ctx, sess); err != nil {
			return nil, err
		}
		return res, nil
	})

	switch {
	case err == nil, websocket.IsNormalClose(err), errors.Is(err, context.Canceled):
		_ = conn.Close()
	default:
		h.logger.Warn("live validation ended", zap.Error(err))
		_ = conn.CloseWithReason(websocket.StatusInternalError, "internal error")
	}
}
