package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
	"github.com/annisahuljannah/cadoobag/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// codesWithOwnMessage are safe to surface verbatim; everything else falls
// back to the metadata's public message so internals never leak.
var codesWithOwnMessage = map[pkgerrors.Code]bool{
	pkgerrors.CodeValidation:           true,
	pkgerrors.CodeNotFound:             true,
	pkgerrors.CodeConflict:             true,
	pkgerrors.CodeStateConflict:        true,
	pkgerrors.CodeInsufficientStock:    true,
	pkgerrors.CodeProductInactive:      true,
	pkgerrors.CodeInvalidVoucher:       true,
	pkgerrors.CodeVoucherInactive:      true,
	pkgerrors.CodeVoucherExpired:       true,
	pkgerrors.CodeVoucherQuotaExceeded: true,
	pkgerrors.CodeVoucherBelowMinSpend: true,
	pkgerrors.CodeInvalidPaymentMethod: true,
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if codesWithOwnMessage[typed.Code()] {
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: msg,
		},
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"error_code": string(typed.Code()),
			"status":     meta.HTTPStatus,
		})
		logg.Error(ctx, "request.error", err)
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
