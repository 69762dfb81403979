package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stondral/tsew-sub002/api/responses"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/gateway"
	"github.com/stondral/tsew-sub002/pkg/logger"
)

const maxWebhookBytes = 512 << 10

type paymentEventHandler interface {
	Handle(ctx context.Context, body []byte, signature string) error
}

// PaymentWebhook hands the raw gateway payload to the settlement consumer.
// The body is passed through untouched so the signature can be checked
// against the exact bytes the gateway signed.
func PaymentWebhook(consumer paymentEventHandler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if consumer == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment webhook consumer unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}
		signature := r.Header.Get(gateway.SignatureHeader)
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInvalidSignature, "webhook signature missing"))
			return
		}

		if err := consumer.Handle(ctx, payload, signature); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
