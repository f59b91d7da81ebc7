package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/annisahuljannah/cadoobag/api/controllers"
	"github.com/annisahuljannah/cadoobag/api/middleware"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
)

// Dependencies is everything the router wires handlers out of.
type Dependencies struct {
	Logger *logger.Logger

	Health        *controllers.HealthController
	Checkout      *controllers.CheckoutController
	Orders        *controllers.OrdersController
	Shipping      *controllers.ShippingController
	Payments      *controllers.PaymentsController
	ManualPayment *controllers.ManualPaymentController
	Webhook       *controllers.WebhookController

	Metrics http.Handler
}

func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.CORS())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", deps.Health.Live)
		r.Get("/ready", deps.Health.Ready)
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", deps.Checkout.Checkout)
		r.Post("/checkout/preview", deps.Checkout.Preview)

		r.Get("/orders/{orderNumber}", deps.Orders.GetByNumber)

		r.Route("/shipping", func(r chi.Router) {
			r.Get("/provinces", deps.Shipping.Provinces)
			r.Get("/cities", deps.Shipping.Cities)
			r.Get("/subdistricts", deps.Shipping.Subdistricts)
			r.Get("/rates", deps.Shipping.Rates)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/channels", deps.Payments.Channels)
			r.Get("/fee", deps.Payments.FeeQuote)
			r.Get("/banks", deps.Payments.Banks)
			r.Post("/{paymentID}/proof", deps.ManualPayment.UploadProof)
		})

		r.Post("/webhooks/payment", deps.Webhook.PaymentCallback)
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			r.Get("/pending", deps.ManualPayment.ListPending)
			r.Post("/{paymentID}/verify", deps.ManualPayment.Verify)
			r.Post("/{paymentID}/reject", deps.ManualPayment.Reject)
		})
	})

	return r
}
