package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joinsangha/storefront/internal/ratelimit"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Engagement *EngagementHandler
	Payment    *PaymentHandler
	Cart       *CartHandler
	Checkout   *CheckoutHandler
	Feed       *FeedHandler
	Inquiry    *InquiryHandler
	Limiters   ratelimit.Factory

	RequestTimeout time.Duration
	SecureCookies  bool
	Log            *zap.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(deps.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not_found", "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	limit := func(p ratelimit.Policy, deny denyFunc) func(http.Handler) http.Handler {
		return RateLimit(deps.Limiters(p), deny, deps.Log)
	}

	r.Route("/api", func(r chi.Router) {
		r.With(limit(ratelimit.TrackView, denyWithError)).Post("/track-blog-view", deps.Engagement.TrackView)
		r.With(limit(ratelimit.TrackLike, denyWithError)).Post("/track-blog-like", deps.Engagement.TrackLike)
		r.Get("/get-blog-stats", deps.Engagement.GetStats)

		r.With(limit(ratelimit.PaymentIntent, denyWithMessage)).Post("/create-payment-intent", deps.Payment.CreatePaymentIntent)
		r.With(limit(ratelimit.SaveOrder, denyWithMessage)).Post("/save-order", deps.Payment.SaveOrder)
		r.Post("/stripe-webhook", deps.Payment.StripeWebhook)

		r.Get("/get-merchandise", deps.Feed.GetMerchandise)
		r.Get("/get-blog-posts", deps.Feed.GetBlogPosts)
		r.Get("/get-jobs", deps.Feed.GetJobs)

		r.With(limit(ratelimit.Support, denyWithMessage)).Post("/send-support-email", deps.Inquiry.SendSupport)
		r.With(limit(ratelimit.Partnership, denyWithMessage)).Post("/send-partnership-email", deps.Inquiry.SendPartnership)
		r.With(limit(ratelimit.Application, denyWithMessage)).Post("/send-application-email", deps.Inquiry.SendApplication)
		r.Post("/contact", deps.Inquiry.Contact)

		r.Route("/v1", func(r chi.Router) {
			r.Use(SessionMiddleware(deps.SecureCookies))
			mutate := limit(ratelimit.Checkout, denyWithError)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", deps.Cart.GetCart)
				r.With(mutate).Post("/items", deps.Cart.AddItem)
				r.With(mutate).Patch("/items/{index}", deps.Cart.AdjustQuantity)
				r.With(mutate).Delete("/items/{index}", deps.Cart.RemoveItem)
				r.With(mutate).Delete("/", deps.Cart.ClearCart)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", deps.Checkout.GetCheckout)
				r.Group(func(r chi.Router) {
					r.Use(mutate)
					r.Post("/start", deps.Checkout.Start)
					r.Post("/shipping", deps.Checkout.SubmitShipping)
					r.Post("/back", deps.Checkout.Back)
					r.Post("/confirm", deps.Checkout.ConfirmPayment)
					r.Post("/dismiss", deps.Checkout.Dismiss)
					r.Post("/reset", deps.Checkout.Reset)
				})
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
