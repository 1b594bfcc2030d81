package newsletter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrymomot/newsletter/handler"
	"github.com/dmitrymomot/newsletter/pkg/binder"
	"github.com/dmitrymomot/newsletter/pkg/clientip"
	"github.com/dmitrymomot/newsletter/pkg/httpserver"
	"github.com/dmitrymomot/newsletter/pkg/kv"
	"github.com/dmitrymomot/newsletter/pkg/logger"
	"github.com/dmitrymomot/newsletter/pkg/metrics"
	"github.com/dmitrymomot/newsletter/pkg/ratelimiter"
	"github.com/dmitrymomot/newsletter/pkg/requestid"
	"github.com/dmitrymomot/newsletter/svc/adminauth"
	"github.com/dmitrymomot/newsletter/svc/broadcast"
	"github.com/dmitrymomot/newsletter/svc/subscriber"
)

// Deps are the services behind the routes. Metrics, Limiter and Ready are
// optional; a nil Limiter leaves the public write endpoints unthrottled.
type Deps struct {
	Subscribers *subscriber.Service
	Broadcasts  *broadcast.Coordinator
	Auth        *adminauth.Service
	Metrics     *metrics.Metrics
	Limiter     *ratelimiter.Bucket
	Logger      *slog.Logger
	Ready       []httpserver.Check
}

type module struct {
	cfg  Config
	deps Deps
	log  *slog.Logger
	errs handler.ErrorHandler
}

// Router builds the HTTP handler for the whole service.
//
//	r := newsletter.Router(cfg, newsletter.Deps{
//		Subscribers: subscribers,
//		Broadcasts:  broadcasts,
//		Auth:        auth,
//	})
//	srv.Run(ctx, r)
func Router(cfg Config, deps Deps) chi.Router {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("http"))
	m := &module{cfg: cfg, deps: deps, log: log, errs: handler.NewErrorHandler(log)}

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		middleware.Recoverer,
		deps.Metrics.Middleware,
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", requestid.Header},
			ExposedHeaders:   []string{requestid.Header},
			AllowCredentials: !allowsAny(cfg.AllowedOrigins),
			MaxAge:           300,
		}),
	)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, cfg.ReadyTimeout, deps.Ready...))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Endpoints that send email or check the password spend a token per call.
	limitKey := ratelimiter.Composite(m.clientIP, func(r *http.Request) string { return r.URL.Path })
	limited := r.With(ratelimiter.Middleware(deps.Limiter, limitKey, m.throttled))
	limited.Post("/subscribe", wrap(m, m.subscribe, binder.Body()))
	limited.Post("/confirm", wrap(m, m.resendConfirmation, binder.Body()))
	limited.Post("/auth", wrap(m, m.login, binder.Body()))

	r.Get("/confirm", wrap(m, m.confirm, binder.Query()))
	r.Get("/unsubscribe", wrap(m, m.unsubscribe, binder.Query()))
	r.Post("/unsubscribe", wrap(m, m.unsubscribe, binder.Query(), ifBody(binder.Body())))

	r.Delete("/auth", wrap(m, m.logout))

	r.Group(func(admin chi.Router) {
		admin.Use(deps.Auth.Middleware(m.deny))

		admin.Get("/subscribers", wrap(m, m.maskedSubscribers, binder.Query()))
		admin.Route("/admin", func(r chi.Router) {
			r.Get("/subscribers", wrap(m, m.listSubscribers, binder.Query()))
			r.Post("/subscribers", wrap(m, m.bulkImport, binder.Body()))
			r.Delete("/subscribers", wrap(m, m.forceUnsubscribe, binder.Body()))
			r.Post("/newsletter", wrap(m, m.sendNewsletter, binder.Body()))
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = handler.Fail(http.StatusNotFound, handler.ErrNotFound.Message).Render(w, r)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = handler.Fail(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed)).Render(w, r)
	})
	return r
}

// deny renders the admin middleware rejection.
func (m *module) deny(w http.ResponseWriter, r *http.Request, err error) {
	ctx := handler.NewContext(w, r)
	var resp handler.Response
	if isUnavailable(err) {
		resp = m.fail(ctx, handler.ErrServiceUnavailable.Wrap(err))
	} else {
		resp = handler.Fail(http.StatusUnauthorized, adminauth.MsgUnauthorized)
	}
	if renderErr := resp.Render(w, r); renderErr != nil {
		m.errs(ctx, renderErr)
	}
}

// throttled renders the rate limit rejection.
func (m *module) throttled(w http.ResponseWriter, r *http.Request, _ *ratelimiter.Result) {
	m.log.WarnContext(r.Context(), "request throttled",
		slog.String("path", r.URL.Path),
		slog.String("ip", m.clientIP(r)),
	)
	err := handler.ErrTooManyRequests
	if renderErr := handler.Fail(err.Code, err.Message).Render(w, r); renderErr != nil {
		m.errs(handler.NewContext(w, r), renderErr)
	}
}

func (m *module) clientIP(r *http.Request) string {
	return clientip.FromRequest(r, m.cfg.TrustProxy)
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}

// wrap adapts a typed handler with the module's error handler.
func wrap[R any](m *module, h handler.HandlerFunc[R], binders ...binder.Func) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[R](binders...),
		handler.WithErrorHandler[R](m.errs),
	)
}

// ifBody runs bind only for requests that declare a body.
func ifBody(bind binder.Func) binder.Func {
	return func(r *http.Request, v any) error {
		if r.Header.Get("Content-Type") == "" || r.ContentLength == 0 {
			return nil
		}
		return bind(r, v)
	}
}

func isUnavailable(err error) bool {
	return errors.Is(err, kv.ErrUnavailable)
}
