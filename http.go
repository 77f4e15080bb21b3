package library

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-library/middleware/tokenware"
)

const callerLocalsKey = "caller"

// API holds the HTTP controllers and their dependencies
type API struct {
	cfg         Config
	repo        RepositoryManager
	tokens      TokenService
	hasher      PasswordAuthenticator
	auther      *Auther
	lifecycle   AccountLifecycle
	guard       *Guard
	resolver    CallerResolver
	createAdmin *CreateAdminHandler
	updateAdmin *UpdateAdminHandler
	metrics     *Metrics
	sink        ActivitySink
	activity    ActivitySink
	logger      Logger
	errors      *ErrorResponder
	now         func() time.Time
}

// APIOption customizes the API
type APIOption func(*API)

// WithAPILogger sets the logger
func WithAPILogger(logger Logger) APIOption {
	return func(a *API) {
		a.logger = normalizeLogger(logger)
	}
}

// WithAPIMetrics enables Prometheus metrics and the /metrics route
func WithAPIMetrics(m *Metrics) APIOption {
	return func(a *API) {
		a.metrics = m
	}
}

// WithAPIActivitySink adds an audit sink next to metrics
func WithAPIActivitySink(sink ActivitySink) APIOption {
	return func(a *API) {
		a.sink = sink
	}
}

// WithAPIHasher replaces the bcrypt hasher built from config
func WithAPIHasher(h PasswordAuthenticator) APIOption {
	return func(a *API) {
		if h != nil {
			a.hasher = h
		}
	}
}

// WithAPIClock injects a clock (useful for tests).
func WithAPIClock(now func() time.Time) APIOption {
	return func(a *API) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAPI wires the services behind the HTTP surface
func NewAPI(cfg Config, repo RepositoryManager, opts ...APIOption) *API {
	a := &API{
		cfg:    cfg,
		repo:   repo,
		logger: defLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.hasher == nil {
		a.hasher = NewBcryptHasher(cfg.GetBcryptCost())
	}

	sinks := MultiActivitySink{}
	if a.sink != nil {
		sinks = append(sinks, a.sink)
	}
	var recorder DecisionRecorder = noopRecorder{}
	if a.metrics != nil {
		sinks = append(sinks, a.metrics)
		recorder = a.metrics
	}

	a.activity = sinks

	a.tokens = NewTokenService(cfg, WithTokenClock(a.now), WithTokenLogger(a.logger))
	a.auther = NewAuthenticator(repo, a.tokens, a.hasher).
		WithLogger(a.logger).
		WithActivitySink(sinks)
	a.lifecycle = NewAccountLifecycle(repo, a.tokens, a.hasher, cfg,
		WithLifecycleClock(a.now),
		WithLifecycleActivitySink(sinks),
		WithLifecycleLogger(a.logger),
	)
	a.guard = NewGuard(
		WithGuardLogger(a.logger),
		WithDecisionRecorder(recorder),
		WithGuardActivitySink(sinks),
	)
	a.resolver = NewCallerResolver(a.tokens, repo.Accounts(), repo.Admins(), a.logger)
	a.createAdmin = NewCreateAdminHandler(repo, a.hasher, sinks, a.logger)
	a.updateAdmin = NewUpdateAdminHandler(repo, a.hasher, sinks, a.logger)
	a.errors = NewErrorResponder(a.logger)

	return a
}

// TokenService exposes the token codec the API signs with
func (a *API) TokenService() TokenService {
	return a.tokens
}

// NewApp returns a fiber app with every route registered
func (a *API) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "go-library",
		ErrorHandler:          a.errors.Handle,
		DisableStartupMessage: true,
	})
	a.Register(app)
	return app
}

// Register mounts middleware and routes on app
func (a *API) Register(app *fiber.App) {
	app.Use(requestid.New())
	// the counter wraps recover so panics are counted as the 500 they become
	if a.metrics != nil {
		app.Use(a.countRequests)
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.metrics.Registry(), promhttp.HandlerOpts{})))
	}
	app.Use(recover.New())

	api := app.Group(a.cfg.GetBasePath())
	authenticated := a.authenticated()

	api.Get("/health", a.Health)

	auth := api.Group("/auth")
	auth.Post("/login/admins", a.LoginAdmin)
	auth.Post("/login/users", a.LoginUser)
	auth.Get("/admin", authenticated, a.CurrentAdmin)
	auth.Get("/user", authenticated, a.CurrentUser)

	admins := api.Group("/admins", authenticated)
	admins.Get("/", a.ListAdmins)
	admins.Post("/", a.CreateAdmin)
	admins.Get("/:id", a.GetAdmin)
	admins.Put("/:id", a.UpdateAdmin)
	admins.Delete("/:id", a.DeleteAdmin)

	users := api.Group("/users")
	users.Post("/register", a.RegisterAccount)
	users.Post("/confirm/:id", a.ConfirmEmail)
	users.Get("/", authenticated, a.ListUsers)
	users.Get("/:id", authenticated, a.GetUser)
	users.Put("/:id", authenticated, a.UpdateUser)
	users.Delete("/:id", authenticated, a.DeleteUser)
	users.Post("/:id/library", authenticated, a.AddToLibrary)
	users.Delete("/:id/library/:bookId", authenticated, a.RemoveFromLibrary)

	authors := api.Group("/authors")
	authors.Get("/", a.ListAuthors)
	authors.Get("/:id", a.GetAuthor)
	authors.Post("/", authenticated, a.CreateAuthor)
	authors.Put("/:id", authenticated, a.UpdateAuthor)
	authors.Delete("/:id", authenticated, a.DeleteAuthor)

	books := api.Group("/books")
	books.Get("/", a.ListBooks)
	books.Get("/:id", a.GetBook)
	books.Post("/", authenticated, a.CreateBook)
	books.Put("/:id", authenticated, a.UpdateBook)
	books.Delete("/:id", authenticated, a.DeleteBook)
}

func (a *API) authenticated() fiber.Handler {
	return tokenware.New(tokenware.Config[Caller]{
		Resolver:     a.resolver,
		ContextKey:   callerLocalsKey,
		TokenLookup:  "header:" + tokenware.HeaderAuthToken,
		ErrorHandler: a.errors.Handle,
		ContextEnricher: func(ctx context.Context, caller Caller) context.Context {
			return WithCaller(ctx, caller)
		},
	})
}

func (a *API) caller(c *fiber.Ctx) Caller {
	if caller, ok := tokenware.Principal[Caller](c, callerLocalsKey); ok {
		return caller
	}
	return Anonymous()
}

// countRequests runs the error handler itself so the recorded status is the
// one the client sees.
func (a *API) countRequests(c *fiber.Ctx) error {
	if err := c.Next(); err != nil {
		if herr := a.errors.Handle(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	a.metrics.RecordRequest(c.Method(), c.Route().Path, c.Response().StatusCode())
	return nil
}

// Health pings the store
func (a *API) Health(c *fiber.Ctx) error {
	if err := a.repo.Ping(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// DeletedResponse is returned by delete endpoints
type DeletedResponse struct {
	Deleted string `json:"deleted"`
}

type validatable interface {
	Validate() error
}

func bind(c *fiber.Ctx, out validatable) error {
	if err := parseBody(c, out); err != nil {
		return err
	}
	if err := out.Validate(); err != nil {
		return validationFailed(err)
	}
	return nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return NewValidationError(map[string]string{"body": "invalid request body"})
	}
	return nil
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return ParseID(c.Params(name))
}
