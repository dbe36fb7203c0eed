package httpapi

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/gramseva/internal/auth"
	"github.com/vladislavdragonenkov/gramseva/internal/booking"
	"github.com/vladislavdragonenkov/gramseva/internal/cart"
	"github.com/vladislavdragonenkov/gramseva/internal/catalog"
	"github.com/vladislavdragonenkov/gramseva/internal/checkout"
	"github.com/vladislavdragonenkov/gramseva/internal/domain"
	"github.com/vladislavdragonenkov/gramseva/internal/metrics"
)

const defaultLoginPath = "/login"

// Dependencies — коллабораторы HTTP-слоя.
type Dependencies struct {
	Catalog  *catalog.Catalog
	Auth     *auth.Service
	Bookings *booking.Service
	Contacts domain.ContactRepository
	// Idempotency может быть nil — тогда POST /api/bookings работает
	// без идемпотентного кэша.
	Idempotency domain.IdempotencyRepository
	Carts       *cart.Manager
}

// Options настраивает Server.
type Options struct {
	Logger          *log.Entry
	CheckoutMetrics *metrics.CheckoutMetrics
	HTTPMetrics     *metrics.HTTPMetrics
	LoginPath       string
}

// Option настраивает Server.
type Option func(*Options)

// WithLogger задаёт logger HTTP-слоя.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) { opts.Logger = logger }
}

// WithCheckoutMetrics задаёт метрики корзины и оформления; nil отключает их.
func WithCheckoutMetrics(m *metrics.CheckoutMetrics) Option {
	return func(opts *Options) { opts.CheckoutMetrics = m }
}

// WithHTTPMetrics задаёт метрики HTTP-запросов; nil отключает их.
func WithHTTPMetrics(m *metrics.HTTPMetrics) Option {
	return func(opts *Options) { opts.HTTPMetrics = m }
}

// WithLoginPath задаёт путь редиректа для неаутентифицированного оформления.
func WithLoginPath(path string) Option {
	return func(opts *Options) { opts.LoginPath = path }
}

// Server связывает доменные сервисы с JSON API платформы.
type Server struct {
	catalog  *catalog.Catalog
	auth     *auth.Service
	bookings *booking.Service
	contacts domain.ContactRepository
	idem     domain.IdempotencyRepository
	carts    *cart.Manager

	checkoutMetrics *metrics.CheckoutMetrics
	httpMetrics     *metrics.HTTPMetrics
	logger          *log.Entry
	loginPath       string

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// sessionState — состояние оформления одной сессии: координатор живёт
// столько же, сколько корзина, чтобы single-flight guard действовал
// между последовательными HTTP-запросами.
type sessionState struct {
	coordinator *checkout.Coordinator
	creds       *tokenHolder
}

// NewServer создаёт HTTP-слой поверх доменных сервисов.
func NewServer(deps Dependencies, options ...Option) *Server {
	opts := Options{LoginPath: defaultLoginPath}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "httpapi")
	}

	carts := deps.Carts
	if carts == nil {
		carts = cart.NewManager()
	}

	return &Server{
		catalog:         deps.Catalog,
		auth:            deps.Auth,
		bookings:        deps.Bookings,
		contacts:        deps.Contacts,
		idem:            deps.Idempotency,
		carts:           carts,
		checkoutMetrics: opts.CheckoutMetrics,
		httpMetrics:     opts.HTTPMetrics,
		logger:          logger,
		loginPath:       opts.LoginPath,
		sessions:        make(map[string]*sessionState),
	}
}

// Router собирает gin-маршруты API.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), s.requestMetrics(), s.requestLogger(), s.sessionMiddleware())

	api := router.Group("/api")
	{
		api.GET("/ping", s.handlePing)
		api.GET("/products", s.handleProducts)
		api.GET("/services", s.handleServices)
		api.GET("/news", s.handleNews)

		api.POST("/register", s.handleRegister)
		api.POST("/login", s.handleLogin)
		api.POST("/contact", s.handleContactSubmit)

		api.GET("/cart", s.handleCartGet)
		api.POST("/cart/items", s.handleCartAddItem)
		api.PATCH("/cart/items/:id", s.handleCartUpdateQuantity)
		api.DELETE("/cart/items/:id", s.handleCartRemoveItem)
		api.POST("/cart/clear", s.handleCartClear)
		api.POST("/cart/open", s.handleCartOpen)
		api.POST("/cart/close", s.handleCartClose)
		api.POST("/cart/checkout", s.handleCheckout)

		authed := api.Group("", s.authRequired())
		{
			authed.POST("/logout", s.handleLogout)
			authed.GET("/contact", s.handleContactList)
			authed.POST("/bookings", s.handleBookingCreate)
			authed.GET("/bookings", s.handleBookingList)
			authed.GET("/bookings/:id", s.handleBookingGet)
		}
	}

	return router
}

// sessionCheckout возвращает координатор сессии, создавая его лениво.
func (s *Server) sessionCheckout(sessionID string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		creds := &tokenHolder{}
		state = &sessionState{
			creds: creds,
			coordinator: checkout.NewCoordinator(
				s.carts.Get(sessionID),
				authBookingCreator{auth: s.auth, bookings: s.bookings},
				creds,
				checkout.WithLogger(s.logger.WithField("session_id", sessionID)),
				checkout.WithMetrics(s.checkoutMetrics),
				checkout.WithLoginPath(s.loginPath),
			),
		}
		s.sessions[sessionID] = state
	}
	return state
}

// tokenHolder передаёт координатору учётные данные текущего запроса.
type tokenHolder struct {
	mu    sync.Mutex
	token string
}

func (h *tokenHolder) set(token string) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

// Token реализует checkout.CredentialSource.
func (h *tokenHolder) Token() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.token, h.token != ""
}

// authBookingCreator проверяет токен и создаёт заявку от имени пользователя.
type authBookingCreator struct {
	auth     *auth.Service
	bookings *booking.Service
}

// CreateBooking реализует checkout.BookingCreator.
func (a authBookingCreator) CreateBooking(ctx context.Context, credential string, req domain.BookingRequest) (domain.Booking, error) {
	user, err := a.auth.Verify(credential)
	if err != nil {
		return domain.Booking{}, err
	}
	return a.bookings.Create(ctx, user.ID, req)
}

var _ checkout.BookingCreator = authBookingCreator{}
var _ checkout.CredentialSource = (*tokenHolder)(nil)
