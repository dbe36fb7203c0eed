package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/gramseva/internal/cart"
	"github.com/vladislavdragonenkov/gramseva/internal/domain"
	"github.com/vladislavdragonenkov/gramseva/internal/metrics"
)

// State описывает фазу попытки оформления.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var (
	// ErrNotAuthenticated — оформление без токена; корзина не очищается,
	// пользователю нужен редирект на вход.
	ErrNotAuthenticated = errors.New("checkout requires authentication")
	// ErrCheckoutInFlight — единовременно допускается одна отправка на
	// сессию, повторная попытка отклоняется явно.
	ErrCheckoutInFlight = errors.New("checkout submission already in progress")
	// ErrCartEmpty — оформлять нечего.
	ErrCartEmpty = errors.New("cart is empty")
)

// BookingCreator — внешний коллаборатор создания заявки. В проде это
// booking-сервис платформы; в тестах — заглушка с управляемым исходом.
type BookingCreator interface {
	CreateBooking(ctx context.Context, credential string, req domain.BookingRequest) (domain.Booking, error)
}

// CredentialSource отвечает только на вопрос «есть ли учётные данные»;
// интерпретация токена — не забота координатора.
type CredentialSource interface {
	Token() (string, bool)
}

// Result — итог успешной или прерванной попытки оформления.
type Result struct {
	Booking domain.Booking
	// RedirectTo заполняется при отсутствии аутентификации.
	RedirectTo string
}

// Coordinator ведёт попытку оформления: проверка preconditions, атомарный
// снимок корзины, асинхронная отправка, очистка корзины только после
// подтверждённого успеха.
type Coordinator struct {
	cart      *cart.Store
	creator   BookingCreator
	creds     CredentialSource
	loginPath string
	logger    *log.Entry
	metrics   *metrics.CheckoutMetrics

	mu       sync.Mutex
	inFlight bool
	state    State
}

// Options настраивает Coordinator.
type Options struct {
	Logger    *log.Entry
	Metrics   *metrics.CheckoutMetrics
	LoginPath string
}

// Option настраивает Coordinator.
type Option func(*Options)

// WithLogger задаёт logger координатора.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) { opts.Logger = logger }
}

// WithMetrics задаёт метрики; nil отключает их (для тестов).
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(opts *Options) { opts.Metrics = m }
}

// WithLoginPath задаёт точку входа аутентификации для редиректа.
func WithLoginPath(path string) Option {
	return func(opts *Options) { opts.LoginPath = path }
}

// NewCoordinator создаёт координатор для пары корзина+коллаборатор.
func NewCoordinator(store *cart.Store, creator BookingCreator, creds CredentialSource, options ...Option) *Coordinator {
	opts := Options{LoginPath: "/login"}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "checkout")
	}

	return &Coordinator{
		cart:      store,
		creator:   creator,
		creds:     creds,
		loginPath: opts.LoginPath,
		logger:    logger,
		metrics:   opts.Metrics,
		state:     StateIdle,
	}
}

// State возвращает фазу последней попытки оформления.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Checkout выполняет одну попытку оформления.
//
// Idle → Validating → (без токена: Idle, корзина цела) |
// Submitting → Succeeded (корзина очищена, панель закрыта) |
// Failed (корзина цела, повтор разрешён).
//
// Отправка — единственная приостанавливаемая точка: пока она в полёте,
// корзина остаётся мутируемой, но уже снятый снимок этого не видит.
// При отмене ctx поздний результат отбрасывается и корзина не трогается.
func (c *Coordinator) Checkout(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.RecordCheckoutRejectedBusy()
		}
		return Result{}, ErrCheckoutInFlight
	}
	c.inFlight = true
	c.state = StateValidating
	c.mu.Unlock()

	start := time.Now()
	if c.metrics != nil {
		c.metrics.RecordCheckoutStarted()
	}
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.RecordCheckoutFinished()
			c.metrics.RecordCheckoutDuration(time.Since(start))
		}
	}()

	credential, ok := c.creds.Token()
	if !ok || credential == "" {
		c.setState(StateIdle)
		if c.metrics != nil {
			c.metrics.RecordCheckoutUnauthenticated()
		}
		c.logger.Debug("checkout aborted: no credential")
		return Result{RedirectTo: c.loginPath}, ErrNotAuthenticated
	}

	snap := c.cart.Snapshot()
	if len(snap.Items) == 0 {
		c.setState(StateIdle)
		return Result{}, ErrCartEmpty
	}

	req := buildRequest(snap)
	c.setState(StateSubmitting)

	type outcome struct {
		booking domain.Booking
		err     error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		booking, err := c.creator.CreateBooking(ctx, credential, req)
		resultCh <- outcome{booking: booking, err: err}
	}()

	select {
	case <-ctx.Done():
		// Поздний callback после отмены не должен мутировать корзину.
		c.setState(StateFailed)
		c.logger.WithError(ctx.Err()).Info("checkout abandoned")
		return Result{}, ctx.Err()
	case out := <-resultCh:
		if out.err != nil {
			c.setState(StateFailed)
			if c.metrics != nil {
				c.metrics.RecordCheckoutFailed()
			}
			c.logger.WithError(out.err).Warn("booking submission failed")
			return Result{}, fmt.Errorf("submit booking: %w", out.err)
		}

		c.cart.Clear()
		c.cart.Close()
		c.setState(StateSucceeded)
		if c.metrics != nil {
			c.metrics.RecordCheckoutSucceeded()
		}
		c.logger.WithFields(log.Fields{
			"booking_id": out.booking.ID,
			"items":      len(req.Items),
		}).Info("booking created")
		return Result{Booking: out.booking}, nil
	}
}

// buildRequest строит boundary-объект из снимка. Снимок уже скопирован,
// поэтому запрос не зависит от дальнейших мутаций корзины.
func buildRequest(snap cart.Snapshot) domain.BookingRequest {
	items := make([]domain.BookingItem, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, domain.BookingItem{
			ProductID: item.ID,
			Quantity:  int32(item.Quantity),
		})
	}
	return domain.BookingRequest{
		Items:       items,
		TotalAmount: domain.FormatAmountMinor(snap.TotalPriceMinor),
		AmountMinor: snap.TotalPriceMinor,
	}
}

func (c *Coordinator) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}
