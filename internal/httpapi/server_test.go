package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vladislavdragonenkov/gramseva/internal/auth"
	"github.com/vladislavdragonenkov/gramseva/internal/booking"
	"github.com/vladislavdragonenkov/gramseva/internal/catalog"
	"github.com/vladislavdragonenkov/gramseva/internal/httpapi"
	"github.com/vladislavdragonenkov/gramseva/internal/storage/memory"
)

type fixture struct {
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cat, err := catalog.New()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	authSvc := auth.NewService(memory.NewUserRepository())
	bookingSvc := booking.NewService(
		memory.NewBookingRepository(),
		cat,
		memory.NewTimelineRepository(),
		memory.NewOutboxRepository(),
		nil,
	)

	server := httpapi.NewServer(httpapi.Dependencies{
		Catalog:     cat,
		Auth:        authSvc,
		Bookings:    bookingSvc,
		Contacts:    memory.NewContactRepository(),
		Idempotency: memory.NewIdempotencyRepository(),
	})

	return &fixture{router: server.Router()}
}

type request struct {
	method  string
	path    string
	body    any
	session string
	token   string
	idemKey string
}

func (f *fixture) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	httpReq := httptest.NewRequest(req.method, req.path, body)
	httpReq.Header.Set("Content-Type", "application/json")
	if req.session != "" {
		httpReq.Header.Set("X-Session-Id", req.session)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.idemKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.idemKey)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httpReq)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func (f *fixture) registerUser(t *testing.T, email string) string {
	t.Helper()

	w := f.do(t, request{method: http.MethodPost, path: "/api/register", body: map[string]string{
		"name":     "Ramesh Kumar",
		"email":    email,
		"password": "secret123",
	}})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	decodeBody(t, w, &resp)
	if resp.Token == "" {
		t.Fatal("expected registration token")
	}
	return resp.Token
}

func TestPingAndCatalogRoutes(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, request{method: http.MethodGet, path: "/api/ping"})
	if w.Code != http.StatusOK {
		t.Fatalf("ping: expected 200, got %d", w.Code)
	}

	w = f.do(t, request{method: http.MethodGet, path: "/api/products?category=Kitchen"})
	var products struct {
		Products []struct {
			ID      string `json:"id"`
			InStock bool   `json:"inStock"`
		} `json:"products"`
	}
	decodeBody(t, w, &products)
	if len(products.Products) != 2 {
		t.Fatalf("expected 2 kitchen products, got %d", len(products.Products))
	}

	w = f.do(t, request{method: http.MethodGet, path: "/api/services"})
	var services struct {
		Services []struct{} `json:"services"`
	}
	decodeBody(t, w, &services)
	if len(services.Services) != 6 {
		t.Fatalf("expected 6 services, got %d", len(services.Services))
	}

	w = f.do(t, request{method: http.MethodGet, path: "/api/news"})
	var news struct {
		News []struct {
			Date string `json:"date"`
		} `json:"news"`
	}
	decodeBody(t, w, &news)
	if len(news.News) != 5 {
		t.Fatalf("expected 5 news items, got %d", len(news.News))
	}
	if news.News[0].Date != "2024-12-15" {
		t.Fatalf("expected newest news first, got %s", news.News[0].Date)
	}
}

func TestSessionHeaderIssued(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, request{method: http.MethodGet, path: "/api/cart"})
	if w.Code != http.StatusOK {
		t.Fatalf("cart get: expected 200, got %d", w.Code)
	}
	issued := w.Header().Get("X-Session-Id")
	if issued == "" {
		t.Fatal("expected issued session id header")
	}

	// Добавленный товар виден только в своей сессии.
	w = f.do(t, request{method: http.MethodPost, path: "/api/cart/items", session: issued, body: map[string]string{"productId": "1"}})
	if w.Code != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var mine struct {
		TotalItems int `json:"totalItems"`
	}
	w = f.do(t, request{method: http.MethodGet, path: "/api/cart", session: issued})
	decodeBody(t, w, &mine)
	if mine.TotalItems != 1 {
		t.Fatalf("expected 1 item in own session, got %d", mine.TotalItems)
	}

	var other struct {
		TotalItems int `json:"totalItems"`
	}
	w = f.do(t, request{method: http.MethodGet, path: "/api/cart", session: "other-session"})
	decodeBody(t, w, &other)
	if other.TotalItems != 0 {
		t.Fatalf("expected empty cart in foreign session, got %d", other.TotalItems)
	}
}

func TestCartFlow(t *testing.T) {
	f := newFixture(t)
	session := "cart-flow"

	// Повторное добавление того же товара увеличивает количество.
	f.do(t, request{method: http.MethodPost, path: "/api/cart/items", session: session, body: map[string]string{"productId": "1"}})
	w := f.do(t, request{method: http.MethodPost, path: "/api/cart/items", session: session, body: map[string]string{"productId": "1"}})

	var snap struct {
		Items []struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
		TotalItems      int    `json:"totalItems"`
		TotalPrice      string `json:"totalPrice"`
		TotalPriceMinor int64  `json:"totalPriceMinor"`
	}
	decodeBody(t, w, &snap)
	if len(snap.Items) != 1 || snap.Items[0].Quantity != 2 {
		t.Fatalf("expected single line with qty 2, got %+v", snap.Items)
	}
	if snap.TotalPriceMinor != 9000 || snap.TotalPrice != "₹90.00" {
		t.Fatalf("unexpected totals: %d %s", snap.TotalPriceMinor, snap.TotalPrice)
	}

	w = f.do(t, request{method: http.MethodPatch, path: "/api/cart/items/1", session: session, body: map[string]int{"quantity": 3}})
	decodeBody(t, w, &snap)
	if snap.TotalItems != 3 || snap.TotalPriceMinor != 13500 {
		t.Fatalf("unexpected totals after update: %+v", snap)
	}

	// Нулевое количество удаляет позицию.
	w = f.do(t, request{method: http.MethodPatch, path: "/api/cart/items/1", session: session, body: map[string]int{"quantity": 0}})
	decodeBody(t, w, &snap)
	if len(snap.Items) != 0 {
		t.Fatalf("expected empty cart after zero quantity, got %+v", snap.Items)
	}

	f.do(t, request{method: http.MethodPost, path: "/api/cart/items", session: session, body: map[string]string{"productId": "2"}})
	w = f.do(t, request{method: http.MethodPost, path: "/api/cart/clear", session: session})
	decodeBody(t, w, &snap)
	if len(snap.Items) != 0 {
		t.Fatalf("expected empty cart after clear, got %+v", snap.Items)
	}
}

func TestCartAddErrors(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: map[string]string{"productId": "does-not-exist"}})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", w.Code)
	}

	w = f.do(t, request{method: http.MethodPost, path: "/api/cart/items", body: map[string]string{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing productId, got %d", w.Code)
	}
}

func TestCartOpenClose(t *testing.T) {
	f := newFixture(t)
	session := "panel"

	var snap struct {
		IsOpen bool `json:"isOpen"`
	}

	w := f.do(t, request{method: http.MethodPost, path: "/api/cart/open", session: session})
	decodeBody(t, w, &snap)
	if !snap.IsOpen {
		t.Fatal("expected open cart panel")
	}

	w = f.do(t, request{method: http.MethodPost, path: "/api/cart/close", session: session})
	decodeBody(t, w, &snap)
	if snap.IsOpen {
		t.Fatal("expected closed cart panel")
	}
}

func TestBookingCreateIdempotent(t *testing.T) {
	f := newFixture(t)
	token := f.registerUser(t, "ramesh@example.com")

	body := map[string]any{
		"items":       []map[string]any{{"productId": "1", "quantity": 2}},
		"totalAmount": "₹90.00",
	}

	w := f.do(t, request{method: http.MethodPost, path: "/api/bookings", token: token, idemKey: "key-1", body: body})
	if w.Code != http.StatusCreated {
		t.Fatalf("create booking: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	firstBody := w.Body.String()

	// Повтор с тем же ключом и телом отдаёт закэшированный ответ.
	w = f.do(t, request{method: http.MethodPost, path: "/api/bookings", token: token, idemKey: "key-1", body: body})
	if w.Code != http.StatusCreated {
		t.Fatalf("replay: expected 201, got %d", w.Code)
	}
	if w.Body.String() != firstBody {
		t.Fatalf("replay body mismatch:\n%s\nvs\n%s", firstBody, w.Body.String())
	}

	// Тот же ключ с другим телом — конфликт.
	other := map[string]any{
		"items":       []map[string]any{{"productId": "2", "quantity": 1}},
		"totalAmount": "₹35.00",
	}
	w = f.do(t, request{method: http.MethodPost, path: "/api/bookings", token: token, idemKey: "key-1", body: other})
	if w.Code != http.StatusConflict {
		t.Fatalf("hash mismatch: expected 409, got %d", w.Code)
	}

	// Закэшированная ошибка тоже воспроизводится.
	bad := map[string]any{
		"items":       []map[string]any{{"productId": "1", "quantity": 1}},
		"totalAmount": "₹999.00",
	}
	w = f.do(t, request{method: http.MethodPost, path: "/api/bookings", token: token, idemKey: "key-bad", body: bad})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("amount mismatch: expected 400, got %d: %s", w.Code, w.Body.String())
	}
	w = f.do(t, request{method: http.MethodPost, path: "/api/bookings", token: token, idemKey: "key-bad", body: bad})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("cached failure replay: expected 400, got %d", w.Code)
	}
}

func TestBookingListAndGet(t *testing.T) {
	f := newFixture(t)
	token := f.registerUser(t, "ramesh@example.com")

	body := map[string]any{
		"items":       []map[string]any{{"productId": "2", "quantity": 1}},
		"totalAmount": "₹35.00",
	}
	w := f.do(t, request{method: http.MethodPost, path: "/api/bookings", token: token, body: body})
	if w.Code != http.StatusCreated {
		t.Fatalf("create booking: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		Booking struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"booking"`
	}
	decodeBody(t, w, &created)
	if created.Booking.Status != "pending" {
		t.Fatalf("expected pending booking, got %s", created.Booking.Status)
	}

	w = f.do(t, request{method: http.MethodGet, path: "/api/bookings", token: token})
	var listed struct {
		Bookings []struct {
			ID string `json:"id"`
		} `json:"bookings"`
	}
	decodeBody(t, w, &listed)
	if len(listed.Bookings) != 1 || listed.Bookings[0].ID != created.Booking.ID {
		t.Fatalf("unexpected booking list: %+v", listed.Bookings)
	}

	w = f.do(t, request{method: http.MethodGet, path: "/api/bookings/" + created.Booking.ID, token: token})
	if w.Code != http.StatusOK {
		t.Fatalf("get booking: expected 200, got %d", w.Code)
	}
	var got struct {
		Timeline []struct {
			Type string `json:"type"`
		} `json:"timeline"`
	}
	decodeBody(t, w, &got)
	if len(got.Timeline) != 1 {
		t.Fatalf("expected 1 timeline event, got %d", len(got.Timeline))
	}

	// Чужая заявка недоступна.
	foreign := f.registerUser(t, "sita@example.com")
	w = f.do(t, request{method: http.MethodGet, path: "/api/bookings/" + created.Booking.ID, token: foreign})
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign booking: expected 404, got %d", w.Code)
	}

	// Без токена — 401.
	w = f.do(t, request{method: http.MethodGet, path: "/api/bookings"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: expected 401, got %d", w.Code)
	}
}

func TestCheckoutOverHTTP(t *testing.T) {
	f := newFixture(t)
	session := "checkout-session"

	f.do(t, request{method: http.MethodPost, path: "/api/cart/items", session: session, body: map[string]string{"productId": "1"}})

	// Без токена — 401 с редиректом, корзина цела.
	w := f.do(t, request{method: http.MethodPost, path: "/api/cart/checkout", session: session})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated checkout: expected 401, got %d: %s", w.Code, w.Body.String())
	}
	var unauth struct {
		RedirectTo string `json:"redirectTo"`
	}
	decodeBody(t, w, &unauth)
	if unauth.RedirectTo != "/login" {
		t.Fatalf("expected /login redirect, got %q", unauth.RedirectTo)
	}

	var snap struct {
		TotalItems int  `json:"totalItems"`
		IsOpen     bool `json:"isOpen"`
	}
	w = f.do(t, request{method: http.MethodGet, path: "/api/cart", session: session})
	decodeBody(t, w, &snap)
	if snap.TotalItems != 1 {
		t.Fatalf("cart must survive failed auth, got %d items", snap.TotalItems)
	}

	token := f.registerUser(t, "ramesh@example.com")

	// Пустая корзина — 400.
	w = f.do(t, request{method: http.MethodPost, path: "/api/cart/checkout", session: "empty-session", token: token})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty cart checkout: expected 400, got %d", w.Code)
	}

	// Успех: заявка создана, корзина очищена и закрыта.
	w = f.do(t, request{method: http.MethodPost, path: "/api/cart/checkout", session: session, token: token})
	if w.Code != http.StatusOK {
		t.Fatalf("checkout: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var success struct {
		Booking struct {
			ID          string `json:"id"`
			Status      string `json:"status"`
			TotalAmount string `json:"totalAmount"`
		} `json:"booking"`
	}
	decodeBody(t, w, &success)
	if success.Booking.Status != "pending" || success.Booking.TotalAmount != "₹45.00" {
		t.Fatalf("unexpected booking: %+v", success.Booking)
	}

	w = f.do(t, request{method: http.MethodGet, path: "/api/cart", session: session})
	decodeBody(t, w, &snap)
	if snap.TotalItems != 0 || snap.IsOpen {
		t.Fatalf("cart must be cleared and closed after checkout: %+v", snap)
	}

	// Заявка видна в списке пользователя.
	w = f.do(t, request{method: http.MethodGet, path: "/api/bookings", token: token})
	var listed struct {
		Bookings []struct {
			ID string `json:"id"`
		} `json:"bookings"`
	}
	decodeBody(t, w, &listed)
	if len(listed.Bookings) != 1 || listed.Bookings[0].ID != success.Booking.ID {
		t.Fatalf("booking not listed after checkout: %+v", listed.Bookings)
	}
}

func TestContactEndpoints(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, request{method: http.MethodPost, path: "/api/contact", body: map[string]string{
		"name":    "Ramesh",
		"message": "Please add delivery to our village.",
	}})
	if w.Code != http.StatusCreated {
		t.Fatalf("contact submit: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	for i, invalid := range []map[string]string{
		{"name": "R", "message": "Please add delivery to our village."},
		{"name": "Ramesh", "message": "short"},
	} {
		w = f.do(t, request{method: http.MethodPost, path: "/api/contact", body: invalid})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("invalid contact %d: expected 400, got %d", i, w.Code)
		}
	}

	w = f.do(t, request{method: http.MethodGet, path: "/api/contact"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("contact list without token: expected 401, got %d", w.Code)
	}

	token := f.registerUser(t, "admin@example.com")
	w = f.do(t, request{method: http.MethodGet, path: "/api/contact", token: token})
	if w.Code != http.StatusOK {
		t.Fatalf("contact list: expected 200, got %d", w.Code)
	}
	var listed struct {
		Submissions []struct {
			Name string `json:"name"`
		} `json:"submissions"`
	}
	decodeBody(t, w, &listed)
	if len(listed.Submissions) != 1 || listed.Submissions[0].Name != "Ramesh" {
		t.Fatalf("unexpected submissions: %+v", listed.Submissions)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, request{method: http.MethodPost, path: "/api/register", body: map[string]string{
		"email": "no-name@example.com",
	}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", w.Code)
	}

	f.registerUser(t, "dup@example.com")
	w = f.do(t, request{method: http.MethodPost, path: "/api/register", body: map[string]string{
		"name":     "Another",
		"email":    "dup@example.com",
		"password": "secret123",
	}})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", w.Code)
	}

	w = f.do(t, request{method: http.MethodPost, path: "/api/login", body: map[string]string{
		"email":    "dup@example.com",
		"password": "wrong",
	}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}

	w = f.do(t, request{method: http.MethodPost, path: "/api/login", body: map[string]string{
		"email":    "dup@example.com",
		"password": "secret123",
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid login, got %d", w.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	token := f.registerUser(t, "ramesh@example.com")

	w := f.do(t, request{method: http.MethodPost, path: "/api/logout", token: token})
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", w.Code)
	}

	w = f.do(t, request{method: http.MethodGet, path: "/api/bookings", token: token})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", w.Code)
	}
}
