package domain

// Product — позиция каталога товаров.
type Product struct {
	// ID — внешний идентификатор товара, используется в корзине и заявках.
	ID string
	// Name и Category — отображаемые строки.
	Name     string
	Category string
	// Price — display-представление цены ("₹45/kg"). Только для показа.
	Price string
	// PriceMinor — арифметическое представление той же цены в пайсах,
	// вычисляется один раз при загрузке каталога.
	PriceMinor int64
	// Icon — имя иконки для фронтенда.
	Icon        string
	Description string
	// InStock — доступен ли товар для заказа.
	InStock bool
}

// Service — услуга платформы (доставка продуктов, медикаменты и т.п.).
type Service struct {
	ID          string
	Name        string
	Description string
	Icon        string
}

// NewsItem — новость для главной страницы.
type NewsItem struct {
	ID      string
	Title   string
	Summary string
	// Date в формате YYYY-MM-DD, как отдаёт API.
	Date    string
	Content string
}
