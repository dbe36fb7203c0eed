package catalog

import (
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

// Catalog — read-only справочник товаров, услуг и новостей платформы.
// Арифметическое представление цены вычисляется один раз при загрузке;
// некорректная цена в данных каталога — ошибка конфигурации, а не ноль.
type Catalog struct {
	products []domain.Product
	byID     map[string]domain.Product
	services []domain.Service
	news     []domain.NewsItem
}

// New загружает встроенные данные каталога и валидирует цены.
func New() (*Catalog, error) {
	products := seedProducts()
	byID := make(map[string]domain.Product, len(products))
	for i := range products {
		minor, err := domain.ParsePriceMinor(products[i].Price)
		if err != nil {
			return nil, fmt.Errorf("catalog product %q: %w", products[i].ID, err)
		}
		products[i].PriceMinor = minor
		byID[products[i].ID] = products[i]
	}

	return &Catalog{
		products: products,
		byID:     byID,
		services: seedServices(),
		news:     seedNews(),
	}, nil
}

// Products возвращает товары, отфильтрованные по поисковой строке
// (имя/категория/описание, без учёта регистра) и по категории.
func (c *Catalog) Products(search, category string) []domain.Product {
	result := make([]domain.Product, 0, len(c.products))
	search = strings.ToLower(strings.TrimSpace(search))
	category = strings.TrimSpace(category)

	for _, product := range c.products {
		if search != "" && !matchesSearch(product, search) {
			continue
		}
		if category != "" && !strings.EqualFold(product.Category, category) {
			continue
		}
		result = append(result, product)
	}
	return result
}

// Product возвращает товар по идентификатору.
func (c *Catalog) Product(id string) (domain.Product, error) {
	product, ok := c.byID[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// Services возвращает список услуг платформы.
func (c *Catalog) Services() []domain.Service {
	result := make([]domain.Service, len(c.services))
	copy(result, c.services)
	return result
}

// News возвращает новости в порядке публикации (свежие первыми).
func (c *Catalog) News() []domain.NewsItem {
	result := make([]domain.NewsItem, len(c.news))
	copy(result, c.news)
	return result
}

func matchesSearch(product domain.Product, search string) bool {
	return strings.Contains(strings.ToLower(product.Name), search) ||
		strings.Contains(strings.ToLower(product.Category), search) ||
		strings.Contains(strings.ToLower(product.Description), search)
}

func seedProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          "1",
			Name:        "Organic Rice",
			Price:       "₹45/kg",
			Category:    "Grains",
			Icon:        "wheat",
			Description: "Premium quality organic rice from local farms",
			InStock:     true,
		},
		{
			ID:          "2",
			Name:        "Fresh Milk",
			Price:       "₹35/liter",
			Category:    "Dairy",
			Icon:        "milk",
			Description: "Pure and fresh milk from local dairy farms",
			InStock:     true,
		},
		{
			ID:          "3",
			Name:        "Whole Wheat Bread",
			Price:       "₹25/loaf",
			Category:    "Bakery",
			Icon:        "bread",
			Description: "Freshly baked whole wheat bread",
			InStock:     true,
		},
		{
			ID:          "4",
			Name:        "Seasonal Vegetables",
			Price:       "₹20/kg",
			Category:    "Produce",
			Icon:        "apple",
			Description: "Fresh seasonal vegetables from local farmers",
			InStock:     true,
		},
		{
			ID:          "5",
			Name:        "Basic Medicine Kit",
			Price:       "₹150",
			Category:    "Healthcare",
			Icon:        "pill",
			Description: "Essential medicines for common ailments",
			InStock:     true,
		},
		{
			ID:          "6",
			Name:        "Household Essentials",
			Price:       "₹80",
			Category:    "Daily Needs",
			Icon:        "package",
			Description: "Basic household items and cleaning supplies",
			InStock:     true,
		},
		{
			ID:          "7",
			Name:        "Cooking Oil",
			Price:       "₹120/liter",
			Category:    "Kitchen",
			Icon:        "droplet",
			Description: "Pure sunflower cooking oil",
			InStock:     true,
		},
		{
			ID:          "8",
			Name:        "Sugar",
			Price:       "₹40/kg",
			Category:    "Kitchen",
			Icon:        "cube",
			Description: "Fine quality white sugar",
			InStock:     true,
		},
	}
}

func seedServices() []domain.Service {
	return []domain.Service{
		{ID: "1", Name: "Grocery Delivery", Description: "Fresh groceries delivered to your doorstep", Icon: "shopping-bag"},
		{ID: "2", Name: "Medicine Supply", Description: "Essential medicines and healthcare products", Icon: "pill"},
		{ID: "3", Name: "Fresh Produce", Description: "Farm-fresh fruits and vegetables", Icon: "apple"},
		{ID: "4", Name: "Agricultural Supplies", Description: "Seeds, fertilizers, and farming equipment", Icon: "wheat"},
		{ID: "5", Name: "Transportation", Description: "Reliable transport services for rural areas", Icon: "car"},
		{ID: "6", Name: "Community Support", Description: "Local community assistance and guidance", Icon: "users"},
	}
}

func seedNews() []domain.NewsItem {
	return []domain.NewsItem{
		{
			ID:      "1",
			Title:   "New Healthcare Initiative Launched for Rural Areas",
			Summary: "Government announces free medical check-ups in 50 villages",
			Date:    "2024-12-15",
			Content: "The government has launched a comprehensive healthcare initiative targeting rural areas, providing free medical check-ups and basic healthcare services in 50 villages across the region. This initiative aims to improve healthcare accessibility for rural communities and includes mobile medical units, telemedicine consultations, and health awareness programs.",
		},
		{
			ID:      "2",
			Title:   "Organic Farming Training Program Starts Next Month",
			Summary: "Join our sustainable agriculture workshop for better yields",
			Date:    "2024-12-10",
			Content: "A new organic farming training program will begin next month, offering farmers the opportunity to learn sustainable agriculture techniques. The program covers soil health management, organic pest control, composting, and certification processes. Participants will receive hands-on training and ongoing support to transition to organic farming methods.",
		},
		{
			ID:      "3",
			Title:   "Mobile Market Service Expands to 20 New Villages",
			Summary: "Weekly mobile markets now serving more remote communities",
			Date:    "2024-12-08",
			Content: "Our mobile market service has expanded to include 20 additional villages, bringing essential goods and services directly to remote communities. The mobile markets operate on a weekly schedule, offering fresh produce, medicines, household items, and other necessities. This expansion ensures that even the most isolated villages have access to essential products.",
		},
		{
			ID:      "4",
			Title:   "Digital Literacy Program for Rural Youth Launched",
			Summary: "Free computer and internet training for young people in villages",
			Date:    "2024-12-05",
			Content: "A new digital literacy program has been launched to provide free computer and internet training for young people in rural areas. The program aims to bridge the digital divide and equip rural youth with essential digital skills for better employment opportunities and access to online services.",
		},
		{
			ID:      "5",
			Title:   "Rural Water Conservation Project Achieves Milestone",
			Summary: "Community-led initiative saves 1 million liters of water",
			Date:    "2024-12-01",
			Content: "A community-led water conservation project has successfully saved over 1 million liters of water through rainwater harvesting and efficient irrigation techniques. The project serves as a model for other rural communities looking to address water scarcity challenges.",
		},
	}
}
