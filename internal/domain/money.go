package domain

import "fmt"

// CurrencySymbol — единственная валюта платформы.
const CurrencySymbol = "₹"

// ParsePriceMinor преобразует display-строку цены каталога ("₹45/kg",
// "₹35/liter", "₹150") в минимальные денежные единицы (пайсы).
// Правило детерминированное: пропускаем ведущие символы валюты и пробелы,
// читаем первый числовой участок с необязательной дробной частью (до двух
// знаков), остаток ("/kg", "/liter") игнорируем. Любое отклонение — это
// ошибка данных каталога, а не нулевая цена.
func ParsePriceMinor(display string) (int64, error) {
	runes := []rune(display)
	i := 0
	for i < len(runes) && !isDigit(runes[i]) {
		// Минус перед числовым участком не считаем валютным префиксом:
		// отрицательных цен в каталоге не бывает.
		if runes[i] == '-' {
			return 0, fmt.Errorf("%w: %q", ErrPriceUnparsable, display)
		}
		i++
	}
	if i == len(runes) {
		return 0, fmt.Errorf("%w: %q", ErrPriceUnparsable, display)
	}

	var whole int64
	for i < len(runes) && isDigit(runes[i]) {
		whole = whole*10 + int64(runes[i]-'0')
		i++
	}

	var frac int64
	fracDigits := 0
	if i < len(runes) && runes[i] == '.' {
		i++
		for i < len(runes) && isDigit(runes[i]) {
			frac = frac*10 + int64(runes[i]-'0')
			fracDigits++
			i++
		}
		if fracDigits == 0 || fracDigits > 2 {
			return 0, fmt.Errorf("%w: %q", ErrPriceUnparsable, display)
		}
	}
	if fracDigits == 1 {
		frac *= 10
	}

	return whole*100 + frac, nil
}

// FormatAmountMinor форматирует сумму в пайсах обратно в display-строку:
// 12500 → "₹125.00". Используется для totalAmount заявок.
func FormatAmountMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, CurrencySymbol, minor/100, minor%100)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
