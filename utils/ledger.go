package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"backend/models"
)

func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func TruncateToTwoDecimals(value float64) float64 {
	factor := 100.0
	value, _ = strconv.ParseFloat(fmt.Sprintf("%.2f", value), 64)
	return math.Floor(value*factor) / factor
}

// ComputeOrderTotals складывает price*amount по каждой валюте отдельно.
func ComputeOrderTotals(lines []models.OrderLine) (totalUZ, totalEN float64) {
	for _, line := range lines {
		sum := line.Price * line.Amount
		if line.PriceType == models.PriceTypeEN {
			totalEN += sum
		} else {
			totalUZ += sum
		}
	}
	return Round2(totalUZ), Round2(totalEN)
}

// SettleBalance вычитает платёж из баланса; ниже нуля не уходим,
// переплата поглощается.
func SettleBalance(balance, payment float64) float64 {
	result := balance - payment
	if result < 0 {
		return 0
	}
	return Round2(result)
}

// ApplyStockDelta прибавляет дельту к остатку с отсечкой на нуле.
func ApplyStockDelta(value, delta float64) float64 {
	result := value + delta
	if result < 0 {
		return 0
	}
	return Round2(result)
}

// InsufficientLine возвращает название первого продукта, которого не хватает
// на складе. Проверка идёт по всем строкам до каких-либо списаний.
func InsufficientLine(lines []models.OrderLine, stocks map[string]models.Product) (string, bool) {
	for _, line := range lines {
		product, ok := stocks[line.Product]
		if !ok {
			continue
		}
		if product.Stock < line.Amount {
			return product.Title, true
		}
	}
	return "", false
}

// GrowthPercent — прирост текущего периода к прошлому в процентах.
func GrowthPercent(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return Round2((current - previous) / previous * 100)
}

// NormalizeTitle приводит название к виду для сопоставления прихода с продуктом.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
