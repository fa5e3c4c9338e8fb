package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"backend/config"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type periodTotals struct {
	RevenueUZ float64 `json:"revenueUZ"`
	RevenueEN float64 `json:"revenueEN"`
	Orders    int64   `json:"orders"`
	Clients   int64   `json:"clients"`
}

type periodStats struct {
	Current  periodTotals `json:"current"`
	Previous periodTotals `json:"previous"`
	GrowthUZ float64      `json:"growthUZ"`
	GrowthEN float64      `json:"growthEN"`
}

// GetOrderStats — сводка по дню, месяцу и году: выручка по валютам,
// количество заказов и новых клиентов, каждая цифра в паре с прошлым
// периодом и процентом прироста.
func GetOrderStats(c *gin.Context) {
	now := time.Now()
	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	month, _ := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	day, _ := strconv.Atoi(c.DefaultQuery("day", strconv.Itoa(now.Day())))

	if month < 1 || month > 12 || day < 1 || day > 31 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dayStart := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.Local)

	dayStats, err := statsForWindow(ctx, dayStart, dayStart.AddDate(0, 0, 1), dayStart.AddDate(0, 0, -1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}
	monthStats, err := statsForWindow(ctx, monthStart, monthStart.AddDate(0, 1, 0), monthStart.AddDate(0, -1, 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}
	yearStats, err := statsForWindow(ctx, yearStart, yearStart.AddDate(1, 0, 0), yearStart.AddDate(-1, 0, 0))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"day":   dayStats,
		"month": monthStats,
		"year":  yearStats,
	})
}

// statsForWindow собирает текущий период [start, end) и такой же по длине
// период, начинающийся с prevStart.
func statsForWindow(ctx context.Context, start, end, prevStart time.Time) (periodStats, error) {
	current, err := totalsBetween(ctx, start, end)
	if err != nil {
		return periodStats{}, err
	}
	previous, err := totalsBetween(ctx, prevStart, start)
	if err != nil {
		return periodStats{}, err
	}
	return periodStats{
		Current:  current,
		Previous: previous,
		GrowthUZ: utils.GrowthPercent(current.RevenueUZ, previous.RevenueUZ),
		GrowthEN: utils.GrowthPercent(current.RevenueEN, previous.RevenueEN),
	}, nil
}

func totalsBetween(ctx context.Context, from, to time.Time) (periodTotals, error) {
	var totals periodTotals

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"paid":      true,
			"orderDate": bson.M{"$gte": from, "$lt": to},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":       nil,
			"revenueUZ": bson.M{"$sum": "$totalUZ"},
			"revenueEN": bson.M{"$sum": "$totalEN"},
			"orders":    bson.M{"$sum": 1},
		}}},
	}

	cursor, err := config.OrderCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return totals, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		RevenueUZ float64 `bson:"revenueUZ"`
		RevenueEN float64 `bson:"revenueEN"`
		Orders    int64   `bson:"orders"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return totals, err
	}
	if len(results) > 0 {
		totals.RevenueUZ = utils.Round2(results[0].RevenueUZ)
		totals.RevenueEN = utils.Round2(results[0].RevenueEN)
		totals.Orders = results[0].Orders
	}

	clients, err := config.ClientCollection.CountDocuments(ctx, bson.M{
		"createdAt": bson.M{"$gte": from, "$lt": to},
	})
	if err != nil {
		return totals, err
	}
	totals.Clients = clients

	return totals, nil
}
