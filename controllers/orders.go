package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"backend/config"
	"backend/models"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var notifyNewOrder = utils.NotifyNewOrder

// CreateOrder — оформление заказа. Резервирует остатки по каждой строке:
// сначала проверка достаточности по всем строкам, и только потом списание.
// Списание условное (stock >= amount в фильтре), чтобы параллельные заказы
// не увели остаток в минус.
func CreateOrder(c *gin.Context) {
	var input models.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if input.Customer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Мижоз танланмаган"})
		return
	}
	if len(input.Products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Маҳсулотлар танланмаган"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Клиент: либо существующий по clientId, либо создаём нового на лету
	var clientID, clientName string
	if input.ClientID != "" {
		clID, err := primitive.ObjectIDFromHex(input.ClientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
			return
		}
		var client models.Client
		err = config.ClientCollection.FindOne(ctx, bson.M{"_id": clID}).Decode(&client)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "Мижоз топилмади"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
			}
			return
		}
		clientID = client.ID.Hex()
		clientName = client.Name
	} else {
		if input.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Мижоз номи киритилмаган"})
			return
		}
		newClient := models.Client{
			Name:        input.Name,
			PhoneNumber: input.PhoneNumber,
			Clietn:      true,
			CreatedAt:   time.Now(),
		}
		res, err := config.ClientCollection.InsertOne(ctx, newClient)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
			return
		}
		clientID = res.InsertedID.(primitive.ObjectID).Hex()
		clientName = input.Name
	}

	// Загружаем все продукты и проверяем остатки до каких-либо списаний
	stocks := make(map[string]models.Product, len(input.Products))
	for _, line := range input.Products {
		prodID, err := primitive.ObjectIDFromHex(line.Product)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}
		var product models.Product
		err = config.ProductCollection.FindOne(ctx, bson.M{"_id": prodID}).Decode(&product)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				c.JSON(http.StatusNotFound, gin.H{"error": "Маҳсулот топилмади"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
			}
			return
		}
		stocks[line.Product] = product
	}

	if title, short := utils.InsufficientLine(input.Products, stocks); short {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Омборда маҳсулот етарли эмас: %s", title)})
		return
	}

	if failedTitle, err := reserveStock(ctx, input.Products, stocks); err != nil {
		if failedTitle != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Омборда маҳсулот етарли эмас: %s", failedTitle)})
		} else {
			log.Printf("Failed to reserve stock: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		}
		return
	}

	// Заказ создаётся без цен: цены проставит админ при подтверждении
	lines := make([]models.OrderLine, 0, len(input.Products))
	for _, line := range input.Products {
		lines = append(lines, models.OrderLine{
			Product:   line.Product,
			Amount:    line.Amount,
			Unit:      line.Unit,
			Count:     line.Count,
			Price:     0,
			PriceType: line.PriceType,
		})
	}

	order := models.Order{
		Customer:   input.Customer,
		Client:     clientID,
		Products:   lines,
		Status:     input.Status,
		PayType:    input.PayType,
		TotalPrice: input.TotalPrice,
		Paid:       false,
		OrderDate:  time.Now(),
	}
	if order.Status == "" {
		order.Status = "янги"
	}

	res, err := config.OrderCollection.InsertOne(ctx, order)
	if err != nil {
		log.Printf("Failed to insert order: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}
	order.ID = res.InsertedID.(primitive.ObjectID)

	go notifyNewOrder(fmt.Sprintf("Янги буюртма!\nМижоз: %s\nМаҳсулотлар сони: %d", clientName, len(lines)))

	c.JSON(http.StatusCreated, gin.H{"message": "Буюртма қабул қилинди", "data": order})
}

// reserveStock условно списывает остатки по строкам заказа. Если очередное
// списание не прошло (кто-то успел раньше), уже списанные строки возвращаются
// обратно, и вызывающему отдаётся название продукта, которого не хватило.
func reserveStock(ctx context.Context, lines []models.OrderLine, stocks map[string]models.Product) (string, error) {
	reserved := make([]models.OrderLine, 0, len(lines))
	for _, line := range lines {
		product := stocks[line.Product]
		prodID, _ := primitive.ObjectIDFromHex(line.Product)

		// Конвейерное обновление: stock защищён фильтром, count считается
		// от текущего значения с отсечкой на нуле, а не от снимка.
		res, err := config.ProductCollection.UpdateOne(ctx,
			bson.M{"_id": prodID, "stock": bson.M{"$gte": line.Amount}},
			bson.A{bson.M{"$set": bson.M{
				"stock": bson.M{"$subtract": bson.A{"$stock", line.Amount}},
				"count": bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$count", line.Count}}}},
			}}},
		)
		if err != nil {
			releaseStock(ctx, reserved)
			return "", err
		}
		if res.MatchedCount == 0 {
			releaseStock(ctx, reserved)
			return product.Title, fmt.Errorf("insufficient stock for %s", product.Title)
		}
		reserved = append(reserved, line)
	}
	return "", nil
}

// releaseStock возвращает списанные остатки. Пропавший продукт пропускается.
func releaseStock(ctx context.Context, lines []models.OrderLine) {
	for _, line := range lines {
		prodID, err := primitive.ObjectIDFromHex(line.Product)
		if err != nil {
			continue
		}
		_, err = config.ProductCollection.UpdateOne(ctx,
			bson.M{"_id": prodID},
			bson.M{"$inc": bson.M{"stock": line.Amount, "count": line.Count}},
		)
		if err != nil {
			log.Printf("Failed to release stock for product %s: %v", line.Product, err)
		}
	}
}

// UpdateOrder — проставление цен по заказу. Пересчитывает итоги по валютам,
// помечает заказ оплаченным и начисляет долг клиента с записью в историю.
func UpdateOrder(c *gin.Context) {
	orderID := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var input models.UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(input.Products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Маҳсулотлар танланмаган"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var order models.Order
	err = config.OrderCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Буюртма топилмади"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		}
		return
	}

	totalUZ, totalEN := utils.ComputeOrderTotals(input.Products)

	update := bson.M{
		"products":   input.Products,
		"totalUZ":    totalUZ,
		"totalEN":    totalEN,
		"totalPrice": totalUZ,
		"paid":       true,
	}
	if input.Status != "" {
		update["status"] = input.Status
	}

	_, err = config.OrderCollection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": update})
	if err != nil {
		log.Printf("Failed to update order %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}

	// Начисление долга клиента по итогам заказа
	clID, err := primitive.ObjectIDFromHex(order.Client)
	if err == nil {
		_, err = config.ClientCollection.UpdateOne(ctx,
			bson.M{"_id": clID},
			bson.M{"$inc": bson.M{"debtUZ": totalUZ, "debtEN": totalEN}},
		)
		if err != nil {
			log.Printf("Failed to accrue debt for client %s: %v", order.Client, err)
		}
		recordHistory(ctx, order.Client, totalUZ, totalEN)
	}

	err = config.OrderCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order, "message": "Буюртма янгиланди"})
}

// recordHistory пишет по записи на каждую валюту с ненулевой суммой.
// Начисление — положительная сумма, погашение — отрицательная.
func recordHistory(ctx context.Context, clientID string, uz, en float64) {
	now := time.Now()
	if uz != 0 {
		_, err := config.HistoryCollection.InsertOne(ctx, models.History{
			Client:    clientID,
			Price:     uz,
			Type:      models.PriceTypeUZ,
			CreatedAt: now,
		})
		if err != nil {
			log.Printf("Failed to record history for client %s: %v", clientID, err)
		}
	}
	if en != 0 {
		_, err := config.HistoryCollection.InsertOne(ctx, models.History{
			Client:    clientID,
			Price:     en,
			Type:      models.PriceTypeEN,
			CreatedAt: now,
		})
		if err != nil {
			log.Printf("Failed to record history for client %s: %v", clientID, err)
		}
	}
}

// DeleteOrder — отмена заказа. Оплаченный заказ отменить нельзя.
// Зарезервированные остатки возвращаются на склад.
func DeleteOrder(c *gin.Context) {
	orderID := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var order models.Order
	err = config.OrderCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Буюртма топилмади"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		}
		return
	}

	if order.Paid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Тўланган буюртмани бекор қилиб бўлмайди"})
		return
	}

	releaseStock(ctx, order.Products)

	_, err = config.OrderCollection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		log.Printf("Failed to delete order %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order, "message": "Буюртма бекор қилинди"})
}

func GetOrders(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if paid := c.Query("paid"); paid != "" {
		filter["paid"] = paid == "true"
	}

	opts := options.Find().
		SetSort(bson.M{"orderDate": -1}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := config.OrderCollection.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err = cursor.All(ctx, &orders); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode orders"})
		return
	}

	total, err := config.OrderCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  orders,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func GetOrderByID(c *gin.Context) {
	orderID := c.Param("id")
	objID, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var order models.Order
	err = config.OrderCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Буюртма топилмади"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		}
		return
	}

	clientName := "Unknown"
	if clID, err := primitive.ObjectIDFromHex(order.Client); err == nil {
		var client struct {
			Name string `bson:"name"`
		}
		if err := config.ClientCollection.FindOne(ctx, bson.M{"_id": clID}).Decode(&client); err == nil {
			clientName = client.Name
		}
	}

	type ExtendedOrder struct {
		models.Order
		ClientName string `json:"clientName"`
	}

	c.JSON(http.StatusOK, ExtendedOrder{Order: order, ClientName: clientName})
}
