package controllers

import (
	"context"
	"log"
	"net/http"
	"regexp"
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

// findProductByTitle ищет продукт по нормализованному названию и единице
// измерения — так приход сопоставляется с карточкой товара.
func findProductByTitle(ctx context.Context, title, unit string) (*models.Product, error) {
	pattern := "^" + regexp.QuoteMeta(utils.NormalizeTitle(title)) + "$"
	var product models.Product
	err := config.ProductCollection.FindOne(ctx, bson.M{
		"title": primitive.Regex{Pattern: pattern, Options: "i"},
		"unit":  unit,
	}).Decode(&product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// AddInput — приход товара от поставщика: пополняет остаток продукта
// (или заводит новую карточку) и начисляет долг перед поставщиком.
func AddInput(c *gin.Context) {
	var input models.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Stock <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Келган миқдор нотўғри"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	supID, err := primitive.ObjectIDFromHex(input.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid supplier ID"})
		return
	}
	var supplier models.Client
	err = config.ClientCollection.FindOne(ctx, bson.M{"_id": supID}).Decode(&supplier)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Таъминотчи топилмади"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		}
		return
	}

	// Пополнение остатка: существующая карточка или новая
	product, err := findProductByTitle(ctx, input.Title, input.Unit)
	if err != nil && err != mongo.ErrNoDocuments {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}
	if product != nil {
		_, err = config.ProductCollection.UpdateOne(ctx,
			bson.M{"_id": product.ID},
			bson.M{"$inc": bson.M{"stock": input.Stock, "count": input.Count}},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
			return
		}
	} else {
		displayID, err := nextDisplayID(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
			return
		}
		newProduct := models.Product{
			Title:     input.Title,
			Price:     input.Price,
			DisplayID: displayID,
			Stock:     input.Stock,
			Unit:      input.Unit,
			Count:     input.Count,
			Ready:     input.Ready,
			PriceType: input.PriceType,
			CreatedAt: time.Now(),
		}
		if newProduct.PriceType == "" {
			newProduct.PriceType = models.PriceTypeUZ
		}
		_, err = config.ProductCollection.InsertOne(ctx, newProduct)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
			return
		}
	}

	// Долг перед поставщиком: price * stock в валюте прихода
	debt := utils.Round2(input.Price * input.Stock)
	if debt > 0 {
		field := "debtUZ"
		if input.PriceType == models.PriceTypeEN {
			field = "debtEN"
		}
		_, err = config.ClientCollection.UpdateOne(ctx,
			bson.M{"_id": supID},
			bson.M{"$inc": bson.M{field: debt}},
		)
		if err != nil {
			log.Printf("Failed to accrue supplier debt for %s: %v", input.From, err)
		}
		if input.PriceType == models.PriceTypeEN {
			recordHistory(ctx, input.From, 0, debt)
		} else {
			recordHistory(ctx, input.From, debt, 0)
		}
	}

	input.ID = primitive.NilObjectID
	input.CreatedAt = time.Now()
	res, err := config.InputCollection.InsertOne(ctx, input)
	if err != nil {
		log.Printf("Failed to insert input: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}
	input.ID = res.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, gin.H{"message": "Кирим қабул қилинди", "data": input})
}

func GetInputs(c *gin.Context) {
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
	if from := c.Query("from"); from != "" {
		filter["from"] = from
	}

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := config.InputCollection.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve inputs"})
		return
	}
	defer cursor.Close(ctx)

	var inputs []models.Input
	if err = cursor.All(ctx, &inputs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode inputs"})
		return
	}

	total, err := config.InputCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count inputs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  inputs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// DeleteInput откатывает приход: снимает его вклад с остатка продукта
// (с отсечкой на нуле) и уменьшает долг перед поставщиком.
func DeleteInput(c *gin.Context) {
	inputID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var input models.Input
	err = config.InputCollection.FindOne(ctx, bson.M{"_id": inputID}).Decode(&input)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Кирим топилмади"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		}
		return
	}

	// Откат остатка. Пропавшая карточка — не ошибка, просто пропускаем.
	product, err := findProductByTitle(ctx, input.Title, input.Unit)
	if err == nil && product != nil {
		_, err = config.ProductCollection.UpdateOne(ctx,
			bson.M{"_id": product.ID},
			bson.M{"$set": bson.M{
				"stock": utils.ApplyStockDelta(product.Stock, -input.Stock),
				"count": utils.ApplyStockDelta(product.Count, -input.Count),
			}},
		)
		if err != nil {
			log.Printf("Failed to adjust stock for input %s: %v", inputID.Hex(), err)
		}
	}

	// Откат долга поставщика
	debt := utils.Round2(input.Price * input.Stock)
	if debt > 0 {
		supID, err := primitive.ObjectIDFromHex(input.From)
		if err == nil {
			var supplier models.Client
			if err := config.ClientCollection.FindOne(ctx, bson.M{"_id": supID}).Decode(&supplier); err == nil {
				update := bson.M{}
				if input.PriceType == models.PriceTypeEN {
					update["debtEN"] = utils.SettleBalance(supplier.DebtEN, debt)
				} else {
					update["debtUZ"] = utils.SettleBalance(supplier.DebtUZ, debt)
				}
				if _, err := config.ClientCollection.UpdateOne(ctx, bson.M{"_id": supID}, bson.M{"$set": update}); err != nil {
					log.Printf("Failed to reverse supplier debt for %s: %v", input.From, err)
				}
				if input.PriceType == models.PriceTypeEN {
					recordHistory(ctx, input.From, 0, -debt)
				} else {
					recordHistory(ctx, input.From, -debt, 0)
				}
			}
		}
	}

	_, err = config.InputCollection.DeleteOne(ctx, bson.M{"_id": inputID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": input, "message": "Кирим ўчирилди"})
}
