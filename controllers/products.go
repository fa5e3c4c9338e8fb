package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"backend/config"
	"backend/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// nextDisplayID выдаёт следующий порядковый номер продукта.
func nextDisplayID(ctx context.Context) (int64, error) {
	opts := options.FindOne().SetSort(bson.M{"ID": -1})
	var last struct {
		DisplayID int64 `bson:"ID"`
	}
	err := config.ProductCollection.FindOne(ctx, bson.M{}, opts).Decode(&last)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 1, nil
		}
		return 0, err
	}
	return last.DisplayID + 1, nil
}

func AddProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if product.Stock < 0 || product.Count < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Остаток манфий бўлиши мумкин эмас"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	displayID, err := nextDisplayID(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}

	product.ID = primitive.NilObjectID
	product.DisplayID = displayID
	product.CreatedAt = time.Now()
	if product.PriceType == "" {
		product.PriceType = models.PriceTypeUZ
	}

	res, err := config.ProductCollection.InsertOne(ctx, product)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	product.ID = res.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, gin.H{"message": "Маҳсулот қўшилди", "data": product})
}

func listProducts(c *gin.Context, filter bson.M) {
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

	opts := options.Find().
		SetSort(bson.M{"ID": 1}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := config.ProductCollection.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve products"})
		return
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err = cursor.All(ctx, &products); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode products"})
		return
	}

	total, err := config.ProductCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  products,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func GetProducts(c *gin.Context) {
	listProducts(c, bson.M{})
}

// GetReadyProducts — готовая продукция для витрины.
func GetReadyProducts(c *gin.Context) {
	listProducts(c, bson.M{"ready": true})
}

func GetProduct(c *gin.Context) {
	prodID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

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

	c.JSON(http.StatusOK, product)
}

func EditProduct(c *gin.Context) {
	prodID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var input models.UpdateProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updateFields := bson.M{}
	if input.Title != "" {
		updateFields["title"] = input.Title
	}
	if input.Price != nil {
		updateFields["price"] = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Остаток манфий бўлиши мумкин эмас"})
			return
		}
		updateFields["stock"] = *input.Stock
	}
	if input.Unit != "" {
		updateFields["unit"] = input.Unit
	}
	if input.Count != nil {
		if *input.Count < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Сони манфий бўлиши мумкин эмас"})
			return
		}
		updateFields["count"] = *input.Count
	}
	if input.Ready != nil {
		updateFields["ready"] = *input.Ready
	}
	if input.PriceType != "" {
		updateFields["priceType"] = input.PriceType
	}
	if len(updateFields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := config.ProductCollection.UpdateOne(ctx, bson.M{"_id": prodID}, bson.M{"$set": updateFields})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Маҳсулот топилмади"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Маҳсулот янгиланди"})
}

func DeleteProduct(c *gin.Context) {
	prodID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := config.ProductCollection.DeleteOne(ctx, bson.M{"_id": prodID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Маҳсулот топилмади"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Маҳсулот ўчирилди"})
}
