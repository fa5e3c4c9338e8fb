package controllers

import (
	"context"
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

func AddClient(c *gin.Context) {
	var client models.Client
	if err := c.ShouldBindJSON(&client); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client.ID = primitive.NilObjectID
	client.CreatedAt = time.Now()

	res, err := config.ClientCollection.InsertOne(ctx, client)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create client"})
		return
	}
	client.ID = res.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, gin.H{"message": "Мижоз қўшилди", "data": client})
}

// ListClients — постраничный список контрагентов. Параметр clietn
// фильтрует покупателей (true) или поставщиков (false).
func ListClients(c *gin.Context) {
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
	if clietn := c.Query("clietn"); clietn != "" {
		filter["clietn"] = clietn == "true"
	}

	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := config.ClientCollection.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve clients"})
		return
	}
	defer cursor.Close(ctx)

	var clients []models.Client
	if err = cursor.All(ctx, &clients); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode clients"})
		return
	}

	total, err := config.ClientCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count clients"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  clients,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func GetClient(c *gin.Context) {
	clID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

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

	c.JSON(http.StatusOK, client)
}

func UpdateClient(c *gin.Context) {
	clID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
		return
	}

	var input models.UpdateClient
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	updateFields := bson.M{}
	if input.Name != "" {
		updateFields["name"] = input.Name
	}
	if input.PhoneNumber != "" {
		updateFields["phoneNumber"] = input.PhoneNumber
	}
	if len(updateFields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := config.ClientCollection.UpdateOne(ctx, bson.M{"_id": clID}, bson.M{"$set": updateFields})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Мижоз топилмади"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Мижоз янгиланди"})
}

// DeleteClient удаляет контрагента вместе с его заказами, приходами
// и историей долга.
func DeleteClient(c *gin.Context) {
	clID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

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

	hexID := clID.Hex()
	if _, err := config.OrderCollection.DeleteMany(ctx, bson.M{"client": hexID}); err != nil {
		log.Printf("Failed to delete orders of client %s: %v", hexID, err)
	}
	if _, err := config.InputCollection.DeleteMany(ctx, bson.M{"from": hexID}); err != nil {
		log.Printf("Failed to delete inputs of client %s: %v", hexID, err)
	}
	if _, err := config.HistoryCollection.DeleteMany(ctx, bson.M{"client": hexID}); err != nil {
		log.Printf("Failed to delete history of client %s: %v", hexID, err)
	}

	_, err = config.ClientCollection.DeleteOne(ctx, bson.M{"_id": clID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": client, "message": "Мижоз ўчирилди"})
}

// PayDebt — погашение долга. Каждая валюта гасится независимо, баланс
// ниже нуля не опускается: переплата поглощается. Каждое погашение
// оставляет запись в истории с отрицательной суммой.
func PayDebt(c *gin.Context) {
	var input models.PayDebtInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if input.UZ < 0 || input.EN < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Тўлов суммаси манфий бўлиши мумкин эмас"})
		return
	}
	if input.UZ == 0 && input.EN == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Тўлов суммаси киритилмаган"})
		return
	}

	clID, err := primitive.ObjectIDFromHex(input.ClientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

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

	update := bson.M{}
	if input.UZ > 0 {
		update["debtUZ"] = utils.SettleBalance(client.DebtUZ, input.UZ)
	}
	if input.EN > 0 {
		update["debtEN"] = utils.SettleBalance(client.DebtEN, input.EN)
	}

	_, err = config.ClientCollection.UpdateOne(ctx, bson.M{"_id": clID}, bson.M{"$set": update})
	if err != nil {
		log.Printf("Failed to settle debt for client %s: %v", input.ClientID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}

	recordHistory(ctx, input.ClientID, -input.UZ, -input.EN)

	err = config.ClientCollection.FindOne(ctx, bson.M{"_id": clID}).Decode(&client)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": client, "message": "Тўлов қабул қилинди"})
}

func GetClientHistory(c *gin.Context) {
	clID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := config.HistoryCollection.Find(ctx, bson.M{"client": clID.Hex()}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}
	defer cursor.Close(ctx)

	var history []models.History
	if err = cursor.All(ctx, &history); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}
