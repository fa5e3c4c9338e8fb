package controllers

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"backend/config"
	"backend/models"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func Register(c *gin.Context) {
	var input models.User
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Phone == "" || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone and password are required"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := config.UserCollection.CountDocuments(ctx, bson.M{"phone": input.Phone})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Бу рақам рўйхатдан ўтган"})
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error hashing password"})
		return
	}
	input.Password = hashedPassword
	if input.Role == "" {
		input.Role = "seller"
	}
	input.CreatedAt = time.Now()

	res, err := config.UserCollection.InsertOne(ctx, input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}

	userID := res.InsertedID.(primitive.ObjectID)
	token, err := utils.GenerateToken(userID.Hex(), input.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error while generating token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"id":    userID.Hex(),
		"role":  input.Role,
		"name":  input.Name,
	})
}

func Login(c *gin.Context) {
	var input models.User
	var foundUser models.User

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := config.UserCollection.FindOne(ctx, bson.M{"phone": input.Phone}).Decode(&foundUser)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect Phone number", "phone": input.Phone})
		return
	}

	err = utils.VerifyPassword(foundUser.Password, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect Password"})
		return
	}

	token, err := utils.GenerateToken(foundUser.ID.Hex(), foundUser.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error while generating token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"id":    foundUser.ID.Hex(),
		"role":  foundUser.Role,
		"name":  foundUser.Name,
	})
}

// RequestPasswordReset шлёт шестизначный код на почту пользователя.
func RequestPasswordReset(c *gin.Context) {
	var input struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := config.UserCollection.FindOne(ctx, bson.M{"phone": input.Phone}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Фойдаланувчи топилмади"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		}
		return
	}
	if user.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Почта кўрсатилмаган"})
		return
	}

	code := fmt.Sprintf("%06d", rand.Intn(1000000))
	_, err = config.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"recovery_code":    code,
		"recovery_expires": time.Now().Add(15 * time.Minute),
	}})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}

	if err := utils.SendEmail(user.Email, "Парольни тиклаш", fmt.Sprintf("Тиклаш коди: %s", code)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send recovery email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Код почтага юборилди"})
}

func ResetPassword(c *gin.Context) {
	var input struct {
		Phone    string `json:"phone" binding:"required"`
		Code     string `json:"code" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := config.UserCollection.FindOne(ctx, bson.M{"phone": input.Phone}).Decode(&user)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Фойдаланувчи топилмади"})
		return
	}

	if user.RecoveryCode == "" || user.RecoveryCode != input.Code || time.Now().After(user.RecoveryExpires) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Код нотўғри ёки эскирган"})
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error hashing password"})
		return
	}

	_, err = config.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set":   bson.M{"password": hashedPassword},
		"$unset": bson.M{"recovery_code": "", "recovery_expires": ""},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Пароль янгиланди"})
}
