package config

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	Client            *mongo.Client
	UserCollection    *mongo.Collection
	ProductCollection *mongo.Collection
	ClientCollection  *mongo.Collection
	OrderCollection   *mongo.Collection
	InputCollection   *mongo.Collection
	HistoryCollection *mongo.Collection
)

func ConnectDatabase() {
	client, err := mongo.NewClient(options.Client().ApplyURI(os.Getenv("MONGO_URI")))
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = client.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal(err)
	}

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "ombor"
	}

	Client = client
	UserCollection = Client.Database(dbName).Collection("users")
	ProductCollection = Client.Database(dbName).Collection("products")
	ClientCollection = Client.Database(dbName).Collection("clients")
	OrderCollection = Client.Database(dbName).Collection("orders")
	InputCollection = Client.Database(dbName).Collection("inputs")
	HistoryCollection = Client.Database(dbName).Collection("history")
	log.Println("Connected to MongoDB")
}
