package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderLine struct {
	Product   string  `bson:"product" json:"product"`
	Amount    float64 `bson:"amount" json:"amount"`
	Unit      string  `bson:"unit" json:"unit"`
	Count     float64 `bson:"count" json:"count"`
	Price     float64 `bson:"price" json:"price"`
	PriceType string  `bson:"priceType" json:"priceType"`
}

type Order struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Customer   string             `bson:"customer" json:"customer"`
	Client     string             `bson:"client" json:"client"`
	Products   []OrderLine        `bson:"products" json:"products"`
	Status     string             `bson:"status" json:"status"`
	PayType    string             `bson:"payType" json:"payType"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
	TotalUZ    float64            `bson:"totalUZ" json:"totalUZ"`
	TotalEN    float64            `bson:"totalEN" json:"totalEN"`
	Paid       bool               `bson:"paid" json:"paid"`
	OrderDate  time.Time          `bson:"orderDate" json:"orderDate"`
}

// CreateOrderInput — тело POST /orders/new. Если clientId пустой,
// клиент создаётся на лету из name и phoneNumber.
type CreateOrderInput struct {
	Customer    string      `json:"customer"`
	ClientID    string      `json:"clientId"`
	Name        string      `json:"name"`
	PhoneNumber string      `json:"phoneNumber"`
	Products    []OrderLine `json:"products"`
	Status      string      `json:"status"`
	PayType     string      `json:"payType"`
	TotalPrice  float64     `json:"totalPrice"`
}

// UpdateOrderInput — тело PUT /orders/:id (проставление цен админом).
type UpdateOrderInput struct {
	Products []OrderLine `json:"products"`
	Status   string      `json:"status"`
}
