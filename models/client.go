package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Client — контрагент: clietn=true это покупатель (он должен нам),
// clietn=false это поставщик (мы должны ему). Поле исторически называется
// "clietn" — так его хранит база и читает фронт.
type Client struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name" binding:"required"`
	PhoneNumber string             `bson:"phoneNumber" json:"phoneNumber"`
	Clietn      bool               `bson:"clietn" json:"clietn"`
	DebtUZ      float64            `bson:"debtUZ" json:"debtUZ"`
	DebtEN      float64            `bson:"debtEN" json:"debtEN"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

type UpdateClient struct {
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// History — неизменяемая запись о каждом движении долга.
type History struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Client    string             `bson:"client" json:"client"`
	Price     float64            `bson:"price" json:"price"`
	Type      string             `bson:"type" json:"type"` // "uz" или "en"
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type PayDebtInput struct {
	ClientID string  `json:"clientId" binding:"required"`
	UZ       float64 `json:"uz"`
	EN       float64 `json:"en"`
}
