package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Единицы измерения. Count учитывается только когда единица не "дона".
const (
	UnitDona   = "дона"
	UnitKg     = "кг"
	UnitMetr   = "метр"
	UnitLitr   = "литр"
	UnitPachka = "пачка"
)

const (
	PriceTypeUZ = "uz"
	PriceTypeEN = "en"
)

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title           string             `bson:"title" json:"title" binding:"required"`
	Price           float64            `bson:"price" json:"price"`
	DisplayID       int64              `bson:"ID" json:"ID"` // порядковый номер для витрины, уникальный
	Stock           float64            `bson:"stock" json:"stock"`
	Unit            string             `bson:"unit" json:"unit" binding:"required"`
	Count           float64            `bson:"count" json:"count"`
	Ready           bool               `bson:"ready" json:"ready"`
	PriceType       string             `bson:"priceType" json:"priceType"`
	PhotoURL        string             `bson:"photourl,omitempty" json:"photourl,omitempty"`
	PhotoPreviewURL string             `bson:"photopreviewurl,omitempty" json:"photopreviewurl,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

type UpdateProduct struct {
	Title     string   `json:"title,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Stock     *float64 `json:"stock,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	Count     *float64 `json:"count,omitempty"`
	Ready     *bool    `json:"ready,omitempty"`
	PriceType string   `json:"priceType,omitempty"`
}

// Input — приход товара от поставщика. Удаление прихода откатывает
// и остаток продукта, и долг поставщика.
type Input struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title     string             `bson:"title" json:"title" binding:"required"`
	Price     float64            `bson:"price" json:"price"`
	PriceType string             `bson:"priceType" json:"priceType"`
	DisplayID int64              `bson:"ID" json:"ID"`
	Stock     float64            `bson:"stock" json:"stock"`
	Unit      string             `bson:"unit" json:"unit" binding:"required"`
	Count     float64            `bson:"count" json:"count"`
	Ready     bool               `bson:"ready" json:"ready"`
	From      string             `bson:"from" json:"from"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
