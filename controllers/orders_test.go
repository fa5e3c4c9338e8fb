package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend/config"
	"backend/models"
	"backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func bindCollections(mt *mtest.T) {
	db := mt.Client.Database("ombor")
	config.UserCollection = db.Collection("users")
	config.ProductCollection = db.Collection("products")
	config.ClientCollection = db.Collection("clients")
	config.OrderCollection = db.Collection("orders")
	config.InputCollection = db.Collection("inputs")
	config.HistoryCollection = db.Collection("history")
}

func performJSON(handler gin.HandlerFunc, method string, body interface{}, params ...gin.Param) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	c.Request = httptest.NewRequest(method, "/", &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params

	handler(c)
	return w
}

type updateCommand struct {
	Update  string `bson:"update"`
	Updates []struct {
		U bson.RawValue `bson:"u"`
	} `bson:"updates"`
}

type updateDoc struct {
	Inc map[string]float64     `bson:"$inc"`
	Set map[string]interface{} `bson:"$set"`
}

// doc раскодирует обычное (не конвейерное) тело обновления.
func (c updateCommand) doc(t *testing.T) updateDoc {
	t.Helper()
	var u updateDoc
	require.NoError(t, c.Updates[0].U.Unmarshal(&u))
	return u
}

// updateCommands собирает все update-команды, ушедшие в драйвер.
func updateCommands(mt *mtest.T) []updateCommand {
	var commands []updateCommand
	for _, ev := range mt.GetAllStartedEvents() {
		if ev.CommandName != "update" {
			continue
		}
		var cmd updateCommand
		if err := bson.Unmarshal(ev.Command, &cmd); err != nil {
			continue
		}
		commands = append(commands, cmd)
	}
	return commands
}

// historyRows собирает документы, вставленные в коллекцию history.
func historyRows(mt *mtest.T) []models.History {
	var rows []models.History
	for _, ev := range mt.GetAllStartedEvents() {
		if ev.CommandName != "insert" {
			continue
		}
		var cmd struct {
			Insert    string           `bson:"insert"`
			Documents []models.History `bson:"documents"`
		}
		if err := bson.Unmarshal(ev.Command, &cmd); err != nil || cmd.Insert != "history" {
			continue
		}
		rows = append(rows, cmd.Documents...)
	}
	return rows
}

func TestCreateOrderRequiresCustomer(t *testing.T) {
	w := performJSON(CreateOrder, http.MethodPost, models.CreateOrderInput{
		Products: []models.OrderLine{{Product: primitive.NewObjectID().Hex(), Amount: 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderRequiresProducts(t *testing.T) {
	w := performJSON(CreateOrder, http.MethodPost, models.CreateOrderInput{Customer: "u1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("amount above stock is rejected before any write", func(mt *mtest.T) {
		bindCollections(mt)

		clientID := primitive.NewObjectID()
		productID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "ombor.clients", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: clientID},
				{Key: "name", Value: "Карим ака"},
				{Key: "clietn", Value: true},
			}),
			mtest.CreateCursorResponse(0, "ombor.products", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: productID},
				{Key: "title", Value: "Цемент"},
				{Key: "stock", Value: 10.0},
				{Key: "unit", Value: models.UnitDona},
			}),
		)

		w := performJSON(CreateOrder, http.MethodPost, models.CreateOrderInput{
			Customer: "u1",
			ClientID: clientID.Hex(),
			Products: []models.OrderLine{{Product: productID.Hex(), Amount: 11, Unit: models.UnitDona}},
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Цемент")
		assert.Empty(t, updateCommands(mt), "stock must not be mutated")
	})
}

func TestCreateOrderReservesStock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("successful order decrements stock and zeroes line prices", func(mt *mtest.T) {
		bindCollections(mt)

		messages := make(chan string, 1)
		notifyNewOrder = func(msg string) { messages <- msg }
		defer func() { notifyNewOrder = utils.NotifyNewOrder }()

		clientID := primitive.NewObjectID()
		productID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "ombor.clients", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: clientID},
				{Key: "name", Value: "Карим ака"},
				{Key: "clietn", Value: true},
			}),
			mtest.CreateCursorResponse(0, "ombor.products", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: productID},
				{Key: "title", Value: "Цемент"},
				{Key: "stock", Value: 10.0},
				{Key: "unit", Value: models.UnitDona},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(),
		)

		w := performJSON(CreateOrder, http.MethodPost, models.CreateOrderInput{
			Customer: "u1",
			ClientID: clientID.Hex(),
			Products: []models.OrderLine{{Product: productID.Hex(), Amount: 4, Unit: models.UnitDona, Price: 999}},
		})

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			Data models.Order `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Data.Paid)
		require.Len(t, resp.Data.Products, 1)
		assert.Zero(t, resp.Data.Products[0].Price, "order is created unpriced")

		commands := updateCommands(mt)
		require.Len(t, commands, 1)
		assert.Equal(t, "products", commands[0].Update)

		var stages []struct {
			Set struct {
				Stock struct {
					Subtract bson.A `bson:"$subtract"`
				} `bson:"stock"`
				Count struct {
					Max bson.A `bson:"$max"`
				} `bson:"count"`
			} `bson:"$set"`
		}
		require.NoError(t, commands[0].Updates[0].U.Unmarshal(&stages))
		require.Len(t, stages, 1)
		assert.Equal(t, bson.A{"$stock", 4.0}, stages[0].Set.Stock.Subtract)
		require.Len(t, stages[0].Set.Count.Max, 2)
		assert.EqualValues(t, 0, stages[0].Set.Count.Max[0], "count clamps at zero")

		select {
		case msg := <-messages:
			assert.Contains(t, msg, "Карим ака", "notification carries the resolved client name")
		case <-time.After(time.Second):
			t.Fatal("order notification was not sent")
		}
	})
}

func TestUpdateOrderAccruesDebtByCurrency(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("pricing accrues debtUZ and debtEN independently", func(mt *mtest.T) {
		bindCollections(mt)

		orderID := primitive.NewObjectID()
		clientID := primitive.NewObjectID()
		productID := primitive.NewObjectID()

		orderDoc := bson.D{
			{Key: "_id", Value: orderID},
			{Key: "customer", Value: "u1"},
			{Key: "client", Value: clientID.Hex()},
			{Key: "products", Value: bson.A{bson.D{
				{Key: "product", Value: productID.Hex()},
				{Key: "amount", Value: 2.0},
				{Key: "price", Value: 0.0},
			}}},
			{Key: "paid", Value: false},
		}

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "ombor.orders", mtest.FirstBatch, orderDoc),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, "ombor.orders", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: orderID},
				{Key: "client", Value: clientID.Hex()},
				{Key: "totalUZ", Value: 2000.0},
				{Key: "totalEN", Value: 15.0},
				{Key: "paid", Value: true},
			}),
		)

		w := performJSON(UpdateOrder, http.MethodPut, models.UpdateOrderInput{
			Products: []models.OrderLine{
				{Product: productID.Hex(), Amount: 2, Price: 1000, PriceType: models.PriceTypeUZ},
				{Product: productID.Hex(), Amount: 3, Price: 5, PriceType: models.PriceTypeEN},
			},
		}, gin.Param{Key: "id", Value: orderID.Hex()})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Data models.Order `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Paid)
		assert.Equal(t, 2000.0, resp.Data.TotalUZ)
		assert.Equal(t, 15.0, resp.Data.TotalEN)

		var clientUpdate *updateCommand
		commands := updateCommands(mt)
		for i := range commands {
			if commands[i].Update == "clients" {
				clientUpdate = &commands[i]
			}
		}
		require.NotNil(t, clientUpdate, "client debt must be accrued")
		accrual := clientUpdate.doc(t)
		assert.Equal(t, 2000.0, accrual.Inc["debtUZ"])
		assert.Equal(t, 15.0, accrual.Inc["debtEN"])

		rows := historyRows(mt)
		require.Len(t, rows, 2, "one history row per accrued currency")
		assert.Equal(t, 2000.0, rows[0].Price)
		assert.Equal(t, models.PriceTypeUZ, rows[0].Type)
		assert.Equal(t, 15.0, rows[1].Price)
		assert.Equal(t, models.PriceTypeEN, rows[1].Type)
	})
}

func TestDeleteOrderRejectsPaid(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("paid order cannot be cancelled", func(mt *mtest.T) {
		bindCollections(mt)

		orderID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "ombor.orders", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: orderID},
				{Key: "paid", Value: true},
			}),
		)

		w := performJSON(DeleteOrder, http.MethodDelete, nil, gin.Param{Key: "id", Value: orderID.Hex()})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, updateCommands(mt), "stock must stay untouched")
	})
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("cancelling unpaid order releases every line", func(mt *mtest.T) {
		bindCollections(mt)

		orderID := primitive.NewObjectID()
		productID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "ombor.orders", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: orderID},
				{Key: "paid", Value: false},
				{Key: "products", Value: bson.A{bson.D{
					{Key: "product", Value: productID.Hex()},
					{Key: "amount", Value: 4.0},
					{Key: "count", Value: 2.0},
				}}},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		w := performJSON(DeleteOrder, http.MethodDelete, nil, gin.Param{Key: "id", Value: orderID.Hex()})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		commands := updateCommands(mt)
		require.Len(t, commands, 1)
		assert.Equal(t, "products", commands[0].Update)
		release := commands[0].doc(t)
		assert.Equal(t, 4.0, release.Inc["stock"])
		assert.Equal(t, 2.0, release.Inc["count"])
	})
}

func TestGetOrderByIDInvalidID(t *testing.T) {
	w := performJSON(GetOrderByID, http.MethodGet, nil, gin.Param{Key: "id", Value: "not-an-id"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
