package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"backend/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestPayDebtRequiresAmount(t *testing.T) {
	w := performJSON(PayDebt, http.MethodPost, models.PayDebtInput{
		ClientID: primitive.NewObjectID().Hex(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayDebtRejectsNegativeAmount(t *testing.T) {
	w := performJSON(PayDebt, http.MethodPost, models.PayDebtInput{
		ClientID: primitive.NewObjectID().Hex(),
		UZ:       -100,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayDebtClampsAtZero(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("overpayment settles balance to exactly zero", func(mt *mtest.T) {
		bindCollections(mt)

		clientID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "ombor.clients", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: clientID},
				{Key: "name", Value: "Карим ака"},
				{Key: "debtUZ", Value: 2000.0},
				{Key: "debtEN", Value: 15.0},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, "ombor.clients", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: clientID},
				{Key: "name", Value: "Карим ака"},
				{Key: "debtUZ", Value: 0.0},
				{Key: "debtEN", Value: 15.0},
			}),
		)

		w := performJSON(PayDebt, http.MethodPost, models.PayDebtInput{
			ClientID: clientID.Hex(),
			UZ:       2500,
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Data models.Client `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 0.0, resp.Data.DebtUZ)
		assert.Equal(t, 15.0, resp.Data.DebtEN, "the other currency stays untouched")

		commands := updateCommands(mt)
		require.Len(t, commands, 1)
		assert.Equal(t, "clients", commands[0].Update)
		settle := commands[0].doc(t)
		assert.Equal(t, 0.0, settle.Set["debtUZ"])
		assert.NotContains(t, settle.Set, "debtEN")

		rows := historyRows(mt)
		require.Len(t, rows, 1, "settlement leaves a history row")
		assert.Equal(t, -2500.0, rows[0].Price)
		assert.Equal(t, models.PriceTypeUZ, rows[0].Type)
	})
}

func TestPayDebtPartial(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("partial payment leaves the remainder", func(mt *mtest.T) {
		bindCollections(mt)

		clientID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "ombor.clients", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: clientID},
				{Key: "debtUZ", Value: 2000.0},
				{Key: "debtEN", Value: 15.0},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, "ombor.clients", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: clientID},
				{Key: "debtUZ", Value: 1500.0},
				{Key: "debtEN", Value: 5.0},
			}),
		)

		w := performJSON(PayDebt, http.MethodPost, models.PayDebtInput{
			ClientID: clientID.Hex(),
			UZ:       500,
			EN:       10,
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		commands := updateCommands(mt)
		require.Len(t, commands, 1)
		settle := commands[0].doc(t)
		assert.Equal(t, 1500.0, settle.Set["debtUZ"])
		assert.Equal(t, 5.0, settle.Set["debtEN"])

		rows := historyRows(mt)
		require.Len(t, rows, 2, "one history row per currency paid")
		assert.Equal(t, -500.0, rows[0].Price)
		assert.Equal(t, models.PriceTypeUZ, rows[0].Type)
		assert.Equal(t, -10.0, rows[1].Price)
		assert.Equal(t, models.PriceTypeEN, rows[1].Type)
	})
}

func TestPayDebtClientNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unknown client gets 404", func(mt *mtest.T) {
		bindCollections(mt)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ombor.clients", mtest.FirstBatch))

		w := performJSON(PayDebt, http.MethodPost, models.PayDebtInput{
			ClientID: primitive.NewObjectID().Hex(),
			UZ:       100,
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateClientNothingToUpdate(t *testing.T) {
	w := performJSON(UpdateClient, http.MethodPut, models.UpdateClient{},
		gin.Param{Key: "id", Value: primitive.NewObjectID().Hex()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
