package models_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
)

func TestComputeTotal(t *testing.T) {
	items := []models.OrderItem{
		{Quantity: 2, Price: decimal.RequireFromString("9.99")},
		{Quantity: 1, Price: decimal.RequireFromString("7.00")},
	}
	assert.True(t, decimal.RequireFromString("26.98").Equal(models.ComputeTotal(items)))
	assert.True(t, models.ComputeTotal(nil).IsZero())
}

func TestOrderJSONShape(t *testing.T) {
	order := models.Order{
		Total:  decimal.RequireFromString("26.98"),
		Status: &models.OrderStage{Name: "Pending"},
	}
	order.ID = "o-1"

	raw, err := json.Marshal(order)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "o-1", out["id"])
	assert.Equal(t, 26.98, out["total"])
	assert.Equal(t, "Pending", out["status"].(map[string]any)["name"])
	assert.Contains(t, out, "createdAt")
}

func TestStoreSettingsRoundTrip(t *testing.T) {
	in := models.StoreSettings{DeliveryFee: decimal.RequireFromString("5"), DeliveryTime: "30-45 mins"}
	v, err := in.Value()
	require.NoError(t, err)

	var out models.StoreSettings
	require.NoError(t, out.Scan(v))
	assert.Equal(t, "30-45 mins", out.DeliveryTime)
	assert.True(t, in.DeliveryFee.Equal(out.DeliveryFee))

	require.NoError(t, out.Scan(nil))
	assert.Empty(t, out.DeliveryTime)
}
