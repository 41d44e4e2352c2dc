package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	m := Identity{}
	assert.Equal(t, "Customers", m.MapTableName("Customers"))
	assert.Equal(t, "CustomerID", m.MapColumnName("Customers", "CustomerID"))
}

func TestCustomOverridesWinOverTransform(t *testing.T) {
	m := NewCustom()
	m.Tables["Customers"] = "clients"
	m.AddColumn("Customers", "CustomerID", "client_id")
	m.TableTransform = Snake
	m.ColumnTransform = func(_, c string) string { return Snake(c) }

	assert.Equal(t, "clients", m.MapTableName("Customers"))
	assert.Equal(t, "client_id", m.MapColumnName("Customers", "CustomerID"))

	// Unmatched names fall through to the transform.
	assert.Equal(t, "order_items", m.MapTableName("OrderItems"))
	assert.Equal(t, "unit_price", m.MapColumnName("Customers", "UnitPrice"))
}

func TestCustomWithoutTransformKeepsNames(t *testing.T) {
	m := NewCustom()
	assert.Equal(t, "Orders", m.MapTableName("Orders"))
	assert.Equal(t, "Total", m.MapColumnName("Orders", "Total"))
}

func TestTransformers(t *testing.T) {
	assert.Equal(t, "customer_id", Snake("CustomerID"))
	assert.Equal(t, "orderitems", Lower("OrderItems"))
}
