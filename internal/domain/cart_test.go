package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleList() CartList {
	return CartList{
		{ID: 1, Title: "Tênis de Caminhada", Price: RequireMoney("179.90"), Image: "a.jpg", Amount: 2},
		{ID: 2, Title: "Tênis VR Caminhada", Price: RequireMoney("139.90"), Image: "b.jpg", Amount: 1},
	}
}

func TestCartList_FindIndex(t *testing.T) {
	l := sampleList()
	assert.Equal(t, 0, l.FindIndex(1))
	assert.Equal(t, 1, l.FindIndex(2))
	assert.Equal(t, -1, l.FindIndex(3))
	assert.Equal(t, -1, CartList(nil).FindIndex(1))
}

func TestCartList_CloneIsIndependent(t *testing.T) {
	l := sampleList()
	c := l.Clone()
	c[0].Amount = 99

	assert.Equal(t, 2, l[0].Amount)
	assert.NotNil(t, CartList(nil).Clone())
}

func TestCartList_Totals(t *testing.T) {
	l := sampleList()

	assert.Equal(t, 2, l.Size())
	assert.True(t, decimal.RequireFromString("359.80").Equal(l[0].Subtotal()))
	assert.True(t, decimal.RequireFromString("499.70").Equal(l.Total().Decimal))
	assert.True(t, decimal.Zero.Equal(CartList{}.Total().Decimal))
}

func TestCartList_Validate(t *testing.T) {
	assert.NoError(t, sampleList().Validate())
	assert.NoError(t, CartList{}.Validate())

	dup := CartList{{ID: 1, Amount: 1}, {ID: 1, Amount: 2}}
	assert.ErrorContains(t, dup.Validate(), "duplicate product 1")

	zero := CartList{{ID: 1, Amount: 1}, {ID: 2, Amount: 0}}
	assert.ErrorContains(t, zero.Validate(), "product 2 has amount 0")

	negative := CartList{{ID: 3, Amount: -4}}
	assert.Error(t, negative.Validate())

	noID := CartList{{Title: "Tênis", Amount: 1}}
	assert.ErrorContains(t, noID.Validate(), "invalid product id 0")
}

func TestCartList_AmountByProduct(t *testing.T) {
	assert.Equal(t, map[int64]int{1: 2, 2: 1}, sampleList().AmountByProduct())
}

func TestNewEntry(t *testing.T) {
	p := Product{ID: 5, Title: "Tênis", Price: NewMoney(decimal.NewFromInt(100)), Image: "c.jpg"}
	e := NewEntry(p)
	assert.Equal(t, CartEntry{ID: 5, Title: "Tênis", Price: p.Price, Image: "c.jpg", Amount: 1}, e)
}

func TestCartEntry_JSONShape(t *testing.T) {
	raw, err := json.Marshal(CartList{{ID: 1, Title: "T", Price: RequireMoney("179.9"), Image: "i", Amount: 3}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"title":"T","price":179.9,"image":"i","amount":3}]`, string(raw))

	var decoded CartList
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	assert.True(t, decimal.RequireFromString("179.9").Equal(decoded[0].Price.Decimal))
}

func TestCartList_EmptyEncodesAsArray(t *testing.T) {
	raw, err := json.Marshal(CartList(nil).Clone())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestMoney_EncodesAsNumberWithoutGlobalState(t *testing.T) {
	raw, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{RequireMoney("499.70")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":499.7}`, string(raw))

	assert.False(t, decimal.MarshalJSONWithoutQuotes)
	plain, err := json.Marshal(decimal.RequireFromString("1.5"))
	require.NoError(t, err)
	assert.Equal(t, `"1.5"`, string(plain))
}

func TestMoney_DecodesNumbersAndStrings(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"price":"10.5"}`), &p))
	assert.True(t, decimal.RequireFromString("10.5").Equal(p.Price.Decimal))

	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"price":20}`), &p))
	assert.True(t, decimal.NewFromInt(20).Equal(p.Price.Decimal))
}
