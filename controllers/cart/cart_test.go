package cartControllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCartRouter(t *testing.T, store *Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandlers(store, "secret", zap.NewNop())
	r.POST("/user/cart", func(c *gin.Context) {
		c.Set("user_id", "u1")
		c.Set("role", "user")
	}, h.AddCartItem)
	return r
}

func postCart(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/user/cart", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAddCartItemQuantity(t *testing.T) {
	store, db := newStore(t)
	p := dbtest.CreateProduct(t, db, "MUG-1", "10.00", 5)
	r := newCartRouter(t, store)

	for _, body := range []string{
		`{"product_id":1,"quantity":0}`,
		`{"product_id":1,"quantity":-2}`,
	} {
		w := postCart(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	var count int64
	db.Table("cart_items").Count(&count)
	assert.Zero(t, count)

	w := postCart(r, `{"product_id":1}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Item struct {
			ProductID uint `json:"product_id"`
			Quantity  int  `json:"quantity"`
		} `json:"item"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, p.ID, resp.Item.ProductID)
	assert.Equal(t, 1, resp.Item.Quantity)
}
