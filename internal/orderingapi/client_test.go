package orderingapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/eshop-basket/internal/domain/order"
	"github.com/xenking/eshop-basket/internal/identity"
)

func TestClient_Submit(t *testing.T) {
	t.Run("posts order with request id", func(t *testing.T) {
		var (
			gotPath   string
			gotHeader http.Header
			gotBody   []byte
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotHeader = r.Header.Clone()
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c, err := NewClient(srv.URL)
		require.NoError(t, err)

		requestID := uuid.New()
		ctx := identity.WithUser(context.Background(), identity.User{ID: "U1", Name: "alice"})
		req := order.CreateOrderRequest{
			UserID:         "U1",
			UserName:       "alice",
			City:           "Seattle",
			CardNumber:     order.TestCardNumber,
			CardExpiration: time.Date(2027, 3, 14, 0, 0, 0, 0, time.UTC),
			CardTypeID:     1,
			Buyer:          "U1",
			Items: []order.Item{{
				ID:          "line-1",
				ProductID:   7,
				ProductName: "Name7",
				UnitPrice:   decimal.RequireFromString("9.99"),
				Quantity:    3,
			}},
		}
		require.NoError(t, c.Submit(ctx, req, requestID))

		assert.Equal(t, "/api/orders", gotPath)
		assert.Equal(t, requestID.String(), gotHeader.Get(HeaderRequestID))
		assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
		assert.Equal(t, "U1", gotHeader.Get(identity.HeaderUserID))

		fields := map[string]string{}
		var items []map[string]string
		require.NoError(t, jx.DecodeBytes(gotBody).Obj(func(d *jx.Decoder, key string) error {
			if key != "items" {
				raw, err := d.Raw()
				fields[key] = raw.String()
				return err
			}
			return d.Arr(func(d *jx.Decoder) error {
				item := map[string]string{}
				items = append(items, item)
				return d.Obj(func(d *jx.Decoder, key string) error {
					raw, err := d.Raw()
					item[key] = raw.String()
					return err
				})
			})
		}))

		assert.Equal(t, `"U1"`, fields["userId"])
		assert.Equal(t, `"Seattle"`, fields["city"])
		assert.Equal(t, `"1111222233334444"`, fields["cardNumber"])
		assert.Equal(t, `"2027-03-14T00:00:00Z"`, fields["cardExpiration"])
		assert.Equal(t, `1`, fields["cardTypeId"])
		require.Len(t, items, 1)
		assert.Equal(t, `7`, items[0]["productId"])
		assert.Equal(t, `"Name7"`, items[0]["productName"])
		assert.Equal(t, `9.99`, items[0]["unitPrice"])
		assert.Equal(t, `3`, items[0]["quantity"])
	})

	t.Run("base path is preserved", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		c, err := NewClient(srv.URL + "/ordering")
		require.NoError(t, err)
		require.NoError(t, c.Submit(context.Background(), order.CreateOrderRequest{}, uuid.New()))
		assert.Equal(t, "/ordering/api/orders", gotPath)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "bad order", http.StatusBadRequest)
		}))
		defer srv.Close()

		c, err := NewClient(srv.URL)
		require.NoError(t, err)

		err = c.Submit(context.Background(), order.CreateOrderRequest{}, uuid.New())
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
		assert.Equal(t, "bad order", statusErr.Body)
	})

	t.Run("relative url is rejected", func(t *testing.T) {
		_, err := NewClient("/api")
		require.Error(t, err)
	})
}
