package basketrpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_Encoding(t *testing.T) {
	data, err := codec{}.Marshal(&UpdateBasketRequest{
		Items: []BasketItem{{ProductID: 42, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"productId":42,"quantity":2}]}`, string(data))

	data, err = codec{}.Marshal(&DeleteBasketResponse{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestCodec_RoundTrip(t *testing.T) {
	items := []BasketItem{
		{ProductID: 42, Quantity: 1},
		{ProductID: 7, Quantity: 3},
	}

	data, err := codec{}.Marshal(&UpdateBasketRequest{Items: items})
	require.NoError(t, err)
	var req UpdateBasketRequest
	require.NoError(t, codec{}.Unmarshal(data, &req))
	assert.Equal(t, items, req.Items)

	data, err = codec{}.Marshal(&CustomerBasketResponse{Items: items})
	require.NoError(t, err)
	var resp CustomerBasketResponse
	require.NoError(t, codec{}.Unmarshal(data, &resp))
	assert.Equal(t, items, resp.Items)
}

func TestCodec_DecodeIgnoresUnknownFields(t *testing.T) {
	var resp CustomerBasketResponse
	err := codec{}.Unmarshal([]byte(`{"buyerId":"x","items":[{"productId":7,"quantity":3,"price":9.99}]}`), &resp)
	require.NoError(t, err)
	assert.Equal(t, []BasketItem{{ProductID: 7, Quantity: 3}}, resp.Items)
}

func TestCodec_DecodeMalformed(t *testing.T) {
	var resp CustomerBasketResponse
	err := codec{}.Unmarshal([]byte(`{"items":[{"productId":"seven"}]}`), &resp)
	assert.Error(t, err)
}

func TestCodec_RejectsForeignTypes(t *testing.T) {
	_, err := codec{}.Marshal("not a message")
	assert.Error(t, err)

	var s string
	assert.Error(t, codec{}.Unmarshal([]byte(`{}`), &s))
}
