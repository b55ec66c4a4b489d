package basketrpc

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// message is implemented by every request and response of the Basket service.
type message interface {
	Encode(e *jx.Encoder)
	Decode(d *jx.Decoder) error
}

var (
	_ message = (*GetBasketRequest)(nil)
	_ message = (*UpdateBasketRequest)(nil)
	_ message = (*DeleteBasketRequest)(nil)
	_ message = (*CustomerBasketResponse)(nil)
	_ message = (*DeleteBasketResponse)(nil)
)

// BasketItem is a wire basket line. It carries no pricing.
type BasketItem struct {
	ProductID int32
	Quantity  int32
}

// GetBasketRequest is empty; the caller is identified by call metadata.
type GetBasketRequest struct{}

// UpdateBasketRequest replaces the caller's basket with Items.
type UpdateBasketRequest struct {
	Items []BasketItem
}

// DeleteBasketRequest is empty; the caller is identified by call metadata.
type DeleteBasketRequest struct{}

// CustomerBasketResponse returns the caller's basket lines.
type CustomerBasketResponse struct {
	Items []BasketItem
}

// DeleteBasketResponse is empty.
type DeleteBasketResponse struct{}

func (m *BasketItem) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("productId")
	e.Int32(m.ProductID)
	e.FieldStart("quantity")
	e.Int32(m.Quantity)
	e.ObjEnd()
}

func (m *BasketItem) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			m.ProductID, err = d.Int32()
		case "quantity":
			m.Quantity, err = d.Int32()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}
		return nil
	})
}

func encodeItems(e *jx.Encoder, items []BasketItem) {
	e.FieldStart("items")
	e.ArrStart()
	for i := range items {
		items[i].Encode(e)
	}
	e.ArrEnd()
}

func decodeItems(d *jx.Decoder) ([]BasketItem, error) {
	var items []BasketItem
	err := d.Arr(func(d *jx.Decoder) error {
		var it BasketItem
		if err := it.Decode(d); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

func encodeEmpty(e *jx.Encoder) {
	e.ObjStart()
	e.ObjEnd()
}

func decodeEmpty(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, _ string) error {
		return d.Skip()
	})
}

func (m *GetBasketRequest) Encode(e *jx.Encoder)       { encodeEmpty(e) }
func (m *GetBasketRequest) Decode(d *jx.Decoder) error { return decodeEmpty(d) }

func (m *DeleteBasketRequest) Encode(e *jx.Encoder)       { encodeEmpty(e) }
func (m *DeleteBasketRequest) Decode(d *jx.Decoder) error { return decodeEmpty(d) }

func (m *DeleteBasketResponse) Encode(e *jx.Encoder)       { encodeEmpty(e) }
func (m *DeleteBasketResponse) Decode(d *jx.Decoder) error { return decodeEmpty(d) }

func (m *UpdateBasketRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	encodeItems(e, m.Items)
	e.ObjEnd()
}

func (m *UpdateBasketRequest) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		items, err := decodeItems(d)
		if err != nil {
			return errors.Wrap(err, "decode items")
		}
		m.Items = items
		return nil
	})
}

func (m *CustomerBasketResponse) Encode(e *jx.Encoder) {
	e.ObjStart()
	encodeItems(e, m.Items)
	e.ObjEnd()
}

func (m *CustomerBasketResponse) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		items, err := decodeItems(d)
		if err != nil {
			return errors.Wrap(err, "decode items")
		}
		m.Items = items
		return nil
	})
}
