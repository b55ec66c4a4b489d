package webapp

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/eshop-basket/internal/domain/order"
	"github.com/xenking/eshop-basket/internal/storefront"
)

const maxBodyBytes = 1 << 16

func readBody(r *http.Request) (*jx.Decoder, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return jx.DecodeBytes(data), nil
}

func decodeAddItem(d *jx.Decoder) (int, error) {
	var (
		productID int
		seen      bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "productId" {
			return d.Skip()
		}
		v, err := d.Int32()
		if err != nil {
			return errors.Wrap(err, "productId")
		}
		productID, seen = int(v), true
		return nil
	})
	if err != nil {
		return 0, err
	}
	if !seen {
		return 0, errors.New("productId is required")
	}
	return productID, nil
}

func decodeSetQuantity(d *jx.Decoder) (int, error) {
	var (
		quantity int
		seen     bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		v, err := d.Int32()
		if err != nil {
			return errors.Wrap(err, "quantity")
		}
		quantity, seen = int(v), true
		return nil
	})
	if err != nil {
		return 0, err
	}
	if !seen {
		return 0, errors.New("quantity is required")
	}
	return quantity, nil
}

func decodeCheckout(d *jx.Decoder) (*order.CheckoutInfo, error) {
	info := &order.CheckoutInfo{}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "requestId":
			var s string
			if s, err = d.Str(); err != nil {
				return errors.Wrap(err, key)
			}
			if s == "" {
				return nil
			}
			if info.RequestID, err = uuid.Parse(s); err != nil {
				return errors.Wrap(err, key)
			}
		case "city":
			info.City, err = d.Str()
		case "street":
			info.Street, err = d.Str()
		case "state":
			info.State, err = d.Str()
		case "country":
			info.Country, err = d.Str()
		case "zipCode":
			info.ZipCode, err = d.Str()
		case "cardTypeId":
			info.CardTypeID, err = d.Int()
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

func encodeBasket(e *jx.Encoder, items []storefront.Item, version uint64) {
	total := decimal.Zero
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range items {
		total = total.Add(it.Total())
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("productId")
		e.Int(it.ProductID)
		e.FieldStart("productName")
		e.Str(it.ProductName)
		e.FieldStart("unitPrice")
		e.Num(jx.Num(it.UnitPrice.StringFixed(2)))
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Num(jx.Num(total.StringFixed(2)))
	e.FieldStart("version")
	e.UInt64(version)
	e.ObjEnd()
}

func writeJSON(w http.ResponseWriter, code int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(e.Bytes())
}
