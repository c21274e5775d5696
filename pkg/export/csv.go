// Package export renders Request and Order tables as CSV: a header
// row plus one row per entity, UTF-8, ready to be downloaded as a
// file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"procurement/pkg/domain/model"
)

func Requests(w io.Writer, requests []model.Request) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"requestId", "retailer", "distributor", "product", "quantity", "price", "status", "createdAt"}); err != nil {
		return err
	}
	for _, r := range requests {
		row := []string{
			r.ID.String(),
			r.Retailer.Username,
			r.Distributor.Username,
			r.Product.Name,
			fmt.Sprintf("%d", r.Quantity),
			cents(r.PriceCents),
			r.Status.String(),
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func Orders(w io.Writer, orders []model.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"orderNumber", "retailer", "distributor", "product", "quantity", "price", "deliveryAgent", "status", "paidAt", "dispatchedAt", "deliveredAt"}); err != nil {
		return err
	}
	for _, o := range orders {
		agent := ""
		if o.DeliveryAgent != nil {
			agent = o.DeliveryAgent.Username
		}
		row := []string{
			o.Number,
			o.Retailer.Username,
			o.Distributor.Username,
			o.Product.Name,
			fmt.Sprintf("%d", o.Quantity),
			cents(o.PriceCents),
			agent,
			o.Status.String(),
			stamp(o.PaymentTimestamp),
			stamp(o.DispatchedAt),
			stamp(o.DeliveredAt),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cents(c int64) string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}

func stamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
