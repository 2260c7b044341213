package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"storefront-be/internal/order"
	"storefront-be/internal/pricing"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

var subjects = map[order.Status]string{
	order.StatusProcessing: "Payment received for order {{.ShortID}}",
	order.StatusShipped:    "Order {{.ShortID}} has shipped",
	order.StatusDelivered:  "Order {{.ShortID}} was delivered",
	order.StatusCancelled:  "Order {{.ShortID}} was cancelled",
}

var bodies = map[order.Status]string{
	order.StatusProcessing: `Hi {{.Name}},

We received your payment of {{.Charged}} and are preparing your order.
{{template "items" .}}`,
	order.StatusShipped: `Hi {{.Name}},

Your order is on its way ({{.ShippingMethod}} shipping).
{{template "items" .}}`,
	order.StatusDelivered: `Hi {{.Name}},

Your order has been delivered. Thank you for shopping with us.
{{template "items" .}}`,
	order.StatusCancelled: `Hi {{.Name}},

Your order has been cancelled. If you were charged, a refund will follow.
{{template "items" .}}`,
}

const itemsTemplate = `{{define "items"}}
{{range .Items}}  {{.Quantity}} x {{.Name}}{{if .Variant}} ({{.Variant}}){{end}}  {{.LineTotal}}
{{end}}
  Subtotal  {{.Subtotal}}
  Shipping  {{.Shipping}}
{{- if .Discount}}
  Discount  -{{.Discount}}
{{- end}}
  Total     {{.Total}}
{{end}}`

type itemView struct {
	Name      string
	Variant   string
	Quantity  int
	LineTotal string
}

type orderView struct {
	ShortID        string
	Name           string
	ShippingMethod string
	Items          []itemView
	Subtotal       string
	Shipping       string
	Discount       string
	Total          string
	Charged        string
}

// Renderer turns an order and the status it entered into an email.
type Renderer struct {
	subjects map[order.Status]*template.Template
	bodies   map[order.Status]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{
		subjects: make(map[order.Status]*template.Template),
		bodies:   make(map[order.Status]*template.Template),
	}
	for status, text := range subjects {
		t, err := template.New("subject_" + status.String()).Parse(text)
		if err != nil {
			return nil, err
		}
		r.subjects[status] = t
	}
	for status, text := range bodies {
		t, err := template.New("body_" + status.String()).Parse(itemsTemplate)
		if err != nil {
			return nil, err
		}
		if t, err = t.Parse(text); err != nil {
			return nil, err
		}
		r.bodies[status] = t
	}
	return r, nil
}

func (r *Renderer) Render(o *order.Order, status order.Status) (Message, error) {
	subjectTmpl, ok := r.subjects[status]
	if !ok {
		return Message{}, fmt.Errorf("no notification template for status %q", status)
	}
	view := newOrderView(o)

	var subject, body bytes.Buffer
	if err := subjectTmpl.Execute(&subject, view); err != nil {
		return Message{}, err
	}
	if err := r.bodies[status].Execute(&body, view); err != nil {
		return Message{}, err
	}

	return Message{
		To:      o.Customer.Email,
		Subject: subject.String(),
		Body:    body.String(),
	}, nil
}

func newOrderView(o *order.Order) orderView {
	cur := o.Currency
	v := orderView{
		ShortID:        strings.ToUpper(strings.SplitN(o.ID.String(), "-", 2)[0]),
		Name:           o.Customer.Name,
		ShippingMethod: string(o.ShippingMethod),
		Subtotal:       pricing.FormatPrice(o.Subtotal, cur),
		Shipping:       pricing.FormatPrice(o.ShippingCost, cur),
		Total:          pricing.FormatPrice(o.Total, cur),
		Charged:        pricing.FormatPrice(o.ChargeAmount, o.ChargeCurrency),
	}
	if v.Name == "" {
		v.Name = "there"
	}
	if o.Discount > 0 {
		v.Discount = pricing.FormatPrice(o.Discount, cur)
	}
	for _, it := range o.Items {
		var variant []string
		for _, s := range []string{it.Color, it.Size} {
			if s != "" {
				variant = append(variant, s)
			}
		}
		v.Items = append(v.Items, itemView{
			Name:      it.Name,
			Variant:   strings.Join(variant, ", "),
			Quantity:  it.Quantity,
			LineTotal: pricing.FormatPrice(it.LineTotal(), cur),
		})
	}
	return v
}
