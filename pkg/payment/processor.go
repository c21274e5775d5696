package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"procurement/pkg/domain/model"
)

// Processor talks to the external payment provider directly (card
// confirmation never passes through the backend). The provider's
// contract: create an intent for {amount, currency}, confirm a card
// against the intent's client secret, answer "succeeded" or an error
// with a human-readable message.
type Processor struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func New(baseURL, secretKey string) *Processor {
	return &Processor{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Status       string `json:"status"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *Processor) CreateIntent(ctx context.Context, amountCents int64, currency string) (model.PaymentIntent, error) {
	body := map[string]interface{}{"amount": amountCents, "currency": currency}

	var resp intentResponse
	if err := p.post(ctx, "/v1/payment_intents", body, &resp); err != nil {
		return model.PaymentIntent{}, errors.WithMessage(model.ErrPaymentInit, err.Error())
	}
	if resp.Error != nil {
		return model.PaymentIntent{}, errors.WithMessage(model.ErrPaymentInit, resp.Error.Message)
	}

	return model.PaymentIntent{
		ID:           resp.ID,
		ClientSecret: resp.ClientSecret,
		AmountCents:  amountCents,
		Currency:     currency,
	}, nil
}

func (p *Processor) Confirm(ctx context.Context, clientSecret string, card model.CardDetails) error {
	body := map[string]interface{}{
		"clientSecret": clientSecret,
		"card": map[string]interface{}{
			"number":   card.Number,
			"expMonth": card.ExpMonth,
			"expYear":  card.ExpYear,
			"cvc":      card.CVC,
		},
	}

	var resp intentResponse
	if err := p.post(ctx, "/v1/payment_intents/confirm", body, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		log.WithField("reason", resp.Error.Message).Warn("payment declined")
		return errors.WithMessage(model.ErrPaymentDeclined, resp.Error.Message)
	}
	if resp.Status != "succeeded" {
		return errors.WithMessagef(model.ErrPaymentDeclined, "unexpected intent status %q", resp.Status)
	}
	return nil
}

func (p *Processor) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encode processor request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build processor request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return errors.WithMessage(model.ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithMessage(model.ErrNetwork, err.Error())
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "decode processor response")
	}
	return nil
}
