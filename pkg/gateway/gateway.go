package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"procurement/pkg/domain/model"
)

// Client wraps every call against the backend with credential
// attachment (cookie session), JSON codec and failure normalization
// into the model error taxonomy. It carries no entity state of its
// own; the stores own their caches.
type Client struct {
	base *url.URL
	http *http.Client
}

func New(baseURL string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse backend url")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "create cookie jar")
	}

	return &Client{
		base: base,
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	// JoinPath keeps any prefix in the configured base URL, e.g. a
	// reverse-proxied /api mount.
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WithMessage(model.ErrNetwork, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithMessage(model.ErrNetwork, err.Error())
	}

	log.WithFields(log.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	}).Debug("backend call")

	if resp.StatusCode >= http.StatusBadRequest {
		return normalize(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.Wrap(err, "decode response body")
		}
	}
	return nil
}

// normalize maps an error response onto the model taxonomy. The
// backend marks transition and not-found failures with a code field;
// everything else is classified by HTTP status.
func normalize(status int, raw []byte) error {
	var body apiError
	_ = json.Unmarshal(raw, &body)
	msg := body.Message
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch body.Code {
	case "invalid_transition":
		return errors.WithMessage(model.ErrInvalidTransition, msg)
	case "request_not_found":
		return errors.WithMessage(model.ErrRequestNotFound, msg)
	case "order_not_found":
		return errors.WithMessage(model.ErrOrderNotFound, msg)
	case "payment_failed":
		return errors.WithMessage(model.ErrPaymentInit, msg)
	}

	switch status {
	case http.StatusConflict:
		return errors.WithMessage(model.ErrConflict, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.WithMessage(model.ErrValidation, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.WithMessage(model.ErrRoleNotAllowed, msg)
	case http.StatusNotFound:
		return errors.WithMessage(model.ErrRequestNotFound, msg)
	}
	return errors.Errorf("backend responded %d: %s", status, msg)
}
