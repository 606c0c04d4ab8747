package mpesa

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var msisdnPattern = regexp.MustCompile(`^(?:\+?254|0)(7|1)\d{8}$`)

// STKPushResponse mirrors the acknowledgement returned by Lipa na M-Pesa Online
type STKPushResponse struct {
	CheckoutRequestID string `json:"checkout_request_id"`
	ResponseCode      string `json:"response_code"`
	CustomerMessage   string `json:"customer_message"`
}

// Client simulates the M-Pesa STK push API. No network calls are made.
type Client struct {
	log *logrus.Logger
}

// NewClient initializes a new simulated M-Pesa client
func NewClient(log *logrus.Logger) *Client {
	return &Client{log: log}
}

// NormalizePhone converts a Kenyan MSISDN to the 2547XXXXXXXX form
func NormalizePhone(phone string) (string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	if !msisdnPattern.MatchString(p) {
		return "", fmt.Errorf("invalid phone number %q", phone)
	}
	p = strings.TrimPrefix(p, "+")
	if strings.HasPrefix(p, "0") {
		p = "254" + p[1:]
	}
	return p, nil
}

// InitiateSTKPush requests a payment prompt on the customer's phone
func (c *Client) InitiateSTKPush(ctx context.Context, phone string, amount decimal.Decimal) (*STKPushResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msisdn, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}

	c.log.WithFields(logrus.Fields{
		"phone":  msisdn,
		"amount": amount.StringFixed(2),
	}).Info("[M-PESA] Initiating STK push")

	return &STKPushResponse{
		CheckoutRequestID: "ws_CO_" + uuid.NewString(),
		ResponseCode:      "0",
		CustomerMessage:   "Success. Request accepted for processing",
	}, nil
}
