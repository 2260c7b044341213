package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/pricing"

	"go.uber.org/zap"
)

const (
	paystackBaseURL = "https://api.paystack.co"
	// Paystack bills every supported currency in hundredths.
	providerDecimals = 2
)

type PaystackConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

type paystackGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.OrderMetrics
}

func NewPaystackGateway(cfg PaystackConfig, m *metrics.OrderMetrics) Gateway {
	if cfg.SecretKey == "" {
		logger.L().Warn("Paystack secret key is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = paystackBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &paystackGateway{
		secretKey:  cfg.SecretKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		metrics:    m,
	}
}

// ----------------- Initialize -----------------

func (p *paystackGateway) Initialize(ctx context.Context, in InitializeRequest) (*InitializeResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("reference", in.Reference),
		zap.Int64("amount", in.Amount),
		zap.String("currency", in.Currency.String()),
	)

	amount, err := ToSubunits(in.Amount, in.Currency)
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"reference": in.Reference,
		"email":     in.Email,
		"amount":    amount,
		"currency":  in.Currency.String(),
	}
	if in.CallbackURL != "" {
		body["callback_url"] = in.CallbackURL
	}
	if len(in.Metadata) > 0 {
		body["metadata"] = in.Metadata
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to marshal initialize request", zap.Error(err))
		return nil, err
	}

	log.Info("Initializing Paystack transaction")

	timer := metrics.StartTimer()
	data, err := p.do(ctx, http.MethodPost, "/transaction/initialize", jsonBody)
	timer.ObserveGateway(p.metrics, "initialize")
	if err != nil {
		log.Error("Paystack initialize failed", zap.Error(err))
		return nil, err
	}

	var res InitializeResponse
	if err := json.Unmarshal(data, &res); err != nil {
		log.Error("Failed decoding initialize response", zap.Error(err))
		return nil, err
	}
	if res.Reference == "" {
		res.Reference = in.Reference
	}

	return &res, nil
}

// ----------------- Verify -----------------

func (p *paystackGateway) Verify(ctx context.Context, reference string) (*Verification, error) {
	log := logger.FromCtx(ctx).With(zap.String("reference", reference))

	timer := metrics.StartTimer()
	data, err := p.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	timer.ObserveGateway(p.metrics, "verify")
	if err != nil {
		log.Error("Paystack verify failed", zap.Error(err))
		return nil, err
	}

	var tx paystackTransaction
	if err := json.Unmarshal(data, &tx); err != nil {
		log.Error("Failed decoding verify response", zap.Error(err))
		return nil, err
	}

	v, err := tx.toVerification()
	if err != nil {
		return nil, err
	}

	log.Info("Paystack transaction verified", zap.String("status", string(v.Status)))
	return v, nil
}

// ----------------- Verify Signature -----------------

// VerifySignature checks the x-paystack-signature header, an HMAC-SHA512 of
// the raw body keyed with the secret key.
func (p *paystackGateway) VerifySignature(body []byte, signature string) error {
	if p.secretKey == "" || signature == "" {
		return ErrInvalidSignature
	}

	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return ErrInvalidSignature
	}

	if !hmac.Equal(got, Sign(p.secretKey, body)) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign computes the raw HMAC-SHA512 digest Paystack sends with webhooks.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

func (p *paystackGateway) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read paystack response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTransactionNotFound
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var env paystackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("paystack error: %s", string(raw))
	}
	if resp.StatusCode != http.StatusOK || !env.Status {
		return nil, fmt.Errorf("paystack error: %s", env.Message)
	}

	return env.Data, nil
}

func (tx paystackTransaction) toVerification() (*Verification, error) {
	currency, err := pricing.ParseCurrency(tx.Currency)
	if err != nil {
		return nil, err
	}
	amount, err := FromSubunits(tx.Amount, currency)
	if err != nil {
		return nil, err
	}
	return &Verification{
		Reference:       tx.Reference,
		Status:          TransactionStatus(strings.ToLower(tx.Status)),
		Amount:          amount,
		Currency:        currency,
		PaidAt:          tx.PaidAt,
		GatewayResponse: tx.GatewayResponse,
	}, nil
}

// ToSubunits scales an internal amount to the provider's hundredths.
func ToSubunits(amount int64, c pricing.Currency) (int64, error) {
	info, err := pricing.LookupCurrency(c)
	if err != nil {
		return 0, err
	}
	for i := info.Decimals; i < providerDecimals; i++ {
		amount *= 10
	}
	return amount, nil
}

// FromSubunits is the inverse of ToSubunits; any fraction below the
// currency's own precision is truncated.
func FromSubunits(amount int64, c pricing.Currency) (int64, error) {
	info, err := pricing.LookupCurrency(c)
	if err != nil {
		return 0, err
	}
	for i := info.Decimals; i < providerDecimals; i++ {
		amount /= 10
	}
	return amount, nil
}

// ParseChargeEvent decodes the transaction carried by a charge.* webhook.
func ParseChargeEvent(ev PaystackEvent) (*Verification, error) {
	if !strings.HasPrefix(ev.Event, "charge.") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEventType, ev.Event)
	}
	var tx paystackTransaction
	if err := json.Unmarshal(ev.Data, &tx); err != nil {
		return nil, err
	}
	if ev.Event == "charge.failed" && tx.Status == "" {
		tx.Status = string(TransactionFailed)
	}
	return tx.toVerification()
}

// EventID builds a stable dedup key for a webhook delivery.
func EventID(ev PaystackEvent) string {
	var ids struct {
		ID        int64  `json:"id"`
		Reference string `json:"reference"`
	}
	_ = json.Unmarshal(ev.Data, &ids)
	if ids.ID != 0 {
		return fmt.Sprintf("%s:%d", ev.Event, ids.ID)
	}
	return ev.Event + ":" + ids.Reference
}
