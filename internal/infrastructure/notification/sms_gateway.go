package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	appbilling "github.com/invoicedesk/backend/internal/application/billing"
	"github.com/invoicedesk/backend/internal/infrastructure/config"
)

// SMSGateway delivers reminder messages through an HTTP SMS provider. It
// implements the application layer's Dispatcher port.
type SMSGateway struct {
	cfg        *config.SMSConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSMSGateway creates a new SMS gateway adapter
func NewSMSGateway(cfg *config.SMSConfig, logger *zap.Logger) *SMSGateway {
	return &SMSGateway{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
		logger: logger,
	}
}

type smsRequest struct {
	To        string `json:"to"`
	Message   string `json:"message"`
	SenderID  string `json:"sender_id"`
	Reference string `json:"reference"`
}

type smsResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// Send posts one message to the gateway. The correlation is forwarded as the
// provider reference so delivery reports can be traced back to the invoice.
func (g *SMSGateway) Send(ctx context.Context, destination, body string, correlation appbilling.DispatchCorrelation) error {
	payload := smsRequest{
		To:        destination,
		Message:   body,
		SenderID:  g.cfg.SenderID,
		Reference: fmt.Sprintf("%s:t%d", correlation.InvoiceID, correlation.Tier),
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sms: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.GatewayURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("sms: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("sms: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms: gateway returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result smsResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("sms: failed to parse response: %w", err)
	}
	if result.Error != "" {
		return fmt.Errorf("sms: gateway rejected message: %s", result.Error)
	}

	g.logger.Debug("sms dispatched",
		zap.String("destination", destination),
		zap.String("message_id", result.MessageID),
	)
	return nil
}

// Ensure SMSGateway implements the dispatcher port
var _ appbilling.Dispatcher = (*SMSGateway)(nil)
