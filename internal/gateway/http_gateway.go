package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/domain"
	"github.com/spec-kit/support-bot/internal/observability"
	"github.com/spec-kit/support-bot/pkg/errorutil"
)

// HTTPGateway talks to the messaging gateway's REST API. One instance is
// safe for concurrent use.
type HTTPGateway struct {
	baseURL string
	token   string
	cl      *http.Client
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewHTTPGateway builds a gateway client from configuration.
func NewHTTPGateway(cfg config.GatewayConfig, metrics *observability.Metrics, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: cfg.BaseURL,
		token:   cfg.APIToken,
		cl: &http.Client{
			Timeout: cfg.RequestTimeout(),
			Transport: &http.Transport{
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
		metrics: metrics,
		logger:  logger,
	}
}

type sendTextRequest struct {
	Channel int64    `json:"channel"`
	Text    string   `json:"text"`
	Actions []Action `json:"actions,omitempty"`
}

type sendMediaRequest struct {
	Channel    int64             `json:"channel"`
	Attachment domain.Attachment `json:"attachment"`
	Caption    string            `json:"caption,omitempty"`
}

type editMessageRequest struct {
	Channel   int64    `json:"channel"`
	MessageID int64    `json:"message_id"`
	Text      string   `json:"text"`
	Actions   []Action `json:"actions,omitempty"`
}

type messageResponse struct {
	Channel   int64 `json:"channel"`
	MessageID int64 `json:"message_id"`
}

// SendText posts a text message with optional actions.
func (g *HTTPGateway) SendText(ctx context.Context, channel int64, text string, actions ...Action) (domain.MessageRef, error) {
	resp, err := g.invoke(ctx, "send_text", http.MethodPost, "/messages/text", sendTextRequest{
		Channel: channel,
		Text:    text,
		Actions: actions,
	})
	if err != nil {
		return domain.MessageRef{}, err
	}
	return domain.MessageRef{Channel: resp.Channel, MessageID: resp.MessageID}, nil
}

// SendMedia posts a single attachment with an optional caption.
func (g *HTTPGateway) SendMedia(ctx context.Context, channel int64, attachment domain.Attachment, caption string) (domain.MessageRef, error) {
	resp, err := g.invoke(ctx, "send_media", http.MethodPost, "/messages/media", sendMediaRequest{
		Channel:    channel,
		Attachment: attachment,
		Caption:    caption,
	})
	if err != nil {
		return domain.MessageRef{}, err
	}
	return domain.MessageRef{Channel: resp.Channel, MessageID: resp.MessageID}, nil
}

// EditMessage replaces the text and actions of a previously sent message.
func (g *HTTPGateway) EditMessage(ctx context.Context, channel int64, ref domain.MessageRef, text string, actions ...Action) error {
	_, err := g.invoke(ctx, "edit_message", http.MethodPut, "/messages/edit", editMessageRequest{
		Channel:   channel,
		MessageID: ref.MessageID,
		Text:      text,
		Actions:   actions,
	})
	return err
}

func (g *HTTPGateway) invoke(ctx context.Context, op, method, path string, payload any) (*messageResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.cl.Do(req)
	if err != nil {
		g.metrics.RecordSend(op, true)
		return nil, errorutil.NewDeliveryFailure(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		g.metrics.RecordSend(op, true)
		return nil, errorutil.NewDeliveryFailure(err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		g.metrics.RecordSend(op, true)
		g.logger.Warn("gateway call rejected",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return nil, errorutil.NewDeliveryFailure(fmt.Errorf("gateway %s: status %d", op, resp.StatusCode))
	}

	g.metrics.RecordSend(op, false)

	var parsed messageResponse
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, errorutil.NewDeliveryFailure(fmt.Errorf("gateway %s: decode response: %w", op, err))
		}
	}
	return &parsed, nil
}
