package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/medivet/vetcare-api/internal/config"
)

const sendTimeout = 15 * time.Second

// TwilioGateway sends WhatsApp content-template messages through the Twilio
// REST API. With incomplete credentials it is constructed in unconfigured
// state and every Send reports ErrNotConfigured without touching the network.
type TwilioGateway struct {
	client     *twilio.RestClient
	from       string
	templateID string
}

func NewTwilioGateway(cfg config.TwilioConfig) *TwilioGateway {
	g := &TwilioGateway{
		from:       cfg.FromNumber,
		templateID: cfg.TemplateID,
	}
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" || cfg.TemplateID == "" {
		return g
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	client.SetTimeout(sendTimeout)
	g.client = client
	return g
}

// Configured reports whether the gateway has a full credential set.
func (g *TwilioGateway) Configured() bool { return g.client != nil }

func (g *TwilioGateway) Send(_ context.Context, to string, variables map[string]string) error {
	if g.client == nil {
		return ErrNotConfigured
	}

	vars, err := json.Marshal(variables)
	if err != nil {
		return fmt.Errorf("failed to encode template variables: %w", err)
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetFrom("whatsapp:" + g.from)
	params.SetTo("whatsapp:" + to)
	params.SetContentSid(g.templateID)
	params.SetContentVariables(string(vars))

	if _, err := g.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send failed: %w", err)
	}
	return nil
}
