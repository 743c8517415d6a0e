package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ankurkotwal/remoshock/rsk/common"
)

var (
	// ErrUnknownAction - the device does not support the action
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidCommand - power or duration out of range
	ErrInvalidCommand = errors.New("invalid command")
	// ErrBadStatus - the device answered with a non 2xx status
	ErrBadStatus = errors.New("unexpected status")
)

// Action is what a receiver is asked to do
type Action string

const (
	// LED flashes the receiver light
	LED Action = "LED"
	// Beep sounds the receiver
	Beep Action = "BEEP"
	// Vibrate vibrates the receiver
	Vibrate Action = "VIBRATE"
	// Zap triggers the receiver
	Zap Action = "ZAP"
)

// Actions lists the supported actions in panel order
var Actions = []Action{LED, Beep, Vibrate, Zap}

// ParseAction accepts actions in any case, e.g. the "zap" button class
func ParseAction(name string) (Action, error) {
	action := Action(strings.ToUpper(strings.TrimSpace(name)))
	for _, a := range Actions {
		if a == action {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownAction, name)
}

// Label returns the action name for buttons, e.g. "Zap"
func (a Action) Label() string {
	return common.TitleCaser(string(a))
}

// Command is a single timed request to a receiver. Duration in milliseconds.
type Command struct {
	Receiver int    `json:"receiver"`
	Action   Action `json:"action"`
	Power    int    `json:"power"`
	Duration int    `json:"duration"`
}

// Validate checks the command before it is sent
func (c Command) Validate() error {
	if _, err := ParseAction(string(c.Action)); err != nil {
		return err
	}
	if c.Receiver < 0 {
		return fmt.Errorf("%w: receiver %d", ErrInvalidCommand, c.Receiver)
	}
	if c.Power < 0 || c.Power > 100 {
		return fmt.Errorf("%w: power %d not within 0-100", ErrInvalidCommand, c.Power)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration %d", ErrInvalidCommand, c.Duration)
	}
	return nil
}

// Client talks to the remote device
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *common.Logger
}

// NewClient creates a client for the configured device
func NewClient(cfg *common.RemoteData, log *common.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Millisecond},
		log:     log,
	}
}

// Command sends a command to the device
func (c *Client) Command(ctx context.Context, cmd Command) error {
	action, err := ParseAction(string(cmd.Action))
	if err != nil {
		return err
	}
	cmd.Action = action
	if err = cmd.Validate(); err != nil {
		return err
	}

	query := url.Values{}
	query.Set("token", c.token)
	query.Set("receiver", strconv.Itoa(cmd.Receiver))
	query.Set("action", string(cmd.Action))
	query.Set("power", strconv.Itoa(cmd.Power))
	query.Set("duration", strconv.Itoa(cmd.Duration))

	resp, err := c.get(ctx, "/pyshock/command?"+query.Encode())
	if err != nil {
		return err
	}
	resp.Body.Close()
	if c.log != nil {
		c.log.Msg("Command %s receiver %d power %d duration %d", cmd.Action,
			cmd.Receiver, cmd.Power, cmd.Duration)
	}
	return nil
}

// Receivers fetches the receiver list published by the device
func (c *Client) Receivers(ctx context.Context) ([]common.Receiver, error) {
	resp, err := c.get(ctx, "/pyshock/config.json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var receivers []common.Receiver
	if err = json.NewDecoder(resp.Body).Decode(&receivers); err != nil {
		return nil, fmt.Errorf("decode receivers: %w", err)
	}
	return receivers, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w %d from %s", ErrBadStatus, resp.StatusCode, req.URL.Path)
	}
	return resp, nil
}

// Punishment is a beep as warning followed by a zap. Times in milliseconds.
type Punishment struct {
	Receiver     int
	BeepDuration int
	Pause        int
	ZapLevel     int
	ZapDuration  int
}

// PunishmentFromConfig builds the punishment configured for the ruleset
func PunishmentFromConfig(cfg *common.RulesetData) Punishment {
	return Punishment{
		Receiver:     cfg.ReceiverIndex,
		BeepDuration: cfg.BeepDuration,
		Pause:        cfg.PauseDuration,
		ZapLevel:     cfg.ZapLevel,
		ZapDuration:  cfg.ZapDuration,
	}
}

// Trigger beeps, waits and zaps
func (c *Client) Trigger(ctx context.Context, p Punishment) error {
	err := c.Command(ctx, Command{Receiver: p.Receiver, Action: Beep,
		Duration: p.BeepDuration})
	if err != nil {
		return fmt.Errorf("beep: %w", err)
	}

	select {
	case <-time.After(time.Duration(p.Pause) * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}

	err = c.Command(ctx, Command{Receiver: p.Receiver, Action: Zap,
		Power: p.ZapLevel, Duration: p.ZapDuration})
	if err != nil {
		return fmt.Errorf("zap: %w", err)
	}
	return nil
}

// Punisher binds a punishment to the client for the ruleset
type Punisher struct {
	Client     *Client
	Punishment Punishment
}

// Punish runs the configured punishment
func (p *Punisher) Punish(ctx context.Context) error {
	return p.Client.Trigger(ctx, p.Punishment)
}
