package common

import (
	"os"
)

// Config contains all the configuration data for the app
type Config struct {
	AppName       string `yaml:"AppName"`
	Version       string `yaml:"Version"`
	DebugOutput   bool   `yaml:"DebugOutput"`
	MaxLogEntries int    `yaml:"MaxLogEntries"`

	// Mapping binds the on-screen buttons ↖⬆↗⬅🔄➡↙⬇↘YXBA to gamepad inputs
	Mapping    string `yaml:"Mapping"`
	MaxButtons int    `yaml:"MaxButtons"`

	Gamepad GamepadData `yaml:"Gamepad"`
	Remote  RemoteData  `yaml:"Remote"`
	Ruleset RulesetData `yaml:"Ruleset"`
	Overlay OverlayData `yaml:"Overlay"`

	ReceiversFile string `yaml:"ReceiversFile"`
	Receivers     []Receiver
}

// GamepadData selects where gamepad state comes from
type GamepadData struct {
	Source       string `yaml:"Source"` // SourceBrowser or SourceEvdev
	Device       string `yaml:"Device"` // evdev device node
	PollInterval int    `yaml:"PollInterval"`
}

const (
	// SourceBrowser - snapshots are posted by the overlay page
	SourceBrowser = "browser"
	// SourceEvdev - snapshots are read from a local evdev device
	SourceEvdev = "evdev"
)

// RemoteData describes the remote device that receives commands
type RemoteData struct {
	BaseURL string `yaml:"BaseURL"`
	Token   string `yaml:"Token"`
	Timeout int    `yaml:"Timeout"` // milliseconds
}

// RulesetData contains the settings of the stay ruleset. Times in milliseconds.
type RulesetData struct {
	ChangeInterval int `yaml:"ChangeInterval"`
	MinButtons     int `yaml:"MinButtons"`
	MaxButtons     int `yaml:"MaxButtons"`
	Cooldown       int `yaml:"Cooldown"`

	ReceiverIndex int `yaml:"ReceiverIndex"`
	BeepDuration  int `yaml:"BeepDuration"`
	PauseDuration int `yaml:"PauseDuration"`
	ZapLevel      int `yaml:"ZapLevel"`
	ZapDuration   int `yaml:"ZapDuration"`
}

// OverlayData contains the settings for the rendered overlay snapshot
type OverlayData struct {
	SlotSize         int      `yaml:"SlotSize"`
	Padding          int      `yaml:"Padding"`
	FontSize         float64  `yaml:"FontSize"`
	JpgQuality       int      `yaml:"JpgQuality"`
	BackgroundColour string   `yaml:"BackgroundColour"`
	SlotColour       string   `yaml:"SlotColour"`
	PressedColour    string   `yaml:"PressedColour"`
	DesiredColour    string   `yaml:"DesiredColour"`
	TextColour       string   `yaml:"TextColour"`
	StatusColours    Colours3 `yaml:"StatusColours"`
}

// Colours3 holds one colour per compliance status
type Colours3 struct {
	Compliant string `yaml:"Compliant"`
	Pending   string `yaml:"Pending"`
	Violated  string `yaml:"Violated"`
}

// Receiver is a remote receiver as shown on the remote control panel
type Receiver struct {
	Name              string `yaml:"name" json:"name"`
	Color             string `yaml:"color" json:"color"`
	Power             int    `yaml:"power" json:"power"`
	Duration          int    `yaml:"duration" json:"duration"`
	DurationIncrement int    `yaml:"durationIncrement" json:"durationIncrement"`
}

// DefaultMaxButtons is the number of on-screen gamepad slots
const DefaultMaxButtons = 13

// LoadConfig loads the app configuration, fills in defaults and applies
// environment overrides
func LoadConfig(filename string, log *Logger) (*Config, error) {
	var config *Config
	if err := LoadYaml(filename, &config); err != nil {
		return nil, err
	}
	if config == nil {
		config = new(Config)
	}
	config.applyDefaults()

	if token := os.Getenv("REMOSHOCK_TOKEN"); len(token) > 0 {
		config.Remote.Token = token
	}
	if len(config.ReceiversFile) > 0 {
		if err := LoadYaml(config.ReceiversFile, &config.Receivers); err != nil {
			log.Err("Unable to load receivers %s", err)
		}
	}
	if config.DebugOutput {
		log.Dbg("%s", YamlObjectAsString(config, "Config"))
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.MaxButtons <= 0 {
		c.MaxButtons = DefaultMaxButtons
	}
	if c.MaxLogEntries <= 0 {
		c.MaxLogEntries = 500
	}
	if len(c.Gamepad.Source) == 0 {
		c.Gamepad.Source = SourceBrowser
	}
	if c.Gamepad.PollInterval <= 0 {
		c.Gamepad.PollInterval = 5
	}
	if c.Remote.Timeout <= 0 {
		c.Remote.Timeout = 5000
	}
	r := &c.Ruleset
	if r.ChangeInterval <= 0 {
		r.ChangeInterval = 10000
	}
	if r.MinButtons <= 0 {
		r.MinButtons = 1
	}
	if r.MaxButtons < r.MinButtons {
		r.MaxButtons = r.MinButtons
	}
	o := &c.Overlay
	if o.SlotSize <= 0 {
		o.SlotSize = 64
	}
	if o.FontSize <= 0 {
		o.FontSize = 20
	}
	if o.JpgQuality <= 0 {
		o.JpgQuality = 85
	}
	if len(o.BackgroundColour) == 0 {
		o.BackgroundColour = "#202020"
	}
	if len(o.SlotColour) == 0 {
		o.SlotColour = "#505050"
	}
	if len(o.PressedColour) == 0 {
		o.PressedColour = "#3080FF"
	}
	if len(o.DesiredColour) == 0 {
		o.DesiredColour = "#FFD000"
	}
	if len(o.TextColour) == 0 {
		o.TextColour = "#FFFFFF"
	}
	if len(o.StatusColours.Compliant) == 0 {
		o.StatusColours = Colours3{Compliant: "#30A030", Pending: "#E09000", Violated: "#D02020"}
	}
}
