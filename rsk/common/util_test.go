package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadYaml(t *testing.T) {
	tmpfile := filepath.Join(t.TempDir(), "test_config.yaml")
	content := []byte("key: value\nlist:\n  - item1\n  - item2")
	if err := os.WriteFile(tmpfile, content, 0644); err != nil {
		t.Fatal(err)
	}

	type Config struct {
		Key  string   `yaml:"key"`
		List []string `yaml:"list"`
	}

	var cfg Config
	if err := LoadYaml(tmpfile, &cfg); err != nil {
		t.Fatalf("LoadYaml failed: %v", err)
	}

	if cfg.Key != "value" {
		t.Errorf("Expected key 'value', got '%s'", cfg.Key)
	}
	if len(cfg.List) != 2 || cfg.List[0] != "item1" {
		t.Errorf("Expected list [item1, item2], got %v", cfg.List)
	}
}

func TestLoadYaml_Errors(t *testing.T) {
	var cfg interface{}
	if err := LoadYaml("missing_file.yaml", &cfg); err == nil {
		t.Error("Expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad_config.yaml")
	os.WriteFile(bad, []byte("invalid: [ yaml"), 0644)
	if err := LoadYaml(bad, &cfg); err == nil {
		t.Error("Expected error for invalid yaml")
	}
}

func TestYamlObjectAsString(t *testing.T) {
	data := map[string]string{"foo": "bar"}
	str := YamlObjectAsString(data, "Test Label")
	if !strings.Contains(str, "=== Test Label ===") {
		t.Error("Expected label in output")
	}
	if !strings.Contains(str, "foo: bar") {
		t.Error("Expected data in output")
	}
}

func TestTitleCaser(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ZAP", "Zap"},
		{"beep", "Beep"},
		{"collar one", "Collar One"},
	}
	for _, tt := range tests {
		if got := TitleCaser(tt.input); got != tt.want {
			t.Errorf("TitleCaser(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	receivers := filepath.Join(dir, "receivers.yaml")
	os.WriteFile(receivers, []byte(`
- name: Collar
  color: "#ff8080"
  power: 10
  duration: 500
  durationIncrement: 250
`), 0644)
	configFile := filepath.Join(dir, "config.yaml")
	os.WriteFile(configFile, []byte(`
AppName: "TestApp"
Mapping: "2 5- 1 4- * 4+ 3 5+ 0"
Remote:
  BaseURL: "http://device"
  Token: "fromfile"
ReceiversFile: "`+receivers+`"
`), 0644)

	os.Setenv("REMOSHOCK_TOKEN", "fromenv")
	defer os.Unsetenv("REMOSHOCK_TOKEN")

	log := NewLog()
	config, err := LoadConfig(configFile, log)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.AppName != "TestApp" {
		t.Errorf("Wrong AppName %s", config.AppName)
	}
	if config.MaxButtons != DefaultMaxButtons {
		t.Errorf("Expected default MaxButtons, got %d", config.MaxButtons)
	}
	if config.Gamepad.Source != SourceBrowser {
		t.Errorf("Expected browser source, got %s", config.Gamepad.Source)
	}
	if config.Remote.Token != "fromenv" {
		t.Errorf("Expected token from environment, got %s", config.Remote.Token)
	}
	if len(config.Receivers) != 1 || config.Receivers[0].Name != "Collar" ||
		config.Receivers[0].DurationIncrement != 250 {
		t.Errorf("Unexpected receivers %+v", config.Receivers)
	}
	if config.Ruleset.MaxButtons < config.Ruleset.MinButtons {
		t.Error("Ruleset button range not normalised")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("missing.yaml", NewLog()); err == nil {
		t.Error("Expected error for missing config")
	}
}

func TestLoadConfig_MissingReceivers(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(configFile, []byte(`ReceiversFile: "nope.yaml"`), 0644)
	log := NewLog()
	config, err := LoadConfig(configFile, log)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(config.Receivers) != 0 {
		t.Error("Expected no receivers")
	}
	if len(log.Entries) == 0 || !log.Entries[0].IsError {
		t.Error("Expected an error to be logged")
	}
}

func TestLoadConfig_NegativeValues(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(configFile, []byte(`
MaxButtons: -1
MaxLogEntries: -5
Gamepad:
  PollInterval: -2
Ruleset:
  MinButtons: -3
  MaxButtons: -4
Overlay:
  SlotSize: -10
`), 0644)

	config, err := LoadConfig(configFile, NewLog())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	tests := []struct {
		name     string
		got      int
		expected int
	}{
		{"MaxButtons", config.MaxButtons, DefaultMaxButtons},
		{"MaxLogEntries", config.MaxLogEntries, 500},
		{"PollInterval", config.Gamepad.PollInterval, 5},
		{"Ruleset.MinButtons", config.Ruleset.MinButtons, 1},
		{"Ruleset.MaxButtons", config.Ruleset.MaxButtons, 1},
		{"SlotSize", config.Overlay.SlotSize, 64},
	}
	for _, test := range tests {
		if test.got != test.expected {
			t.Errorf("%s: expected %d, got %d", test.name, test.expected, test.got)
		}
	}
}
