package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/common"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ExperimentSetting mirrors the experiment options. Nil layouts mean "use the default";
// an explicitly empty list is passed through and rejected by the experiment package.
type ExperimentSetting struct {
	NumQubits               int      `toml:"num_qubits" yaml:"num_qubits"`
	InitialLayout           []int    `toml:"initial_layout" yaml:"initial_layout"`
	InitialLayoutWithBuffer []int    `toml:"initial_layout_with_buffer" yaml:"initial_layout_with_buffer"`
	InitialState            int      `toml:"initial_state" yaml:"initial_state"`
	DDSequenceType          int      `toml:"dd_sequence_type" yaml:"dd_sequence_type"`
	Shots                   int      `toml:"shots" yaml:"shots"`
	Variants                []string `toml:"variants" yaml:"variants"`
	Metric                  string   `toml:"metric" yaml:"metric"`
}

type GatewaySetting struct {
	Host           string `toml:"host" yaml:"host"`
	Port           string `toml:"port" yaml:"port"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds"`
}

type SimulatorSetting struct {
	Seed    uint64 `toml:"seed" yaml:"seed"`
	Workers int    `toml:"workers" yaml:"workers"`
}

type RouterSetting struct {
	Host string `toml:"host" yaml:"host"`
	Port string `toml:"port" yaml:"port"`
}

type FidelityLogSetting struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	FileDir string `toml:"file_dir" yaml:"file_dir"`
}

type Setting struct {
	Backend     string             `toml:"backend" yaml:"backend"`
	Experiment  ExperimentSetting  `toml:"experiment" yaml:"experiment"`
	Gateway     GatewaySetting     `toml:"gateway" yaml:"gateway"`
	Simulator   SimulatorSetting   `toml:"simulator" yaml:"simulator"`
	Router      RouterSetting      `toml:"router" yaml:"router"`
	FidelityLog FidelityLogSetting `toml:"fidelity_log" yaml:"fidelity_log"`
}

func NewGatewaySetting() GatewaySetting {
	return GatewaySetting{
		Host:           "localhost",
		Port:           "50061",
		TimeoutSeconds: 600,
	}
}

func NewRouterSetting() RouterSetting {
	return RouterSetting{
		Host: "0.0.0.0",
		Port: "50061",
	}
}

// NewSetting returns the setting used when no file overrides a value.
func NewSetting() *Setting {
	return &Setting{
		Backend: "simulator",
		Experiment: ExperimentSetting{
			Variants: []string{"all"},
		},
		Gateway: NewGatewaySetting(),
		Simulator: SimulatorSetting{
			Seed:    1,
			Workers: 4,
		},
		Router: NewRouterSetting(),
		FidelityLog: FidelityLogSetting{
			Enabled: false,
			FileDir: "./shares/logs",
		},
	}
}

// ParseSettingFromPath reads a setting file, choosing the decoder by file extension.
func ParseSettingFromPath(settingPath string) (*Setting, error) {
	blob, err := common.ReadSettingsFile(settingPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to read setting file/reason:%s", err))
		return nil, err
	}
	s := NewSetting()
	switch ext := strings.ToLower(filepath.Ext(settingPath)); ext {
	case ".yaml", ".yml":
		err = s.parseYAML(blob)
	case ".toml", "":
		err = s.parseTOML(blob)
	default:
		err = errors.Errorf("unsupported setting file extension %q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", settingPath)
	}
	return s, nil
}

func (s *Setting) parseTOML(tomlString string) error {
	if _, err := toml.Decode(tomlString, s); err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse toml setting/reason:%s", err))
		return err
	}
	zap.L().Debug(fmt.Sprintf("Setting is %+v", *s))
	return nil
}

func (s *Setting) parseYAML(yamlString string) error {
	if err := yaml.Unmarshal([]byte(yamlString), s); err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse yaml setting/reason:%s", err))
		return err
	}
	zap.L().Debug(fmt.Sprintf("Setting is %+v", *s))
	return nil
}
