package qpu

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"
	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/common"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const defaultDeviceSettingAsset = "default_device_setting.toml"

type GateSetting struct {
	Name string `toml:"name"`
	// Qargs restricts the entry to one operand tuple. Empty means every tuple.
	Qargs    []int   `toml:"qargs"`
	Duration float64 `toml:"duration"`
	Error    float64 `toml:"error"`
}

// DeviceSetting is the file form of a backend target.
type DeviceSetting struct {
	DeviceName   string         `toml:"device_name"`
	ProviderName string         `toml:"provider_name"`
	NumQubits    int            `toml:"num_qubits"`
	Dt           float64        `toml:"dt"`
	Granularity  int            `toml:"granularity"`
	MaxShots     int            `toml:"max_shots"`
	BasisGates   []string       `toml:"basis_gates"`
	Gates        []*GateSetting `toml:"gates"`
}

// LoadDeviceSetting decodes the device file at path. A missing file falls back to the
// bundled fake device.
func LoadDeviceSetting(path string) (*DeviceSetting, error) {
	blob, err := common.ReadFile(path)
	if err != nil {
		zap.L().Info(fmt.Sprintf("Failed to read file:%s Reason:%s. Using the bundled device", path, err))
		return DefaultDeviceSetting()
	}
	return decodeDeviceSetting(blob)
}

func DefaultDeviceSetting() (*DeviceSetting, error) {
	blob, err := common.GetAsset(defaultDeviceSettingAsset)
	if err != nil {
		return nil, errors.Wrap(err, "bundled device setting")
	}
	return decodeDeviceSetting(blob)
}

func decodeDeviceSetting(blob string) (*DeviceSetting, error) {
	ds := &DeviceSetting{Granularity: backend.DefaultGranularity}
	if _, err := toml.Decode(blob, ds); err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode blob:%s", blob))
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (ds *DeviceSetting) Validate() (err error) {
	if ds.NumQubits <= 0 {
		err = multierr.Append(err, errors.Errorf("num_qubits must be positive, got %d", ds.NumQubits))
	}
	if ds.Dt <= 0 {
		err = multierr.Append(err, errors.Errorf("dt must be positive, got %g", ds.Dt))
	}
	if ds.Granularity <= 0 {
		err = multierr.Append(err, errors.Errorf("granularity must be positive, got %d", ds.Granularity))
	}
	if ds.MaxShots <= 0 {
		err = multierr.Append(err, errors.Errorf("max_shots must be positive, got %d", ds.MaxShots))
	}
	declared := map[string]bool{}
	for _, g := range ds.Gates {
		declared[g.Name] = true
	}
	for _, b := range ds.BasisGates {
		if !declared[b] {
			err = multierr.Append(err, errors.Errorf("basis gate %s has no [[gates]] entry", b))
		}
	}
	if !declared["measure"] {
		err = multierr.Append(err, errors.New("measure has no [[gates]] entry"))
	}
	return err
}

// ToTarget builds the backend target. Gates outside basis_gates are ignored except for
// measure.
func (ds *DeviceSetting) ToTarget() (*backend.Target, error) {
	t := backend.NewTarget(ds.NumQubits, ds.Dt)
	t.Granularity = ds.Granularity
	allowed := map[string]bool{"measure": true}
	for _, b := range ds.BasisGates {
		allowed[b] = true
	}
	grouped := map[string]map[string]*backend.InstructionProperties{}
	order := []string{}
	for _, g := range ds.Gates {
		if !allowed[g.Name] {
			zap.L().Debug(fmt.Sprintf("%s is not a basis gate of %s; skipped", g.Name, ds.DeviceName))
			continue
		}
		if _, ok := grouped[g.Name]; !ok {
			grouped[g.Name] = map[string]*backend.InstructionProperties{}
			order = append(order, g.Name)
		}
		var qargs []int
		if len(g.Qargs) > 0 {
			qargs = g.Qargs
		}
		grouped[g.Name][backend.QargsKey(qargs)] = &backend.InstructionProperties{
			Duration: g.Duration,
			Error:    g.Error,
		}
	}
	for _, name := range order {
		if err := t.AddInstruction(name, grouped[name]); err != nil {
			return nil, err
		}
	}
	return t, nil
}
