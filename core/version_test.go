//go:build unit
// +build unit

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetVersionPrefersTheBuildFlag(t *testing.T) {
	tests := []struct {
		name        string
		conf        *Conf
		buildFlag   string
		wantVersion string
	}{
		{name: "build flag only", conf: &Conf{}, buildFlag: "v0.3.0", wantVersion: "v0.3.0"},
		{name: "conf only", conf: &Conf{Version: "v0.2.1"}, wantVersion: "v0.2.1"},
		{name: "build flag wins over conf", conf: &Conf{Version: "v0.2.1"}, buildFlag: "v0.3.0", wantVersion: "v0.3.0"},
		{name: "neither", conf: &Conf{}, wantVersion: NoVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, logs := observer.New(zap.InfoLevel)
			t.Cleanup(zap.ReplaceGlobals(zap.New(obs)))

			SetVersion(tt.conf, tt.buildFlag)
			assert.Equal(t, tt.wantVersion, Version)
			require.Equal(t, 1, logs.Len())
			assert.Equal(t, "ddbench version is "+tt.wantVersion, logs.All()[0].Message)
		})
	}
}

func TestSetInfoCarriesVersionAndConf(t *testing.T) {
	conf := &Conf{
		Version:           "v0.2.1",
		LogLevel:          "debug",
		SettingPath:       "./setting/setting.toml",
		DeviceSettingPath: "./setting/device_setting.toml",
		Workers:           8,
		ReportPath:        "report.json",
	}
	SetVersion(conf, "")
	SetInfo(conf)
	require.NotNil(t, CurrentInfo)
	assert.Equal(t, "v0.2.1", CurrentInfo.Version)
	assert.Equal(t, "debug", CurrentInfo.Conf.LogLevel)
	assert.Equal(t, "./setting/device_setting.toml", CurrentInfo.Conf.DeviceSettingPath)
	assert.Equal(t, 8, CurrentInfo.Conf.Workers)
}
