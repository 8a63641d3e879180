//go:build unit
// +build unit

package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAsset(t *testing.T) {
	blob, err := GetAsset("default_device_setting.toml")
	require.NoError(t, err)
	assert.Contains(t, blob, `device_name = "ddbench_falcon"`)

	_, err = GetAsset("no_such_file.toml")
	assert.Error(t, err)
}

func TestValidAddress(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		port    string
		want    string
		wantErr string
	}{
		{
			name: "valid",
			host: "sampler.local",
			port: "50061",
			want: "sampler.local:50061",
		},
		{
			name:    "wrong host",
			host:    "hogehoge^^^-server.com",
			port:    "23413",
			wantErr: "hogehoge^^^-server.com is an invalid host name",
		},
		{
			name:    "wrong port",
			host:    "hogehoge-server.com",
			port:    "-23413",
			wantErr: "-23413 is an invalid port number",
		},
		{
			name:    "port out of range",
			host:    "hogehoge-server.com",
			port:    "23413431243214",
			wantErr: "23413431243214 is not a port number within the allowed range",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidAddress(tt.host, tt.port)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				assert.Equal(t, "", got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsDirWritable(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, IsDirWritable(dir))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.EqualError(t, IsDirWritable(file), file+" is not a directory")
	assert.Error(t, IsDirWritable(filepath.Join(dir, "missing")))
}
