package core

type Conf struct {
	Version            string `long:"version" description:"version of ddbench" env:"DDBENCH_VERSION"`
	DevMode            bool   `long:"dev-mode" description:"run in dev mode" env:"DDBENCH_DEV_MODE"`
	DisableStdoutLog   bool   `long:"disable-stdout-log" description:"do not log in standard output" env:"DDBENCH_DISABLE_STDOUT_LOG"`
	EnableFileLog      bool   `long:"enable-file-log" description:"enable log in file" env:"DDBENCH_ENABLE_FILE_LOG"`
	LogDir             string `long:"log-dir" description:"rotating log file dir" default:"./shares/logs" env:"DDBENCH_LOG_DIR"`
	LogLevel           string `long:"log-level" description:"log level" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" env:"DDBENCH_LOG_LEVEL"`
	LogRotationMaxDays int    `long:"log-rotation-max-days" description:"max days of log rotation" default:"7" env:"DDBENCH_LOG_ROTATION_MAX_DAYS"`
	SettingPath        string `long:"setting-path" description:"setting file path (.toml, .yaml or .yml)" default:"./setting/setting.toml" env:"DDBENCH_SETTING_PATH"`
	DeviceSettingPath  string `long:"device-setting-path" description:"device setting file path" default:"./setting/device_setting.toml" env:"DDBENCH_DEVICE_SETTING_PATH"`
	Workers            int    `long:"workers" description:"number of simulator workers" default:"4" env:"DDBENCH_WORKERS"`
	ReportPath         string `long:"report-path" description:"write the experiment report to this file instead of stdout" env:"DDBENCH_REPORT_PATH"`
}
