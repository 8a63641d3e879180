package core

type NonSecretConf struct {
	DevMode            bool
	DisableStdoutLog   bool
	EnableFileLog      bool
	LogDir             string
	LogLevel           string
	LogRotationMaxDays int
	SettingPath        string
	DeviceSettingPath  string
	Workers            int
}

type Info struct {
	Conf    *NonSecretConf
	Version string
}

var CurrentInfo *Info

func SetInfo(c *Conf) {
	conf := &NonSecretConf{
		DevMode:            c.DevMode,
		DisableStdoutLog:   c.DisableStdoutLog,
		EnableFileLog:      c.EnableFileLog,
		LogDir:             c.LogDir,
		LogLevel:           c.LogLevel,
		LogRotationMaxDays: c.LogRotationMaxDays,
		SettingPath:        c.SettingPath,
		DeviceSettingPath:  c.DeviceSettingPath,
		Workers:            c.Workers,
	}

	CurrentInfo = &Info{
		Conf:    conf,
		Version: Version,
	}
}
