package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/massn/envordot"
	"github.com/oklog/run"

	"github.com/oqtopus-team/ddbench/backend"
	"github.com/oqtopus-team/ddbench/core"
	"github.com/oqtopus-team/ddbench/log"
	"github.com/oqtopus-team/ddbench/qpu"
	"github.com/oqtopus-team/ddbench/scheduler"

	"go.uber.org/dig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	rotate "github.com/lestrrat-go/file-rotatelogs"
)

var versionByBuildFlag string
var parser *flags.Parser
var ddbench *Ddbench

func init() {
	if err := envordot.Load(false, ".env"); err != nil {
		fmt.Printf("Not found \".env\" file. Use only environment variables. Reason:%s\n", err.Error())
	} else {
		fmt.Println("Found \".env\" file. Environment variables are preferred, " +
			"but non-conflicting variables are those in the \".env\" file.")
	}
	ddbench = &Ddbench{}
	setParser(ddbench)
}

type Ddbench struct {
	DIContainerParameters *DIContainerParameters
	Conf                  *core.Conf
}

type DIContainerParameters struct {
	Backend string `long:"backend" description:"backend type, overrides the setting file" choice:"simulator" choice:"gateway" env:"DDBENCH_BACKEND"`
}

func setParser(d *Ddbench) {
	parser = flags.NewParser(d, flags.Default)
	parser.ShortDescription = "ddbench"
	parser.LongDescription = "measures how dynamical decoupling and qubit spacing protect a Grover search " +
		"from a crosstalk timing attack."
	parser.AddCommand("run", "run the experiment", "build, run and score the circuit variants", newRunCmd())
	parser.AddCommand("serve", "serve a backend", "expose the selected backend as a gRPC sampler service", newServeCmd())
}

func parse() {
	if _, err := parser.Parse(); err != nil {
		code := 1
		if fe, ok := err.(*flags.Error); ok {
			if fe.Type == flags.ErrHelp {
				code = 0
			}
		}
		if code == 1 {
			fmt.Printf("failed to parse flags, because %s\n", err)
		}
		os.Exit(code)
	}
}

// components holds what the DI container built, plus what must be released on exit.
type components struct {
	setting  *core.Setting
	adapter  *backend.Adapter
	backend  backend.Backend
	fidelity *log.FidelityLogger
	closers  []func()
}

func (c *components) TearDown() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func (d *Ddbench) provideDIContainer(s *core.Setting, comps *components) (c *dig.Container, err error) {
	c = dig.New()
	err = c.Provide(func() *core.Setting { return s })
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func() (*qpu.DeviceSetting, error) {
		return qpu.LoadDeviceSetting(d.Conf.DeviceSettingPath)
	})
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func(s *core.Setting) *scheduler.Pool {
		workers := d.Conf.Workers
		if s.Simulator.Workers > 0 {
			workers = s.Simulator.Workers
		}
		p := scheduler.NewPool(workers)
		comps.closers = append(comps.closers, p.TearDown)
		return p
	})
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func(s *core.Setting, ds *qpu.DeviceSetting, pool *scheduler.Pool) (backend.Backend, error) {
		kind := s.Backend
		if d.DIContainerParameters != nil && d.DIContainerParameters.Backend != "" {
			kind = d.DIContainerParameters.Backend
		}
		switch kind {
		case "simulator", "":
			return qpu.NewSimulator(ds, pool, s.Simulator.Seed)
		case "gateway":
			agent, err := qpu.NewGatewayAgent(s.Gateway)
			if err != nil {
				return nil, err
			}
			timeout := time.Duration(s.Gateway.TimeoutSeconds) * time.Second
			q := qpu.NewGatewayQPU(agent, timeout)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := q.Setup(ctx); err != nil {
				agent.Close()
				return nil, err
			}
			comps.closers = append(comps.closers, q.Close)
			return q, nil
		default:
			return nil, fmt.Errorf("%s is an unknown backend", kind)
		}
	})
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(backend.NewAdapter)
	if err != nil {
		return &dig.Container{}, err
	}
	err = c.Provide(func(s *core.Setting) (*log.FidelityLogger, error) {
		l, err := log.NewFidelityLogger(s.FidelityLog)
		if err != nil {
			return nil, err
		}
		comps.closers = append(comps.closers, l.Close)
		return l, nil
	})
	if err != nil {
		return &dig.Container{}, err
	}
	return
}

// setupComponents parses the setting file and resolves the backend. The caller must
// TearDown the result.
func setupComponents(conf *core.Conf) (*components, error) {
	core.SetVersion(conf, versionByBuildFlag)
	core.SetInfo(conf)
	log.LogVersion()

	s, err := core.ParseSettingFromPath(conf.SettingPath)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse settings/reason:%s", err))
		return nil, err
	}
	comps := &components{}
	zap.L().Debug(fmt.Sprintf("Providing DI Container with parameters %+v", ddbench.DIContainerParameters))
	container, err := ddbench.provideDIContainer(s, comps)
	if err != nil {
		zap.L().Error(fmt.Sprintf("Failed to setting up DI-Container. Reason:%s", err.Error()))
		return nil, err
	}
	err = container.Invoke(func(s *core.Setting, b backend.Backend, a *backend.Adapter, fl *log.FidelityLogger) {
		comps.setting = s
		comps.backend = b
		comps.adapter = a
		comps.fidelity = fl
	})
	if err != nil {
		comps.TearDown()
		zap.L().Error(fmt.Sprintf("Failed to set up the components. Reason:%s", err.Error()))
		return nil, err
	}
	zap.L().Info(fmt.Sprintf("using backend %s", comps.backend.Name()))
	return comps, nil
}

func zapLogger(conf *core.Conf) (*zap.Logger, error) {
	var encoder zapcore.Encoder
	if conf.DevMode {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		c := zap.NewProductionEncoderConfig()
		c.EncodeTime = zapcore.ISO8601TimeEncoder //Not use UnixTime
		c.TimeKey = "timestamp"
		encoder = zapcore.NewJSONEncoder(c)
	}
	var level zap.AtomicLevel
	switch conf.LogLevel {
	case "debug":
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cores := []zapcore.Core{}
	if conf.EnableFileLog {
		rotater, err := makeRotator(conf.LogDir, conf.LogRotationMaxDays)
		if err != nil {
			return &zap.Logger{}, err
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(rotater), level))
	}
	if !conf.DisableStdoutLog {
		// stdout may carry the report, so logs go to stderr
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func makeRotator(dirPath string, rotationMaxDays int) (*rotate.RotateLogs, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return &rotate.RotateLogs{}, fmt.Errorf("directory:%s is not found", dirPath)
	}
	if info.Mode().Perm()&(1<<uint(7)) == 0 {
		return &rotate.RotateLogs{}, fmt.Errorf("%s is not a writable directory", dirPath)
	}
	rotator, err := rotate.New(
		filepath.Join(dirPath, "ddbench-%Y-%m-%d.log"),
		rotate.WithMaxAge(time.Duration(rotationMaxDays)*24*time.Hour),
		rotate.WithRotationTime(time.Hour))
	if err != nil {
		return &rotate.RotateLogs{}, err
	}
	return rotator, nil
}

func setZap(conf *core.Conf) *zap.Logger {
	logger, err := zapLogger(conf)
	if err != nil {
		fmt.Printf("Failed to setup logger. Reason:%s\n", err)
		panic(err)
	}
	zap.ReplaceGlobals(logger)
	zap.L().Debug("Starting logger")
	zap.L().Debug(fmt.Sprintf("DevMode is %t", conf.DevMode))
	return logger
}

// addSignalHandler stops the run group on SIGINT or SIGTERM.
func addSignalHandler(ctx context.Context, g *run.Group) {
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
}

func main() {
	parse()
}
