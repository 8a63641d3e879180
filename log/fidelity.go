// Package log writes the fidelity record of each run as JSON lines into daily files.
package log

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oqtopus-team/ddbench/common"
	"github.com/oqtopus-team/ddbench/core"
	"go.uber.org/zap"
)

const fidelityLogPrefix = "fidelity"

type FidelityLogger struct {
	dl     *dailyLogger
	logger *slog.Logger
}

// NewFidelityLogger returns nil without error when the log is disabled.
func NewFidelityLogger(s core.FidelityLogSetting) (*FidelityLogger, error) {
	if !s.Enabled {
		zap.L().Debug("fidelity log is disabled")
		return nil, nil
	}
	if err := common.IsDirWritable(s.FileDir); err != nil {
		return nil, fmt.Errorf("failed to write to %s: %w", s.FileDir, err)
	}
	dl := newDailyLogger(s.FileDir, fidelityLogPrefix)
	return &FidelityLogger{
		dl:     dl,
		logger: slog.New(slog.NewJSONHandler(dl, nil)),
	}, nil
}

// Record is one scored circuit of a run.
type Record struct {
	RunID      string
	Variant    string
	SweepIndex int
	SlotsUs    float64
	Fidelity   float64
}

func (f *FidelityLogger) Log(r Record) {
	if f == nil {
		return
	}
	f.logger.Info(
		"Fidelity",
		slog.String("run_id", r.RunID),
		slog.String("variant", r.Variant),
		slog.Int("sweep_index", r.SweepIndex),
		slog.Float64("slots_us", r.SlotsUs),
		slog.Float64("fidelity", r.Fidelity),
	)
}

func (f *FidelityLogger) Close() {
	if f == nil {
		return
	}
	if err := f.dl.Close(); err != nil {
		zap.L().Error("failed to close the fidelity log", zap.Error(err))
	}
}

type dailyLogger struct {
	mu              sync.Mutex
	fileDir         string
	prefix          string
	currentFileName string
	file            *os.File
	now             func() time.Time
}

func newDailyLogger(fileDir, prefix string) *dailyLogger {
	return &dailyLogger{
		fileDir: fileDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (dl *dailyLogger) Write(p []byte) (n int, err error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	fileName := fmt.Sprintf("%s-%s.log", dl.prefix, dl.now().Format("2006-01-02"))
	if dl.file == nil || dl.currentFileName != fileName {
		if dl.file != nil {
			dl.file.Close()
		}
		var err error
		dl.file, err = os.OpenFile(filepath.Join(dl.fileDir, fileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return 0, err
		}
		dl.currentFileName = fileName
	}

	return dl.file.Write(p)
}

func (dl *dailyLogger) Close() error {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.file != nil {
		err := dl.file.Close()
		dl.file = nil
		return err
	}
	return nil
}
