package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oklog/run"
	"github.com/oqtopus-team/ddbench/common"
	"github.com/oqtopus-team/ddbench/experiment"
	"github.com/oqtopus-team/ddbench/log"
	"go.uber.org/zap"
)

type runCmd struct {
	Variants   []string `long:"variant" description:"variant family to build, repeatable (all, no_attack, no_attack_dd, attack, attack_dd, attack_spacing, attack_dd_spacing)"`
	SeriesPath string   `long:"series-path" description:"write the fidelity series as JSON to this file"`
	QASMDir    string   `long:"qasm-dir" description:"write the submitted circuits as OpenQASM 3 files into this directory"`
}

func newRunCmd() *runCmd {
	return &runCmd{}
}

func (c *runCmd) Execute(args []string) error {
	logger := setZap(ddbench.Conf)
	defer logger.Sync()

	comps, err := setupComponents(ddbench.Conf)
	if err != nil {
		return err
	}
	defer comps.TearDown()

	cfg, err := experiment.ConfigFromSetting(comps.setting.Experiment)
	if err != nil {
		return err
	}
	labels := comps.setting.Experiment.Variants
	if len(c.Variants) > 0 {
		labels = c.Variants
	}
	specs, err := experiment.ParseVariantSpecs(labels)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		return fmt.Errorf("no variants selected")
	}
	e, err := experiment.New(comps.adapter, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var g run.Group
	g.Add(func() error {
		return runExperiment(ctx, e, specs, comps.fidelity)
	}, func(error) {
		cancel()
	})
	addSignalHandler(ctx, &g)
	if err := g.Run(); err != nil {
		zap.L().Error(fmt.Sprintf("experiment %s stopped. Reason:%s", e.ID(), err))
		return err
	}

	if c.QASMDir != "" {
		if err := dumpQASM(c.QASMDir, e); err != nil {
			return err
		}
	}
	report := e.Report()
	if err := writeOutput(ddbench.Conf.ReportPath, []byte(report.JSON())); err != nil {
		return err
	}
	if c.SeriesPath != "" {
		if err := writeOutput(c.SeriesPath, report.SeriesJSON()); err != nil {
			return err
		}
	}
	zap.L().Info(fmt.Sprintf("experiment %s finished in %s", e.ID(), report.Duration()))
	return nil
}

func runExperiment(ctx context.Context, e *experiment.Experiment, specs []experiment.VariantSpec, fl *log.FidelityLogger) error {
	for _, s := range specs {
		if err := e.AddVariants(ctx, s); err != nil {
			return err
		}
	}
	if err := e.RunAllCircuits(ctx); err != nil {
		return err
	}
	fidelities, err := e.CalculateFidelityOfDataQubits(ctx)
	if err != nil {
		return err
	}
	for i, v := range e.Variants() {
		fl.Log(log.Record{
			RunID:      e.ID(),
			Variant:    v.Spec.Label(),
			SweepIndex: v.SweepIndex,
			SlotsUs:    v.Slots,
			Fidelity:   fidelities[i],
		})
	}
	return nil
}

func dumpQASM(dir string, e *experiment.Experiment) error {
	if err := common.IsDirWritable(dir); err != nil {
		return err
	}
	for _, v := range e.Variants() {
		path := filepath.Join(dir, fmt.Sprintf("%03d_%s.qasm", v.Index, v.Name()))
		if err := os.WriteFile(path, []byte(v.Final.ToQASM3()), 0644); err != nil {
			return err
		}
	}
	zap.L().Info(fmt.Sprintf("wrote %d circuits to %s", len(e.Variants()), dir))
	return nil
}

// writeOutput writes to path, or to stdout when path is empty.
func writeOutput(path string, b []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(os.Stdout, string(b))
		return err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		zap.L().Error(fmt.Sprintf("failed to write %s/reason:%s", path, err))
		return err
	}
	zap.L().Info(fmt.Sprintf("wrote %s", path))
	return nil
}
