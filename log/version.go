package log

import (
	"github.com/oqtopus-team/ddbench/core"
	"go.uber.org/zap"
)

func LogVersion() {
	zap.L().Info("ddbench version:" + core.Version)
}
