// Package logging builds the process logger.
package logging

import (
	"fmt"
	"os"

	"github.com/parisxmas/OxiEnroll/internal/gelf"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "oxienroll"

// New returns a JSON logger at level writing to stderr. When gelfAddr is
// set, every entry is also shipped to Graylog; a GELF failure is logged and
// otherwise ignored.
func New(level, gelfAddr string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encoder := zapcore.NewJSONEncoder(encCfg)
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), lvl)

	var gelfErr error
	if gelfAddr != "" {
		w, err := gelf.New(gelfAddr, serviceName)
		if err != nil {
			gelfErr = err
		} else {
			core = zapcore.NewTee(core, zapcore.NewCore(encoder.Clone(), zapcore.AddSync(w), lvl))
		}
	}

	log := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("service", serviceName))
	if gelfErr != nil {
		log.Warn("GELF init failed", zap.String("addr", gelfAddr), zap.Error(gelfErr))
	} else if gelfAddr != "" {
		log.Info("GELF logging enabled", zap.String("addr", gelfAddr))
	}
	return log, nil
}
