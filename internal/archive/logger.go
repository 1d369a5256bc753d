package archive

import (
	"fmt"
	"strings"

	"flyhigh/internal/components/telemetry"
)

const (
	report_decode = "decode"
	report_badger = "badger"
)

// badgerLogger forwards badger's own logging to telemetry, info is treated as
// debug output since badger is chatty about compactions.
type badgerLogger struct {
	tel telemetry.API
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.tel.ReportBroken(report_badger, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.tel.ReportWarning(report_badger, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.tel.ReportDebug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.tel.ReportDebug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
