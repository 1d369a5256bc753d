package chrono

import (
	"errors"
	"testing"
	"time"

	"flyhigh/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStandardCron(t *testing.T) {
	tel := telemetry.NewRecorder()
	c := NewStandardCron(time.UTC, tel)

	require.Error(t, c.Cron("every now and then", func() {}))
	require.NoError(t, c.Cron("0 * * * *", func() {}))

	c.Start()
	c.Stop()
}

func TestCronLogger(t *testing.T) {
	tel := telemetry.NewRecorder()
	logger := cronLogger{tel: tel}

	logger.Info("wake", "now", "2019-08-01")
	logger.Error(errors.New("boom"), "panic", "entry", 1)

	debug := tel.Reports(telemetry.LevelDebug)
	require.Len(t, debug, 1)
	require.Equal(t, "cron: wake", debug[0].ID)
	require.Equal(t, []any{"now: 2019-08-01"}, debug[0].Params)

	require.True(t, tel.Has(telemetry.LevelBroken, "cron"))
}
