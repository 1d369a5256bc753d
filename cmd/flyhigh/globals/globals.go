package globals

import (
	"context"
	"time"

	"flyhigh/internal/components/chrono"
	"flyhigh/internal/components/telemetry"
	"flyhigh/internal/config"
)

type keyType struct{}

var key keyType

// Value is everything the root command sets up for its subcommands.
type Value struct {
	Config   config.Config
	Location *time.Location
	Clock    chrono.API
	Tel      telemetry.API
}

func Set(ctx context.Context, value *Value) context.Context {
	return context.WithValue(ctx, key, value)
}

func Get(ctx context.Context) *Value {
	return ctx.Value(key).(*Value)
}
