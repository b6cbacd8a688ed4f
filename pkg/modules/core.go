package modules

import (
	"github.com/Sokol111/student-housing/pkg/core"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type CoreOption = core.Option

// WithPort overrides the server port regardless of config and environment.
func WithPort(port int) CoreOption {
	return core.WithDefaults(func(v *viper.Viper) {
		v.Set("server.port", port)
	})
}

// NewCoreModule provides config, logging, readiness and workers, with the
// service's name and port as defaults.
func NewCoreModule(svc Service, opts ...CoreOption) fx.Option {
	base := []CoreOption{core.WithServiceName(svc.Name)}
	if svc.Port > 0 {
		base = append(base, core.WithDefaults(func(v *viper.Viper) {
			v.SetDefault("server.port", svc.Port)
		}))
	}
	return core.NewCoreModule(append(base, opts...)...)
}
