package modules

import (
	"github.com/Sokol111/student-housing/pkg/http"
	"go.uber.org/fx"
)

func NewHTTPModule(svc Service) fx.Option {
	return http.NewHTTPModule(http.WithServiceLabel(svc.Label))
}
