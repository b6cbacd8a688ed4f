package middleware

import (
	"runtime/debug"

	"github.com/Sokol111/student-housing/pkg/core/logger"
	"github.com/Sokol111/student-housing/pkg/http/problems"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				fields := append(requestFields(c),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				logger.FromContext(c).Error("panic recovered", fields...)
				problems.Write(c, problems.Internal("internal server error"))
			}
		}()
		c.Next()
	}
}

func RecoveryModule(priority int) fx.Option {
	return asMiddleware(func() Middleware {
		return Middleware{Priority: priority, Handler: recoveryMiddleware()}
	})
}
