package middleware

import (
	"errors"
	"net/http"

	"github.com/Sokol111/student-housing/pkg/http/problems"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// problemMiddleware renders the first collected error as problem+json when the
// handler did not write a response itself.
func problemMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		first := c.Errors[0]

		var problem *problems.Problem
		if !errors.As(first.Err, &problem) {
			status := c.Writer.Status()
			if status < http.StatusBadRequest {
				status = http.StatusInternalServerError
			}
			problem = problems.New(status, first.Error())
		}

		if problem.Status == 0 {
			problem.Status = http.StatusInternalServerError
			problem.Title = http.StatusText(problem.Status)
		}

		problems.Write(c, problem)
	}
}

func ProblemModule(priority int) fx.Option {
	return asMiddleware(func() Middleware {
		return Middleware{Priority: priority, Handler: problemMiddleware()}
	})
}
