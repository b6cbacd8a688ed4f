// Package internal holds what the tracing and metrics providers share.
package internal

import (
	"context"

	appconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// ServiceNamespace groups the auth, housing, booking and notification services.
const ServiceNamespace = "student-housing"

// instanceID tells replicas of one service apart; it is fixed for the process.
var instanceID = uuid.NewString()

// NewResource describes the running service to exporters. OTEL_RESOURCE_ATTRIBUTES
// is applied first so the service identity below always wins.
func NewResource(ctx context.Context, appCfg appconfig.AppConfig) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNamespaceKey.String(ServiceNamespace),
			semconv.ServiceNameKey.String(appCfg.ServiceName),
			semconv.ServiceVersionKey.String(appCfg.ServiceVersion),
			semconv.ServiceInstanceIDKey.String(instanceID),
			semconv.DeploymentEnvironmentNameKey.String(string(appCfg.Environment)),
		),
	)
}
