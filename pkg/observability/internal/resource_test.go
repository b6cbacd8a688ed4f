package internal

import (
	"testing"

	appconfig "github.com/Sokol111/student-housing/pkg/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

func TestNewResource(t *testing.T) {
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "service.name=overridden,team=housing")

	res, err := NewResource(t.Context(), appconfig.AppConfig{
		ServiceName:    "notification-service",
		ServiceVersion: "0.3.0",
		Environment:    appconfig.EnvDevelopment,
	})
	require.NoError(t, err)

	attrs := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "notification-service", attrs[semconv.ServiceNameKey])
	assert.Equal(t, ServiceNamespace, attrs[semconv.ServiceNamespaceKey])
	assert.Equal(t, "0.3.0", attrs[semconv.ServiceVersionKey])
	assert.Equal(t, string(appconfig.EnvDevelopment), attrs[semconv.DeploymentEnvironmentNameKey])
	assert.Equal(t, instanceID, attrs[semconv.ServiceInstanceIDKey])
	assert.Equal(t, "housing", attrs["team"])
}
