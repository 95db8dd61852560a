package middleware

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// unknownService is the default service name when detection fails
const unknownService = "unknown-service"

// detectServiceInfo resolves service name and namespace.
// Name priority: OTEL_SERVICE_NAME, configured fallback, Kubernetes pod name
// with the replicaset/pod hashes stripped ("callerid-75c98b4b9c-kdv2n" -> "callerid").
// Namespace priority: OTEL_RESOURCE_ATTRIBUTES service.namespace, mounted
// service account namespace, POD_NAMESPACE, "default".
func detectServiceInfo(fallback string) (serviceName, namespace string) {
	serviceName = os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" && fallback != "" && fallback != "unknown" {
		serviceName = fallback
	}
	if serviceName == "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName, _ = os.Hostname()
		}
		if parts := strings.Split(podName, "-"); len(parts) >= 3 {
			serviceName = strings.Join(parts[:len(parts)-2], "-")
		} else if podName != "" {
			serviceName = parts[0]
		}
	}
	if serviceName == "" {
		serviceName = unknownService
	}

	if attrs := os.Getenv("OTEL_RESOURCE_ATTRIBUTES"); attrs != "" {
		for _, attr := range strings.Split(attrs, ",") {
			kv := strings.SplitN(attr, "=", 2)
			if len(kv) == 2 && kv[0] == "service.namespace" {
				return serviceName, kv[1]
			}
		}
	}
	if data, err := os.ReadFile("/var/run/secrets/kubernetes.io/serviceaccount/namespace"); err == nil {
		return serviceName, strings.TrimSpace(string(data))
	}
	if ns := os.Getenv("POD_NAMESPACE"); ns != "" {
		return serviceName, ns
	}
	return serviceName, "default"
}

// CreateResource builds the OpenTelemetry resource shared by tracing and profiling.
// On detector failure err is set and a minimal name/namespace resource is returned.
//
// Usage:
//
//	res, _ := middleware.CreateResource(ctx, cfg.Service.Name)
//	name := middleware.GetServiceName(res)
func CreateResource(ctx context.Context, fallbackName string) (*resource.Resource, error) {
	serviceName, namespace := detectServiceInfo(fallbackName)

	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithContainer(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceNamespaceKey.String(namespace),
		),
	)
	if err != nil {
		return resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceNamespaceKey.String(namespace),
		), fmt.Errorf("resource detection partial failure (using fallback): %w", err)
	}
	return res, nil
}

// GetServiceName extracts service name from a resource
func GetServiceName(res *resource.Resource) string {
	for _, attr := range res.Attributes() {
		if attr.Key == semconv.ServiceNameKey {
			return attr.Value.AsString()
		}
	}
	return unknownService
}
