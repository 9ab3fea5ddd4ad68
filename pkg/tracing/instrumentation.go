package tracing

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Redis span attributes
const (
	RedisCommandKey = attribute.Key("redis.command")
	RedisKeyKey     = attribute.Key("redis.key")
)

// Directions span attributes
const (
	TravelModeKey        = attribute.Key("directions.travel_mode")
	WaypointCountKey     = attribute.Key("directions.waypoint_count")
	RouteCountKey        = attribute.Key("directions.route_count")
	OptimizeWaypointsKey = attribute.Key("directions.optimize_waypoints")
	CacheHitKey          = attribute.Key("directions.cache_hit")
	SessionIDKey         = attribute.Key("session.id")
	OriginLatitudeKey    = attribute.Key("origin.latitude")
	OriginLongitudeKey   = attribute.Key("origin.longitude")
)

// TraceRedisCommand wraps a Redis command in a client span. A miss
// (redis.Nil) is not an error.
func TraceRedisCommand(ctx context.Context, tracerName, command, key string, fn func(ctx context.Context) error) error {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", "redis"),
		RedisCommandKey.String(command),
		RedisKeyKey.String(key),
	}
	return traceClientCall(ctx, tracerName, "redis."+command, attrs, fn, func(err error) bool {
		return errors.Is(err, redis.Nil)
	})
}

// TraceExternalAPI wraps a call to another service in a client span named
// "<service>.<operation>".
func TraceExternalAPI(ctx context.Context, tracerName, serviceName, operation string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	attrs = append([]attribute.KeyValue{
		attribute.String("external.service", serviceName),
		attribute.String("external.operation", operation),
	}, attrs...)
	return traceClientCall(ctx, tracerName, fmt.Sprintf("%s.%s", serviceName, operation), attrs, fn, nil)
}

func traceClientCall(ctx context.Context, tracerName, spanName string, attrs []attribute.KeyValue, fn func(context.Context) error, benign func(error) bool) error {
	ctx, span := StartSpan(ctx, tracerName, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	err := fn(ctx)
	if err != nil && (benign == nil || !benign(err)) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return err
}

// RouteRequestAttributes describes an outgoing route computation.
func RouteRequestAttributes(mode string, waypoints int, optimize bool, originLat, originLng float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		TravelModeKey.String(mode),
		WaypointCountKey.Int(waypoints),
		OptimizeWaypointsKey.Bool(optimize),
		OriginLatitudeKey.Float64(originLat),
		OriginLongitudeKey.Float64(originLng),
	}
}
