package pkg

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

var Logger = logrus.New()

// SetupLogger 生产环境输出 JSON，开发环境输出文本并打开 debug
func SetupLogger(env string) {
	Logger.SetOutput(os.Stdout)
	switch env {
	case "production":
		Logger.SetFormatter(&logrus.JSONFormatter{})
		Logger.SetLevel(logrus.InfoLevel)
	case "development":
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		Logger.SetLevel(logrus.DebugLevel)
	default:
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		Logger.SetLevel(logrus.InfoLevel)
	}
}

// Log 返回带 trace_id/span_id 的日志入口
func Log(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(Logger)
	if ctx == nil {
		return entry
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		entry = entry.WithFields(logrus.Fields{
			"trace_id": sc.TraceID().String(),
			"span_id":  sc.SpanID().String(),
		})
	}
	return entry.WithContext(ctx)
}
