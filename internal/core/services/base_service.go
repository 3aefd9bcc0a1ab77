package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/middleware"
)

// Clock returns the current time. Services take it as a dependency so tests can pin time.
type Clock func() time.Time

// utcNow is the production clock.
func utcNow() time.Time {
	return time.Now().UTC()
}

// BaseService provides common functionality for all services
type BaseService struct {
	now Clock
}

// Now returns the service clock's current time.
func (s *BaseService) Now() time.Time {
	if s.now == nil {
		return utcNow()
	}
	return s.now()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}
