package retry

import (
	"context"
	"fmt"
	"time"
)

// Config параметры повторов с экспоненциальной задержкой
type Config struct {
	MaxAttempts   int           // Всего попыток, включая первую
	InitialDelay  time.Duration // Задержка перед первым повтором
	MaxDelay      time.Duration // Верхняя граница задержки
	BackoffFactor float64       // Множитель задержки
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// Func операция, которую можно повторить; attempt начинается с 1
type Func func(ctx context.Context, attempt int) error

// Do выполняет fn, повторяя её, пока isRetryable(err) == true и не исчерпаны попытки
// Невосстановимые ошибки возвращаются сразу без повторов
func Do(ctx context.Context, cfg Config, isRetryable func(error) bool, fn Func) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 1
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry: context done after %d attempts: %w", attempt-1, lastErr)
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * cfg.BackoffFactor)
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if isRetryable == nil || !isRetryable(err) {
			return err
		}
	}

	return fmt.Errorf("retry: operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
