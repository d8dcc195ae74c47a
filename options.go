package cmm

import (
	"log/slog"

	"cmm/types"
)

// Option 引擎配置项
type Option func(*Model)

// WithLogger 设置日志
func WithLogger(log *slog.Logger) Option {
	return func(m *Model) { m.log = log }
}

// WithObserver 添加事件监听
func WithObserver(o types.Observer) Option {
	return func(m *Model) { m.observer = append(m.observer, o) }
}
