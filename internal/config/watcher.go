package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Watcher 配置文件监听器
// 阈值预警比例、限流等运行参数支持热更新,无须重启服务
type Watcher struct {
	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)
	stopped   bool

	viper  *viper.Viper
	logger *logrus.Logger
}

// NewWatcher 创建配置监听器
func NewWatcher(cfg *Config, configPath string, logger *logrus.Logger) *Watcher {
	v := viper.New()
	v.SetConfigFile(configPath)

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Watcher{
		current: cfg,
		viper:   v,
		logger:  logger,
	}
}

// OnChange 注册配置变更回调
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Start 启动监听
func (w *Watcher) Start() error {
	if err := w.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	w.viper.OnConfigChange(func(e fsnotify.Event) {
		w.reload(e.Name)
	})
	w.viper.WatchConfig()
	return nil
}

func (w *Watcher) reload(source string) {
	w.mu.RLock()
	stopped := w.stopped
	w.mu.RUnlock()
	if stopped {
		return
	}

	cfg := Default()
	if err := w.viper.Unmarshal(cfg); err != nil {
		w.logger.WithError(err).WithField("file", source).Warn("config reload failed, keeping previous config")
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.WithField("file", source).Info("config reloaded")

	// 回调在锁外执行,避免回调内读取配置时死锁
	for _, callback := range callbacks {
		callback(cfg)
	}
}

// Stop 停止下发变更,已注册的 fsnotify 监听随进程退出
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
}

// Current 获取当前配置
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}
