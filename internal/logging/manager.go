package logging

import (
	"fmt"
	"sync"

	"malt-scraper/internal/config"
	"malt-scraper/internal/logging/adapters"
)

// Manager owns the process logger built from configuration
type Manager struct {
	factory *AdapterFactory
	logger  *MultiLogger
}

func NewManager() *Manager {
	return &Manager{
		factory: NewAdapterFactory(),
		logger:  NewMultiLogger(),
	}
}

// Initialize sets the level and registers every enabled adapter.
// With no adapters configured a single stdout adapter in cfg.Format is used.
func (m *Manager) Initialize(cfg config.LoggingConfig) error {
	m.logger.SetLevel(ParseLogLevel(cfg.Level))

	enabled := 0
	for _, adapterConfig := range cfg.Adapters {
		if !adapterConfig.Enabled {
			continue
		}

		adapter, err := m.factory.CreateAdapter(adapterConfig)
		if err != nil {
			return fmt.Errorf("failed to create adapter %s: %w", adapterConfig.Name, err)
		}
		if err := m.logger.AddAdapter(adapter); err != nil {
			return fmt.Errorf("failed to add adapter %s: %w", adapterConfig.Name, err)
		}
		enabled++
	}

	if enabled == 0 {
		return m.logger.AddAdapter(adapters.NewStdoutAdapter("stdout", adapters.StdoutConfig{Format: cfg.Format}))
	}
	return nil
}

func (m *Manager) GetLogger() *MultiLogger {
	return m.logger
}

func (m *Manager) Close() error {
	return m.logger.Close()
}

var (
	globalMu      sync.Mutex
	globalManager *Manager
)

// InitializeLogging replaces the global logger with one built from cfg
func InitializeLogging(cfg config.LoggingConfig) error {
	manager := NewManager()
	if err := manager.Initialize(cfg); err != nil {
		manager.Close()
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = manager
	return nil
}

// GetGlobalLogger returns the global logger, falling back to stdout JSON at info level
func GetGlobalLogger() Logger {
	return globalMultiLogger()
}

// GlobalAdapterHealth reports the health of the global logger's adapters
func GlobalAdapterHealth() map[string]error {
	return globalMultiLogger().AdapterHealth()
}

func globalMultiLogger() *MultiLogger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		manager := NewManager()
		manager.logger.AddAdapter(adapters.NewStdoutAdapter("fallback_stdout", adapters.StdoutConfig{Format: "json"}))
		globalManager = manager
	}
	return globalManager.GetLogger()
}

// CloseLogging closes the global logging system
func CloseLogging() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager != nil {
		return globalManager.Close()
	}
	return nil
}

// OrGlobal returns l, or the global logger when l is nil
func OrGlobal(l Logger) Logger {
	if l == nil {
		return GetGlobalLogger()
	}
	return l
}

func Debug(message string, fields ...map[string]interface{}) {
	GetGlobalLogger().Debug(message, fields...)
}

func Info(message string, fields ...map[string]interface{}) {
	GetGlobalLogger().Info(message, fields...)
}

func Warn(message string, fields ...map[string]interface{}) {
	GetGlobalLogger().Warn(message, fields...)
}

func Error(message string, fields ...map[string]interface{}) {
	GetGlobalLogger().Error(message, fields...)
}
