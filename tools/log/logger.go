// Package log 是 logrus 的薄封装，让各包统一通过本包记录日志，
// 避免到处直接依赖 logrus。
package log

import "github.com/sirupsen/logrus"

// 日志级别别名：只有大于或等于所设级别的消息才会被记录。
var (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
	FatalLevel = logrus.FatalLevel
)

// TextFormatter 是 logrus 文本格式化器的别名。
type TextFormatter = logrus.TextFormatter

// Level 是 logrus 日志级别的别名。
type Level = logrus.Level

// Fields 是 logrus 结构化字段的别名。
type Fields = logrus.Fields

// SetFormatter 设置日志输出格式，如 &log.TextFormatter{FullTimestamp: true}。
func SetFormatter(formatter logrus.Formatter) {
	logrus.SetFormatter(formatter)
}

// SetLevel 设置全局日志级别。
func SetLevel(level logrus.Level) {
	logrus.SetLevel(level)
}

// WithField 在日志记录上附加单个结构化字段。
func WithField(key string, value interface{}) *logrus.Entry {
	return logrus.WithField(key, value)
}

// WithFields 在日志记录上附加多个结构化字段。
func WithFields(fields logrus.Fields) *logrus.Entry {
	return logrus.WithFields(fields)
}

// CheckErr 在 err 不为 nil 时按指定级别记录它。
func CheckErr(level logrus.Level, err error) {
	if err == nil {
		return
	}
	switch level {
	case logrus.InfoLevel:
		logrus.Info(err)
	case logrus.WarnLevel:
		logrus.Warn(err)
	case logrus.ErrorLevel:
		logrus.Error(err)
	case logrus.FatalLevel:
		logrus.Fatal(err)
	default:
		logrus.Debug(err)
	}
}

// Info 记录信息日志。
func Info(messages ...interface{}) {
	logrus.Info(messages...)
}

// Infof 格式化并记录信息日志。
func Infof(format string, messages ...interface{}) {
	logrus.Infof(format, messages...)
}

// Warn 记录警告日志。
func Warn(messages ...interface{}) {
	logrus.Warn(messages...)
}

// Warnf 格式化并记录警告日志。
func Warnf(format string, messages ...interface{}) {
	logrus.Warnf(format, messages...)
}

// Error 记录错误日志。
func Error(messages ...interface{}) {
	logrus.Error(messages...)
}

// Errorf 格式化并记录错误日志。
func Errorf(format string, messages ...interface{}) {
	logrus.Errorf(format, messages...)
}

// Fatal 记录致命错误日志并退出进程。
func Fatal(messages ...interface{}) {
	logrus.Fatal(messages...)
}

// Debug 记录调试日志。
func Debug(messages ...interface{}) {
	logrus.Debug(messages...)
}

// Debugf 格式化并记录调试日志。
func Debugf(format string, messages ...interface{}) {
	logrus.Debugf(format, messages...)
}
