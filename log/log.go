// Package log wraps astaxie/beego/logs the way the teacher's log
// package does: a module allow-list gates every call so unrelated
// components stay quiet, and Init wires the adapter/level from
// configuration instead of a hardcoded path.
package log

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/astaxie/beego/logs"
)

var enabledModules []string

type fileConfig struct {
	Filename string `json:"filename"`
	Level    int    `json:"level,omitempty"`
	Rotate   bool   `json:"rotate,omitempty"`
	Daily    bool   `json:"daily,omitempty"`
	MaxDays  int64  `json:"maxdays,omitempty"`
}

func validLevel(strLevel string) (int, bool) {
	switch strings.ToLower(strLevel) {
	case "emergency":
		return logs.LevelEmergency, true
	case "alert":
		return logs.LevelAlert, true
	case "critical":
		return logs.LevelCritical, true
	case "error":
		return logs.LevelError, true
	case "warn":
		return logs.LevelWarn, true
	case "info":
		return logs.LevelInfo, true
	case "debug":
		return logs.LevelDebug, true
	case "notice":
		return logs.LevelNotice, true
	default:
		return 0, false
	}
}

// Init sets up the file adapter at logDir/assembler.log and records
// which modules ("mining", "mempool", "staking", ...) Print should
// actually emit.
func Init(logDir, strLevel string, modules []string) error {
	level, ok := validLevel(strLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", strLevel)
	}
	enabledModules = modules
	cfg, err := json.Marshal(fileConfig{
		Filename: logDir + "/assembler.log",
		Level:    level,
		Rotate:   true,
		Daily:    true,
	})
	if err != nil {
		return err
	}
	logs.SetLogger(logs.AdapterFile, string(cfg))
	return nil
}

func IsIncludeModule(module string) bool {
	for _, m := range enabledModules {
		if m == module {
			return true
		}
	}
	return false
}

// Print emits a formatted line under module at level, mirroring the
// teacher's category-gated Print — most call sites use it instead of
// calling logs.* directly so silencing a module never requires
// touching call sites.
func Print(module, level, format string, args ...interface{}) {
	if !IsIncludeModule(module) {
		return
	}
	switch level {
	case "emergency":
		logs.Emergency(format, args...)
	case "alert":
		logs.Alert(format, args...)
	case "critical":
		logs.Critical(format, args...)
	case "error":
		logs.Error(format, args...)
	case "warn":
		logs.Warn(format, args...)
	case "info":
		logs.Info(format, args...)
	case "debug":
		logs.Debug(format, args...)
	case "notice":
		logs.Notice(format, args...)
	}
}
