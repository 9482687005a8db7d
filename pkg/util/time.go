package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a duration string, accepting a "d" day suffix and bare
// numbers as seconds on top of time.ParseDuration syntax
// ParseDuration 解析时间间隔字符串，支持 d（天）后缀，纯数字按秒处理
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	if _, err := strconv.Atoi(s); err == nil {
		s += "s"
	}
	return time.ParseDuration(s)
}

// ParseDurationOr returns the parsed duration, or def when s is empty or invalid
// ParseDurationOr 解析失败或为空时返回默认值
func ParseDurationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
