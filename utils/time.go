package utils

import (
	"fmt"
	"time"
)

// DateLayout 日历日期格式，库里按字符串存储
const DateLayout = "2006-01-02"

// DateKey 取 t 所在时区的日历日期
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate 解析 YYYY-MM-DD，结果为 loc 时区当天零点
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return d, nil
}

// DaysBetween 返回 b - a 相差的日历天数，与时区和夏令时无关
func DaysBetween(a, b string) (int, error) {
	da, err := ParseDate(a, time.UTC)
	if err != nil {
		return 0, err
	}
	db, err := ParseDate(b, time.UTC)
	if err != nil {
		return 0, err
	}
	return int(db.Sub(da).Hours() / 24), nil
}

// InclusiveDays [start, end] 包含的天数
func InclusiveDays(start, end string) (int, error) {
	n, err := DaysBetween(start, end)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// ParseClock 解析 HH:MM 并应用到 date 所在的日期和时区
func ParseClock(clock string, date time.Time) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return date, err
	}

	return time.Date(
		date.Year(),
		date.Month(),
		date.Day(),
		parsed.Hour(),
		parsed.Minute(),
		0,
		0,
		date.Location(),
	), nil
}
