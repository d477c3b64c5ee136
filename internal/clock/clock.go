package clock

import "time"

// Clock 时间来源，便于测试注入
type Clock interface {
	Now() time.Time
}

// Real 系统时钟
type Real struct{}

// Now 当前时间
func (Real) Now() time.Time {
	return time.Now()
}

// OrReal 为空时返回系统时钟
func OrReal(c Clock) Clock {
	if c == nil {
		return Real{}
	}
	return c
}
