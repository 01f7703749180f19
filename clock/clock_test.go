package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/signalet-oss/clock"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
)

func TestTick(t *testing.T) {
	c := clock.New(config.ControlStep{Interval: 0.5})
	assert.Equal(t, int64(0), c.InternalStep)
	assert.Equal(t, 0.0, c.T)

	c.Tick()
	c.Tick()
	c.Tick()
	assert.Equal(t, int64(3), c.InternalStep)
	assert.Equal(t, 1.5, c.T)
}

func TestString(t *testing.T) {
	c := clock.New(config.ControlStep{Interval: 1})
	for i := 0; i < 3661; i++ {
		c.Tick()
	}
	assert.Equal(t, "01:01:01", c.String())
}

func TestGetHourMinuteSecond(t *testing.T) {
	c := clock.New(config.ControlStep{Interval: 0.5})
	for i := 0; i < 7323; i++ { // 3661.5秒
		c.Tick()
	}
	h, m, s := c.GetHourMinuteSecond()
	assert.Equal(t, 1, h)
	assert.Equal(t, 1, m)
	assert.InDelta(t, 1.5, s, 1e-9)
}
