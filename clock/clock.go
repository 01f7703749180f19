package clock

import (
	"fmt"

	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
)

// Clock 控制循环时钟
// 功能：管理评估循环的时间推进与步数统计
// 说明：维护自进程启动以来的控制时间轴，供心跳日志与评估步长使用
type Clock struct {
	DT float64 // 每个评估步的时间间隔（秒）

	T            float64 // 当前控制时间（秒）
	InternalStep int64   // 当前步数
}

// New 根据配置创建新的时钟实例
// 功能：根据节拍配置初始化时钟信息
// 参数：stepConfig-节拍配置，包含评估间隔
// 返回：初始化完成的时钟实例
func New(stepConfig config.ControlStep) *Clock {
	c := &Clock{
		DT: stepConfig.Interval,
	}
	c.Init()
	return c
}

// Init 初始化时钟状态
// 功能：重置步数与当前时间
func (c *Clock) Init() {
	c.InternalStep = 0
	c.T = 0
}

// Tick 推进一个评估步
// 功能：步数加一并重新计算当前时间
func (c *Clock) Tick() {
	c.InternalStep++
	c.T = float64(c.InternalStep) * c.DT
}

// String 获取时钟的字符串表示
// 功能：将当前时间格式化为可读的字符串
// 返回：格式化的时间字符串（HH:MM:SS）
func (c *Clock) String() string {
	t := c.T
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// GetHourMinuteSecond 获取当前时间的小时、分钟、秒
// 功能：将当前时间分解为小时、分钟、秒三个部分
// 返回：小时、分钟、秒（秒为浮点数，支持亚秒级精度）
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	hour := int(c.T) / 3600
	minute := int(c.T) % 3600 / 60
	second := c.T - float64(hour*3600+minute*60)
	return hour, minute, second
}
