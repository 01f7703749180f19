package config

import "github.com/samber/lo"

const (
	// PolicyActuated 感应式状态机策略
	PolicyActuated = "actuated"
	// PolicyQLearn 表格型强化学习策略
	PolicyQLearn = "qlearn"
)

// RuntimeConfig 运行时配置
// 功能：存储控制器运行时的配置信息，补全缺省值后的有效配置
// 说明：将YAML配置转换为运行时可用的配置对象
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象，进行配置验证和缺省值填充
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
// 算法说明：
// 1. 填充控制循环缺省值：任务名main、节拍0.1秒、策略actuated
// 2. 填充信控缺省值：与原有部署保持一致的时间参数；清空排队与优先抢占
//    两个开关未配置时均为开启（显式false才关闭）
// 3. 填充学习策略缺省值：α=0.1、γ=0.9、分箱[0,5,15,30,50]
// 4. 填充持久化与服务缺省值
// 说明：确保配置的正确性和一致性，为控制循环提供有效配置
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{}

	if config.Control.Job == "" {
		config.Control.Job = "main"
	}
	if config.Control.Step.Interval <= 0 {
		config.Control.Step.Interval = 0.1
	}
	if config.Control.Policy == "" {
		config.Control.Policy = PolicyActuated
	}

	c := &config.Controller
	if c.MinGreen <= 0 {
		c.MinGreen = 10
	}
	if c.MaxGreen <= 0 {
		c.MaxGreen = 120
	}
	if c.Yellow <= 0 {
		c.Yellow = 3
	}
	if c.AllRed <= 0 {
		c.AllRed = 2
	}
	if c.GapSeconds <= 0 {
		c.GapSeconds = 2
	}
	if c.QueueClear == nil {
		c.QueueClear = lo.ToPtr(true)
	}
	if c.PrioritySwitch == nil {
		c.PrioritySwitch = lo.ToPtr(true)
	}
	if c.PriorityFactor <= 0 {
		c.PriorityFactor = 2
	}
	if c.PriorityMinQueue <= 0 {
		c.PriorityMinQueue = 6
	}
	if c.AllRedHoldMax <= 0 {
		c.AllRedHoldMax = 5
	}

	q := &config.QLearn
	if q.Alpha <= 0 {
		q.Alpha = 0.1
	}
	if q.Gamma <= 0 {
		q.Gamma = 0.9
	}
	if len(q.Bins) == 0 {
		q.Bins = []float64{0, 5, 15, 30, 50}
	}

	s := &config.Storage
	if s.StateFile == "" {
		s.StateFile = "traffic_state.json"
	}
	if s.QTableFile == "" {
		s.QTableFile = "q_table.json"
	}
	if s.LogFile == "" {
		s.LogFile = "traffic_log.csv"
	}
	if s.DB == "" {
		s.DB = "signalet"
	}
	if s.Col == "" {
		s.Col = "transitions"
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}
	if len(config.Server.AllowOrigins) == 0 {
		config.Server.AllowOrigins = []string{"*"}
	}

	rc.All = config
	rc.C = config.Control

	return rc
}
