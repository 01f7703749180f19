package config

// ControlStep 指定控制器评估节拍的配置项
// 功能：定义评估循环的时间间隔
// 说明：控制器的所有状态变更都发生在固定节拍的评估步中
type ControlStep struct {
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Control 控制器全局控制配置
// 功能：定义控制循环的核心控制参数
// 说明：包含任务名、节拍配置与决策策略选择
type Control struct {
	Job    string      `yaml:"job,omitempty"`    // 路口名，用于日志与决策记录中的intersection_id
	Step   ControlStep `yaml:"step"`             // 评估节拍
	Policy string      `yaml:"policy,omitempty"` // 决策策略（可选项：actuated qlearn），默认actuated
}

// Controller 感应式信控配置
// 功能：定义相位控制状态机的全部时间参数与策略开关
// 说明：时间单位均为秒；priority_*仅在priority_switch开启时生效
type Controller struct {
	MinGreen         float64 `yaml:"min_green"`          // 最小绿灯时间
	MaxGreen         float64 `yaml:"max_green"`          // 最大绿灯时间（强制切换）
	Yellow           float64 `yaml:"yellow"`             // 黄灯时间
	AllRed           float64 `yaml:"all_red"`            // 全红清空时间
	GapSeconds       float64 `yaml:"gap_seconds"`        // gap-out阈值（queue_clear关闭时生效）
	QueueClear       *bool   `yaml:"queue_clear,omitempty"`     // 清空排队模式开关，缺省开启
	PrioritySwitch   *bool   `yaml:"priority_switch,omitempty"` // 优先抢占开关，缺省开启
	PriorityFactor   float64 `yaml:"priority_factor"`    // 抢占触发倍数：对向排队 >= factor * max(1, 当前排队)
	PriorityMinQueue int     `yaml:"priority_min_queue"` // 抢占触发的对向排队下限
	AllRedHoldMax    float64 `yaml:"all_red_hold_max"`   // 全红阶段等待路口清空的最大额外时间
}

// QueueClearEnabled 清空排队模式是否开启
// 说明：指针字段区分"未配置"与"显式关闭"，未配置时视为开启
func (c Controller) QueueClearEnabled() bool {
	return c.QueueClear == nil || *c.QueueClear
}

// PrioritySwitchEnabled 优先抢占是否开启
// 说明：未配置时视为开启
func (c Controller) PrioritySwitchEnabled() bool {
	return c.PrioritySwitch == nil || *c.PrioritySwitch
}

// QLearn 表格型强化学习策略配置
// 功能：定义离散化分箱与训练超参数
type QLearn struct {
	Alpha   float64   `yaml:"alpha"`             // 学习率
	Gamma   float64   `yaml:"gamma"`             // 折扣因子
	Epsilon float64   `yaml:"epsilon,omitempty"` // ε-greedy探索概率，0为纯argmax
	Bins    []float64 `yaml:"bins,omitempty"`    // 排队总数分箱边界（最高箱开放）
}

// Storage 持久化配置
// 功能：定义控制器状态、Q表与决策记录的存储位置
// 说明：决策记录支持CSV文件与MongoDB两种后端，文件优先级高于MongoDB
type Storage struct {
	StateFile    string  `yaml:"state_file"`              // 控制器状态JSON文件
	QTableFile   string  `yaml:"qtable_file"`             // Q表JSON文件
	LogFile      string  `yaml:"log_file"`                // 决策记录CSV文件
	SaveInterval float64 `yaml:"save_interval,omitempty"` // 状态落盘间隔（秒），0为仅在退出时落盘
	URI          string  `yaml:"uri,omitempty"`           // MongoDB连接字符串（可选）
	DB           string  `yaml:"db,omitempty"`            // 数据库名
	Col          string  `yaml:"col,omitempty"`           // 集合名
}

// Server HTTP服务配置
// 功能：定义HTTP/WebSocket对外接口的监听地址与跨域设置
type Server struct {
	Listen       string   `yaml:"listen"`                  // 监听地址
	AllowOrigins []string `yaml:"allow_origins,omitempty"` // 允许的跨域来源，默认为["*"]
}

// Config YAML配置文件的根结构
// 功能：定义整个信控系统的配置结构
type Config struct {
	Control    Control    `yaml:"control"`    // 控制循环
	Controller Controller `yaml:"controller"` // 感应式信控参数
	QLearn     QLearn     `yaml:"qlearn"`     // 学习策略参数
	Storage    Storage    `yaml:"storage"`    // 持久化
	Server     Server     `yaml:"server"`     // 对外接口
}
