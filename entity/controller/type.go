package controller

// 依赖倒置，表达控制器对决策策略实现的接口需求

// Approach 进口道方向
type Approach string

const (
	ApproachNorth Approach = "north"
	ApproachSouth Approach = "south"
	ApproachEast  Approach = "east"
	ApproachWest  Approach = "west"
)

// Approaches 全部进口道，遍历顺序固定
var Approaches = []Approach{ApproachNorth, ApproachSouth, ApproachEast, ApproachWest}

// PhaseGroup 相位组，同一绿灯服务的进口道集合
type PhaseGroup string

const (
	PhaseNS PhaseGroup = "NS" // 南北向
	PhaseEW PhaseGroup = "EW" // 东西向
)

// Opposite 获取对向相位组
func (p PhaseGroup) Opposite() PhaseGroup {
	if p == PhaseNS {
		return PhaseEW
	}
	return PhaseNS
}

// Valid 判断是否为合法相位组
func (p PhaseGroup) Valid() bool {
	return p == PhaseNS || p == PhaseEW
}

// Approaches 获取相位组包含的进口道
func (p PhaseGroup) Approaches() [2]Approach {
	if p == PhaseNS {
		return [2]Approach{ApproachNorth, ApproachSouth}
	}
	return [2]Approach{ApproachEast, ApproachWest}
}

// Stage 相位内的阶段，严格按GREEN→YELLOW→ALL_RED→GREEN循环
type Stage string

const (
	StageGreen  Stage = "GREEN"   // 放行
	StageYellow Stage = "YELLOW"  // 黄灯清空警告
	StageAllRed Stage = "ALL_RED" // 全红清空
)

// LightColor 灯色
type LightColor string

const (
	LightGreen  LightColor = "green"
	LightYellow LightColor = "yellow"
	LightRed    LightColor = "red"
)

// Action 绿灯阶段的决策动作
type Action int

const (
	ActionStay   Action = 0 // 保持当前相位
	ActionSwitch Action = 1 // 开始切换（进入黄灯）
)

// String 获取动作的记录用名称
func (a Action) String() string {
	if a == ActionSwitch {
		return "switch"
	}
	return "stay"
}

// DecisionInput 决策策略的输入
// 功能：绿灯阶段决策所需的全部状态投影
// 说明：仅在绿灯时间超过最小绿且未达最大绿时由控制器构造并传入策略
type DecisionInput struct {
	Phase            PhaseGroup // 当前放行相位组
	TimeInStage      float64    // 当前阶段已持续时间（秒）
	CurSum           int        // 当前相位组排队总数
	OppSum           int        // 对向相位组排队总数
	TimeSinceArrival float64    // 当前相位组最近一次到达以来的时间（秒）
}

// VerticalWaiting 获取南北向排队总数
func (in DecisionInput) VerticalWaiting() int {
	if in.Phase == PhaseNS {
		return in.CurSum
	}
	return in.OppSum
}

// HorizontalWaiting 获取东西向排队总数
func (in DecisionInput) HorizontalWaiting() int {
	if in.Phase == PhaseEW {
		return in.CurSum
	}
	return in.OppSum
}

// IDecisionPolicy 决策策略接口
// 说明：启动时选定一个实现装入控制器；最小绿门控与最大绿强制切换
// 由控制器负责，策略只回答"保持还是切换"
type IDecisionPolicy interface {
	Name() string                   // 策略名，用于日志
	Decide(in DecisionInput) Action // 绿灯阶段决策
}

// Decision 一次绿灯阶段决策的完整记录
// 说明：每个决策点产出一条，供离线训练使用
type Decision struct {
	Timestamp         float64    // Unix时间戳（秒）
	VerticalWaiting   int        // 南北向排队总数
	HorizontalWaiting int        // 东西向排队总数
	VerticalLight     LightColor // 决策时南北向灯色
	HorizontalLight   LightColor // 决策时东西向灯色
	Action            Action     // 采取的动作
	Reward            float64    // 即时奖励（stay为0，switch为负的排队总数）
}

// IDecisionSink 决策记录接收器接口
// 说明：实现方必须非阻塞，控制循环不等待落盘
type IDecisionSink interface {
	Record(d Decision)
}
