// 感应式相位控制状态机
// 两相位组（南北/东西）按GREEN→YELLOW→ALL_RED→GREEN严格循环，
// 绿灯阶段在安全窗口（最小绿之后、最大绿之前）内由装入的决策策略决定是否切换
package controller

import (
	"sync"
	"time"

	"github.com/tsinghua-fib-lab/signalet-oss/utils"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
)

// ActuatedController 感应式信控控制器
// 功能：持有排队存储与相位状态机，提供传感器摄入、周期评估、相位偏好与快照接口
// 说明：所有状态变更都在同一把互斥锁下进行；评估步是唯一修改相位/阶段的入口
type ActuatedController struct {
	cfg    config.Controller
	policy IDecisionPolicy
	sink   IDecisionSink // 决策记录接收器（可为nil）

	mtx sync.Mutex

	t           float64                // 内部时间轴（秒），每次评估步推进dt
	phase       PhaseGroup             // 当前放行相位组
	stage       Stage                  // 当前阶段
	lastChange  float64                // 最近一次阶段/相位变更时的t
	queues      map[Approach]int       // 各进口道排队数
	lastArrival map[PhaseGroup]float64 // 各相位组最近到达时的t
	switches    int                    // 累计切换次数
	throughput  int                    // 累计通过量
	occupancy   int                    // 路口内占用数
	pending     PhaseGroup             // 待生效的相位偏好（空为无）
}

// PersistedState 控制器可持久化状态
// 功能：进程重启后可恢复的控制器状态子集
// 说明：阶段计时器不持久化，恢复后从当前阶段重新计时
type PersistedState struct {
	Phase      PhaseGroup       `json:"phase"`
	Stage      Stage            `json:"stage"`
	Queues     map[Approach]int `json:"queues"`
	Switches   int              `json:"switches"`
	Throughput int              `json:"throughput"`
	Occupancy  int              `json:"occupancy"`
}

// New 创建感应式信控控制器
// 功能：初始化控制器，默认从南北向绿灯开始
// 参数：cfg-信控配置，policy-决策策略，sink-决策记录接收器（可为nil）
// 返回：初始化完成的控制器实例
func New(cfg config.Controller, policy IDecisionPolicy, sink IDecisionSink) *ActuatedController {
	c := &ActuatedController{
		cfg:    cfg,
		policy: policy,
		sink:   sink,
		phase:  PhaseNS,
		stage:  StageGreen,
		queues: map[Approach]int{
			ApproachNorth: 0, ApproachSouth: 0, ApproachEast: 0, ApproachWest: 0,
		},
		lastArrival: map[PhaseGroup]float64{PhaseNS: 0, PhaseEW: 0},
	}
	log.Infof("controller created: policy=%s min_green=%.1f max_green=%.1f queue_clear=%v",
		policy.Name(), cfg.MinGreen, cfg.MaxGreen, cfg.QueueClearEnabled())
	return c
}

// Restore 恢复持久化状态
// 功能：将上次进程退出时保存的状态写回控制器
// 参数：s-持久化状态
// 说明：仅在启动阶段、评估循环运行之前调用；非法相位/阶段保持缺省值
func (c *ActuatedController) Restore(s PersistedState) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if s.Phase.Valid() {
		c.phase = s.Phase
	}
	switch s.Stage {
	case StageGreen, StageYellow, StageAllRed:
		c.stage = s.Stage
	}
	for _, a := range Approaches {
		if v, ok := s.Queues[a]; ok {
			c.queues[a] = utils.NonNegative(v)
		}
	}
	c.switches = utils.NonNegative(s.Switches)
	c.throughput = utils.NonNegative(s.Throughput)
	c.occupancy = utils.NonNegative(s.Occupancy)
	c.lastChange = c.t
	log.Infof("controller state restored: phase=%s stage=%s switches=%d", c.phase, c.stage, c.switches)
}

// Persisted 导出持久化状态
// 功能：在锁内拷贝出可落盘的状态值
// 返回：持久化状态副本
func (c *ActuatedController) Persisted() PersistedState {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	queues := make(map[Approach]int, len(c.queues))
	for a, v := range c.queues {
		queues[a] = v
	}
	return PersistedState{
		Phase:      c.phase,
		Stage:      c.stage,
		Queues:     queues,
		Switches:   c.switches,
		Throughput: c.throughput,
		Occupancy:  c.occupancy,
	}
}

// RequestPhasePreference 请求相位偏好
// 功能：记录下一次授予绿灯的软偏好，后到的请求覆盖先到的
// 参数：phase-偏好的相位组
// 说明：在到达ALL_RED→GREEN边界前不产生任何效果，且至多被消费一次
func (c *ActuatedController) RequestPhasePreference(phase PhaseGroup) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.pending = phase
	log.Infof("phase preference requested: %s", phase)
}

// IngestSensor 摄入传感器数据
// 功能：按绝对计数或到达/离开增量更新排队存储
// 参数：in-传感器输入
// 算法说明：
// 1. 增量模式（存在arrivals/departures）：queue += 到达 - 离开，下限截断为0；
//    离开计入吞吐量；当前有到达的进口道刷新所属相位组的最近到达时间
// 2. 绝对模式：直接覆盖给出的进口道计数（下限0），有排队的相位组刷新最近到达时间
// 3. occupancy给出时更新占用数（下限0）
// 说明：缺失或无法解析的字段逐个忽略，不使整次调用失败
func (c *ActuatedController) IngestSensor(in SensorInput) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	now := c.t
	if in.Arrivals != nil || in.Departures != nil {
		for _, a := range Approaches {
			arrive := utils.NonNegative(in.Arrivals[a])
			depart := utils.NonNegative(in.Departures[a])
			if arrive > 0 {
				c.lastArrival[c.groupOf(a)] = now
			}
			c.queues[a] = utils.NonNegative(c.queues[a] + arrive - depart)
			if depart > 0 {
				c.throughput += depart
			}
		}
	} else {
		for _, a := range Approaches {
			v := in.count(a)
			if v == nil {
				continue
			}
			c.queues[a] = utils.NonNegative(*v)
			if *v > 0 {
				c.lastArrival[c.groupOf(a)] = now
			}
		}
	}
	if in.Occupancy != nil {
		c.occupancy = utils.NonNegative(*in.Occupancy)
	}
}

// groupOf 获取进口道所属相位组
func (c *ActuatedController) groupOf(a Approach) PhaseGroup {
	if a == ApproachNorth || a == ApproachSouth {
		return PhaseNS
	}
	return PhaseEW
}

// groupSum 相位组排队总数（需持锁调用）
func (c *ActuatedController) groupSum(p PhaseGroup) int {
	aps := p.Approaches()
	return c.queues[aps[0]] + c.queues[aps[1]]
}

// Evaluate 周期评估步，状态机的核心转移函数
// 功能：推进内部时间轴并按当前阶段执行转移规则
// 参数：dt-距上一次评估的时间步长（秒）
// 算法说明：
// 1. GREEN：最小绿之前不动作；达到最大绿强制进入YELLOW（兜底）；
//    否则将决策交给装入的策略（感应式规则或学习策略），并记录决策
// 2. YELLOW：黄灯时间走完进入ALL_RED
// 3. ALL_RED：全红时间走完后，若路口仍有占用且未超过最大额外等待则继续等待；
//    否则授予绿灯——有待生效偏好则消费之，否则切换到对向相位
// 说明：评估步是相位/阶段的唯一修改入口，由周期驱动器串行调用
func (c *ActuatedController) Evaluate(dt float64) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.t += dt
	tInStage := c.t - c.lastChange
	switch c.stage {
	case StageGreen:
		c.evaluateGreen(tInStage)
	case StageYellow:
		if tInStage >= c.cfg.Yellow {
			c.stage = StageAllRed
			c.lastChange = c.t
		}
	case StageAllRed:
		if tInStage >= c.cfg.AllRed {
			if c.occupancy > 0 && tInStage < c.cfg.AllRed+c.cfg.AllRedHoldMax {
				// 路口尚未清空，继续等待
				return
			}
			if c.pending.Valid() {
				c.phase = c.pending
				c.pending = ""
			} else {
				c.phase = c.phase.Opposite()
			}
			c.stage = StageGreen
			c.lastChange = c.t
			c.switches++
			log.Infof("green granted to %s (switch #%d)", c.phase, c.switches)
		}
	}
}

// evaluateGreen 绿灯阶段的转移规则（需持锁调用）
func (c *ActuatedController) evaluateGreen(tInStage float64) {
	if tInStage < c.cfg.MinGreen {
		return
	}
	in := DecisionInput{
		Phase:            c.phase,
		TimeInStage:      tInStage,
		CurSum:           c.groupSum(c.phase),
		OppSum:           c.groupSum(c.phase.Opposite()),
		TimeSinceArrival: c.t - c.lastArrival[c.phase],
	}
	var action Action
	if tInStage >= c.cfg.MaxGreen {
		// 最大绿兜底，不论策略如何都强制切换
		log.Infof("max green reached for %s at %.1fs; switching", c.phase, tInStage)
		action = ActionSwitch
	} else {
		action = c.policy.Decide(in)
	}
	c.record(in, action)
	if action == ActionSwitch {
		c.stage = StageYellow
		c.lastChange = c.t
	}
}

// record 产出一条决策记录（需持锁调用）
func (c *ActuatedController) record(in DecisionInput, action Action) {
	if c.sink == nil {
		return
	}
	reward := 0.0
	if action == ActionSwitch {
		reward = -float64(in.VerticalWaiting() + in.HorizontalWaiting())
	}
	vLight, hLight := deriveLights(c.phase, c.stage)
	c.sink.Record(Decision{
		Timestamp:         float64(time.Now().UnixMilli()) / 1000,
		VerticalWaiting:   in.VerticalWaiting(),
		HorizontalWaiting: in.HorizontalWaiting(),
		VerticalLight:     vLight,
		HorizontalLight:   hLight,
		Action:            action,
		Reward:            reward,
	})
}

// Queues 获取排队数副本
func (c *ActuatedController) Queues() map[Approach]int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	queues := make(map[Approach]int, len(c.queues))
	for a, v := range c.queues {
		queues[a] = v
	}
	return queues
}
