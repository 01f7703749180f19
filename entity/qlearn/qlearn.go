// 表格型强化学习决策策略
// 将两个轴向的排队总数离散化为分箱，维护(状态->动作价值)表，
// 推断时取argmax，训练由离线单步TD更新完成
package qlearn

import (
	"sync"

	"github.com/tsinghua-fib-lab/signalet-oss/entity/controller"
	"github.com/tsinghua-fib-lab/signalet-oss/utils"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/randengine"
)

const (
	// DirVertical 南北向绿灯
	DirVertical = 0
	// DirHorizontal 东西向绿灯
	DirHorizontal = 1
)

// StateKey 离散状态
// 功能：(南北向分箱, 东西向分箱, 当前放行轴向)三元组，动作价值表的键
type StateKey struct {
	VBin int // 南北向排队总数分箱
	HBin int // 东西向排队总数分箱
	Dir  int // 当前放行轴向（0南北，1东西）
}

// ActionValues 某状态下两个动作的价值估计
type ActionValues struct {
	Stay   float64 // 保持
	Switch float64 // 切换
}

// Get 获取指定动作的价值
func (v *ActionValues) Get(a controller.Action) float64 {
	if a == controller.ActionSwitch {
		return v.Switch
	}
	return v.Stay
}

// Set 设置指定动作的价值
func (v *ActionValues) Set(a controller.Action, q float64) {
	if a == controller.ActionSwitch {
		v.Switch = q
	} else {
		v.Stay = q
	}
}

// Max 获取两个动作价值中的较大者
func (v *ActionValues) Max() float64 {
	if v.Switch > v.Stay {
		return v.Switch
	}
	return v.Stay
}

// Table 动作价值表
// 说明：表项在首次访问时惰性生成，初始价值为0
type Table map[StateKey]*ActionValues

// Ensure 惰性初始化并返回指定状态的价值项
func (t Table) Ensure(k StateKey) *ActionValues {
	v, ok := t[k]
	if !ok {
		v = &ActionValues{}
		t[k] = v
	}
	return v
}

// Bin 将数值离散化到分箱
// 功能：返回x落入的分箱下标，最高箱向上开放
// 参数：x-数值，bins-升序分箱边界
// 返回：分箱下标，[bins[i], bins[i+1])映射到i
// 说明：小于首个边界的值归入第0箱（排队数非负，正常不会出现）
func Bin(x float64, bins []float64) int {
	i := 0
	for i < len(bins) && x >= bins[i] {
		i++
	}
	if i == 0 {
		return 0
	}
	return i - 1
}

// Policy 表格型学习策略
// 功能：离散化排队状态并按动作价值表决策
// 说明：推断是纯argmax（平手取保持）；epsilon>0时以ε概率随机探索
type Policy struct {
	mtx     sync.Mutex
	table   Table
	bins    []float64
	epsilon float64
	engine  *randengine.Engine
}

// NewPolicy 创建学习策略
// 参数：cfg-学习配置，table-动作价值表（可为nil，从空表开始）
// 返回：学习策略实例
func NewPolicy(cfg config.QLearn, table Table) *Policy {
	if table == nil {
		table = make(Table)
	}
	return &Policy{
		table:   table,
		bins:    cfg.Bins,
		epsilon: utils.Clamp(cfg.Epsilon, 0, 1),
		engine:  randengine.New(uint64(len(table))),
	}
}

// Discretize 离散化排队状态
// 功能：分别对两个轴向的排队总数分箱，组合为离散状态
// 参数：vertical-南北向排队总数，horizontal-东西向排队总数，dir-当前放行轴向
// 返回：离散状态
func (p *Policy) Discretize(vertical, horizontal float64, dir int) StateKey {
	return StateKey{
		VBin: Bin(vertical, p.bins),
		HBin: Bin(horizontal, p.bins),
		Dir:  dir,
	}
}

// Decide 按动作价值表决策
// 功能：查表（必要时惰性初始化）并返回价值较大的动作，平手取保持
// 参数：k-离散状态
// 返回：保持或切换
// 说明：最小绿门控由控制器完成，本方法不感知时间
func (p *Policy) Decide(k StateKey) controller.Action {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.epsilon > 0 && p.engine.PTrueSafe(p.epsilon) {
		return controller.Action(p.engine.IntnSafe(2))
	}
	v := p.table.Ensure(k)
	if v.Switch > v.Stay {
		return controller.ActionSwitch
	}
	return controller.ActionStay
}

// Table 获取底层动作价值表
// 说明：仅供启动加载与离线训练使用，运行中不得直接修改
func (p *Policy) Table() Table {
	return p.table
}
