package qlearn

import (
	"github.com/tsinghua-fib-lab/signalet-oss/entity/controller"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
)

// Sample 一条决策记录在训练视角下的投影
// 说明：相邻两条记录构成一次(s, a, r, s')转移，记录必须按时间升序
type Sample struct {
	VerticalWaiting   float64           // 南北向排队总数
	HorizontalWaiting float64           // 东西向排队总数
	VerticalGreen     bool              // 决策时南北向是否为绿灯
	Action            controller.Action // 采取的动作
	Reward            float64           // 即时奖励
}

// key 样本对应的离散状态
func (s Sample) key(bins []float64) StateKey {
	dir := DirHorizontal
	if s.VerticalGreen {
		dir = DirVertical
	}
	return StateKey{
		VBin: Bin(s.VerticalWaiting, bins),
		HBin: Bin(s.HorizontalWaiting, bins),
		Dir:  dir,
	}
}

// Train 离线批量训练
// 功能：对按时间排序的决策记录做一次前向遍历，就地更新动作价值表
// 参数：table-动作价值表（就地更新），cfg-学习配置，samples-按时间升序的样本序列
// 返回：执行的更新次数
// 算法说明：
// 1. 以相邻样本对(i, i+1)构造转移：s=样本i的状态，a/r=样本i的动作与奖励，
//    s'=样本i+1的状态
// 2. 标准单步更新：Q[s][a] += α·(r + γ·max_a' Q[s'][a'] − Q[s][a])
// 3. 状态项惰性初始化为0，表是本过程唯一的可变产物
// 说明：训练是独立的批处理过程，不与在线控制器共享任何运行时状态
func Train(table Table, cfg config.QLearn, samples []Sample) int {
	updates := 0
	for i := 0; i+1 < len(samples); i++ {
		cur := samples[i]
		next := samples[i+1]

		state := cur.key(cfg.Bins)
		nextState := next.key(cfg.Bins)

		values := table.Ensure(state)
		maxNext := table.Ensure(nextState).Max()

		old := values.Get(cur.Action)
		values.Set(cur.Action, old+cfg.Alpha*(cur.Reward+cfg.Gamma*maxNext-old))
		updates++
	}
	log.Infof("training pass complete: %d samples, %d updates, %d states",
		len(samples), updates, len(table))
	return updates
}
