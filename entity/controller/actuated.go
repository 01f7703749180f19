// 提供感应式绿灯决策规则
// 不按固定配时切换，而是根据当前/对向排队与到达间隔决定何时结束绿灯
package controller

import (
	"math"

	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
)

// actuatedPolicy 感应式决策策略
// 功能：实现清空排队、gap-out与优先抢占三类切换规则
// 说明：最小绿门控与最大绿兜底由控制器处理，本策略只在安全窗口内被询问
type actuatedPolicy struct {
	cfg config.Controller
}

// NewActuatedPolicy 创建感应式决策策略
// 参数：cfg-信控配置
// 返回：感应式决策策略实例
func NewActuatedPolicy(cfg config.Controller) IDecisionPolicy {
	return &actuatedPolicy{cfg: cfg}
}

// Name 获取策略名
func (p *actuatedPolicy) Name() string {
	return "actuated"
}

// Decide 绿灯阶段决策
// 功能：按优先级依次应用切换规则
// 参数：in-决策输入
// 返回：保持或切换
// 算法说明：
// 1. 清空排队优先：开启queue_clear且当前相位仍有排队时保持绿灯
// 2. 优先抢占：仅在queue_clear关闭或当前排队已清空时考虑，
//    对向排队 >= max(priority_min_queue, priority_factor*max(1,当前排队)) 则切换
// 3. 对向有需求时：queue_clear模式下当前排队清空即切换；
//    否则按经典gap-out，当前相位无新到达达到gap阈值即切换
// 4. 以上都不满足则保持绿灯
func (p *actuatedPolicy) Decide(in DecisionInput) Action {
	// 清空排队优先：还在放行的车流未清空，保持绿灯直至清空或最大绿
	if p.cfg.QueueClearEnabled() && in.CurSum > 0 {
		log.Debugf("hold green for %s: queue_clear active cur_sum=%d t=%.1f",
			in.Phase, in.CurSum, in.TimeInStage)
		return ActionStay
	}

	// 优先抢占，仅在当前排队为空（或未启用清空排队）时允许
	if p.cfg.PrioritySwitchEnabled() && (!p.cfg.QueueClearEnabled() || in.CurSum == 0) {
		threshold := max(p.cfg.PriorityMinQueue, int(p.cfg.PriorityFactor*math.Max(1, float64(in.CurSum))))
		if in.OppSum >= threshold {
			log.Infof("priority switch: cur=%s cur_sum=%d opp_sum=%d t=%.1f",
				in.Phase, in.CurSum, in.OppSum, in.TimeInStage)
			return ActionSwitch
		}
	}

	// 只有对向存在需求时才考虑让出绿灯
	if in.OppSum > 0 {
		if p.cfg.QueueClearEnabled() {
			if in.CurSum == 0 {
				log.Infof("current queue cleared for %s; switching to %s", in.Phase, in.Phase.Opposite())
				return ActionSwitch
			}
		} else if in.TimeSinceArrival >= p.cfg.GapSeconds {
			log.Infof("gap-out switch: no arrivals on %s for %.1fs; opp has demand %d",
				in.Phase, in.TimeSinceArrival, in.OppSum)
			return ActionSwitch
		}
	}
	return ActionStay
}
