package qlearn

import (
	"github.com/tsinghua-fib-lab/signalet-oss/entity/controller"
)

// decisionPolicy 学习策略到控制器决策接口的适配
// 说明：控制器负责最小绿门控与最大绿兜底，本适配只做状态投影与查表
type decisionPolicy struct {
	p *Policy
}

// NewDecisionPolicy 以学习策略创建控制器决策策略
// 参数：p-学习策略
// 返回：可装入控制器的决策策略
func NewDecisionPolicy(p *Policy) controller.IDecisionPolicy {
	return &decisionPolicy{p: p}
}

// Name 获取策略名
func (d *decisionPolicy) Name() string {
	return "qlearn"
}

// Decide 绿灯阶段决策
// 功能：将排队状态离散化后按动作价值表取argmax
// 参数：in-决策输入
// 返回：保持或切换
func (d *decisionPolicy) Decide(in controller.DecisionInput) controller.Action {
	dir := DirVertical
	if in.Phase == controller.PhaseEW {
		dir = DirHorizontal
	}
	k := d.p.Discretize(float64(in.VerticalWaiting()), float64(in.HorizontalWaiting()), dir)
	return d.p.Decide(k)
}
