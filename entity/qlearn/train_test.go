package qlearn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/controller"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/qlearn"
)

func TestTrainSingleTransition(t *testing.T) {
	cfg := testQLearnConfig()
	table := make(qlearn.Table)
	samples := []qlearn.Sample{
		{VerticalWaiting: 8, HorizontalWaiting: 20, VerticalGreen: true, Action: controller.ActionSwitch, Reward: -28},
		{VerticalWaiting: 8, HorizontalWaiting: 20, VerticalGreen: false, Action: controller.ActionStay, Reward: 0},
	}
	updates := qlearn.Train(table, cfg, samples)
	assert.Equal(t, 1, updates)

	// Q[s][switch] = 0 + 0.1*(-28 + 0.9*0 - 0) = -2.8
	s := qlearn.StateKey{VBin: 1, HBin: 2, Dir: qlearn.DirVertical}
	assert.InDelta(t, -2.8, table[s].Switch, 1e-9)
	assert.Equal(t, 0.0, table[s].Stay)

	// 后继状态被惰性初始化但未被更新
	next := qlearn.StateKey{VBin: 1, HBin: 2, Dir: qlearn.DirHorizontal}
	assert.Equal(t, 0.0, table[next].Stay)
	assert.Equal(t, 0.0, table[next].Switch)
}

func TestTrainUsesNextStateMax(t *testing.T) {
	cfg := testQLearnConfig()
	table := make(qlearn.Table)
	next := qlearn.StateKey{VBin: 0, HBin: 0, Dir: qlearn.DirHorizontal}
	table[next] = &qlearn.ActionValues{Stay: 2, Switch: 5}

	samples := []qlearn.Sample{
		{VerticalWaiting: 0, HorizontalWaiting: 0, VerticalGreen: true, Action: controller.ActionStay, Reward: 1},
		{VerticalWaiting: 0, HorizontalWaiting: 0, VerticalGreen: false, Action: controller.ActionStay, Reward: 0},
	}
	qlearn.Train(table, cfg, samples)

	// Q[s][stay] = 0 + 0.1*(1 + 0.9*5 - 0) = 0.55
	s := qlearn.StateKey{VBin: 0, HBin: 0, Dir: qlearn.DirVertical}
	assert.InDelta(t, 0.55, table[s].Stay, 1e-9)
}

func TestTrainChainedUpdates(t *testing.T) {
	cfg := testQLearnConfig()
	table := make(qlearn.Table)
	samples := []qlearn.Sample{
		{VerticalWaiting: 1, HorizontalWaiting: 0, VerticalGreen: true, Action: controller.ActionStay, Reward: 0},
		{VerticalWaiting: 1, HorizontalWaiting: 0, VerticalGreen: true, Action: controller.ActionStay, Reward: 0},
		{VerticalWaiting: 1, HorizontalWaiting: 6, VerticalGreen: true, Action: controller.ActionSwitch, Reward: -7},
	}
	updates := qlearn.Train(table, cfg, samples)
	assert.Equal(t, 2, updates)

	// 前两条样本的状态相同，第一次更新保持0，第二次更新受第三条状态影响仍为0
	s := qlearn.StateKey{VBin: 0, HBin: 0, Dir: qlearn.DirVertical}
	assert.Equal(t, 0.0, table[s].Stay)

	// 第三条样本作为后继出现，但没有后续转移，其动作价值不被更新
	last := qlearn.StateKey{VBin: 0, HBin: 1, Dir: qlearn.DirVertical}
	assert.Equal(t, 0.0, table[last].Switch)
}

func TestTrainEmptyAndSingleSample(t *testing.T) {
	cfg := testQLearnConfig()
	table := make(qlearn.Table)
	assert.Equal(t, 0, qlearn.Train(table, cfg, nil))
	assert.Equal(t, 0, qlearn.Train(table, cfg, []qlearn.Sample{
		{VerticalWaiting: 1, HorizontalWaiting: 1, VerticalGreen: true},
	}))
	assert.Empty(t, table)
}
