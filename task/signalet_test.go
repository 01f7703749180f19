package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/signalet-oss/clock"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/controller"
	"github.com/tsinghua-fib-lab/signalet-oss/server"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
)

// faultyPolicy 每次决策都panic的策略
type faultyPolicy struct {
	calls int
}

func (p *faultyPolicy) Name() string { return "faulty" }

func (p *faultyPolicy) Decide(in controller.DecisionInput) controller.Action {
	p.calls++
	panic("decision blew up")
}

// 单步评估中的panic被捕获，后续评估步照常执行
func TestUpdateRecoversFromPanic(t *testing.T) {
	rc := config.NewRuntimeConfig(config.Config{})
	cfg := rc.All.Controller
	cfg.MinGreen = 1

	policy := &faultyPolicy{}
	ctrl := controller.New(cfg, policy, nil)
	ctx := &Context{
		job:           "main",
		clock:         clock.New(config.ControlStep{Interval: 1}),
		ctrl:          ctrl,
		srv:           server.New(rc.All.Server, "main", ctrl),
		runtimeConfig: rc,
	}

	for i := 0; i < 3; i++ {
		ctx.prepare()
		ctx.update()
	}

	// 每一步都到达了会panic的决策点
	assert.Equal(t, 3, policy.calls)
	// 时间轴照常推进，循环未被单步异常终止
	s := ctrl.Snapshot()
	assert.Equal(t, 3.0, s.TimeInStage)
	assert.Equal(t, controller.StageGreen, s.Stage)
	assert.Equal(t, int64(3), ctx.clock.InternalStep)
}
