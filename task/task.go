package task

import (
	"sync/atomic"

	"github.com/tsinghua-fib-lab/signalet-oss/clock"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/controller"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/qlearn"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/recorder"
	"github.com/tsinghua-fib-lab/signalet-oss/server"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/storage"
)

const (
	SelfName = "signalet" // 本程序的名字
)

// Context 控制任务上下文
// 功能：包含一次控制任务的所有变量和状态，替代全局变量
// 说明：管理控制系统的所有组件，包括时钟、控制器、决策记录、对外接口等；
// 每个路口一个实例，不存在进程级单例
type Context struct {

	// 路口名
	job string
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock

	// 感应式信控控制器
	ctrl *controller.ActuatedController
	// 决策记录器（可为nil，记录被禁用时）
	rec *recorder.Recorder
	// 对外HTTP/WebSocket接口
	srv *server.Server

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig

	// 控制循环停止指令
	stopCh chan struct{}
	// 控制循环结束信号
	loopDoneCh chan struct{}
}

// NewContext 创建新的控制任务上下文
// 功能：初始化控制系统的所有组件和配置
// 参数：rc-运行时配置
// 返回：初始化完成的Context实例
// 算法说明：
// 1. 初始化时钟（评估节拍）
// 2. 按control.policy装配决策策略：
//   - actuated: 感应式规则策略
//   - qlearn: 表格型学习策略，从Q表文件加载（缺失/损坏降级为空表并告警）
//
// 3. 启动决策记录器（CSV文件，配置uri后追加MongoDB）；失败降级为不记录
// 4. 创建控制器并恢复上次落盘的状态（缺失/损坏降级为全新状态并告警）
// 5. 装配对外HTTP/WebSocket接口
// 说明：策略在启动时一次性选定装入，运行中不做按请求的策略探测
func NewContext(rc *config.RuntimeConfig) *Context {
	ctx := &Context{
		job:           rc.C.Job,
		runtimeConfig: rc,
		stopCh:        make(chan struct{}),
		loopDoneCh:    make(chan struct{}),
	}
	ctx.clock = clock.New(rc.C.Step)

	// 决策策略装配
	var policy controller.IDecisionPolicy
	switch rc.C.Policy {
	case config.PolicyActuated:
		policy = controller.NewActuatedPolicy(rc.All.Controller)
	case config.PolicyQLearn:
		table, err := qlearn.LoadTable(rc.All.Storage.QTableFile)
		if err != nil {
			log.Warnf("load q-table failed, starting with empty table: %v", err)
			table = make(qlearn.Table)
		} else {
			log.Infof("loaded q-table from %s (%d states)", rc.All.Storage.QTableFile, len(table))
		}
		policy = qlearn.NewDecisionPolicy(qlearn.NewPolicy(rc.All.QLearn, table))
	default:
		log.Panicf("control.policy must be one of [%s %s], got %q",
			config.PolicyActuated, config.PolicyQLearn, rc.C.Policy)
	}

	// 决策记录器
	rec, err := recorder.New(rc.All.Storage, ctx.job)
	if err != nil {
		log.Warnf("recorder disabled: %v", err)
	} else {
		ctx.rec = rec
	}

	// 控制器与状态恢复
	var sink controller.IDecisionSink
	if ctx.rec != nil {
		sink = ctx.rec
	}
	ctx.ctrl = controller.New(rc.All.Controller, policy, sink)
	var persisted controller.PersistedState
	if err := storage.LoadJSON(rc.All.Storage.StateFile, &persisted); err != nil {
		log.Warnf("load controller state failed, starting fresh: %v", err)
	} else {
		ctx.ctrl.Restore(persisted)
	}

	ctx.srv = server.New(rc.All.Server, ctx.job, ctx.ctrl)

	return ctx
}

// Controller 获取控制器
func (ctx *Context) Controller() *controller.ActuatedController {
	return ctx.ctrl
}

// Clock 获取时钟
func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

// RuntimeConfig 获取运行时配置
func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// persist 落盘控制器状态
// 说明：写入失败只告警，内存状态仍是权威数据
func (ctx *Context) persist() {
	if err := storage.SaveJSON(ctx.runtimeConfig.All.Storage.StateFile, ctx.ctrl.Persisted()); err != nil {
		log.Warnf("persist controller state: %v", err)
	}
}

// Close 关闭任务
// 功能：停止控制循环、落盘最终状态并释放全部组件
func (ctx *Context) Close() {
	if !ctx.closed.CompareAndSwap(false, true) {
		return
	}
	close(ctx.stopCh)
	// wait for graceful stop
	<-ctx.loopDoneCh
	ctx.persist()
	if ctx.rec != nil {
		if err := ctx.rec.Close(); err != nil {
			log.Warnf("close recorder: %v", err)
		}
	}
}
