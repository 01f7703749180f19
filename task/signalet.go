package task

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 600, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 功能：在每个评估步开始时进行准备工作
// 算法说明：
// 1. 更新时钟：增加步数并计算当前控制时间
// 2. 心跳日志：定期输出系统状态信息（相位、阶段、排队总数）
func (ctx *Context) prepare() {
	ctx.clock.Tick()

	if ctx.clock.InternalStep%int64(*heartBeatInterval) == 0 {
		s := ctx.ctrl.Snapshot()
		log.Infof(
			"STEP: %d(%s) phase=%s stage=%s waiting=%d switches=%d",
			ctx.clock.InternalStep, ctx.clock,
			s.Phase, s.Stage, s.Waiting, s.Switches,
		)
	}
}

// update 更新阶段，每步执行一次
// 功能：在每个评估步中执行控制逻辑并广播快照
// 算法说明：
// 1. 执行控制器评估步（相位/阶段转移的唯一入口）
// 2. 向全部WebSocket观察者广播最新快照（尽力而为）
// 3. 按save_interval周期性落盘控制器状态
// 说明：单步内发生的panic被捕获并记录，下一步仍按节拍执行，
// 评估循环绝不因单步异常而终止
func (ctx *Context) update() {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("evaluate step %d panicked: %v", ctx.clock.InternalStep, r)
		}
	}()

	ctx.ctrl.Evaluate(ctx.clock.DT)
	ctx.srv.Hub().Broadcast(ctx.ctrl.Snapshot())

	if interval := ctx.runtimeConfig.All.Storage.SaveInterval; interval > 0 {
		stepsPerSave := int64(interval / ctx.clock.DT)
		if stepsPerSave > 0 && ctx.clock.InternalStep%stepsPerSave == 0 {
			ctx.persist()
		}
	}
}

// Run 运行
// 功能：启动对外接口与周期评估循环，直至收到停止信号
// 算法说明：
// 1. 对外HTTP服务在独立协程中启动
// 2. time.Ticker按固定节拍驱动评估循环，本循环是Evaluate的唯一调用方，
//    评估调用串行进行、绝不重叠
// 3. 收到SIGINT/SIGTERM或Close()后停止节拍器、优雅关闭服务并落盘
func (ctx *Context) Run() {
	// 对外接口协程
	go func() {
		if err := ctx.srv.Run(); err != nil {
			log.Errorf("server failed: %v", err)
			ctx.Close()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(ctx.clock.DT * float64(time.Second)))
	defer ticker.Stop()

	log.Infof("control loop started: job=%s interval=%.3fs policy=%s",
		ctx.job, ctx.clock.DT, ctx.runtimeConfig.C.Policy)

loop:
	for {
		select {
		case <-ticker.C:
			ctx.prepare()
			ctx.update()
		case sig := <-sigCh:
			log.Infof("received signal %v, shutting down", sig)
			break loop
		case <-ctx.stopCh:
			break loop
		}
	}

	// 优雅关闭对外接口
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ctx.srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("server shutdown: %v", err)
	}

	close(ctx.loopDoneCh)
	ctx.Close()
	log.Infof("engine complete")
}
