package controller

import (
	"time"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/signalet-oss/utils"
)

// Lights 两个轴向的灯色
type Lights struct {
	Vertical   LightColor `json:"vertical"`   // 南北向
	Horizontal LightColor `json:"horizontal"` // 东西向
}

// SnapshotConfig 快照中回显的有效配置
type SnapshotConfig struct {
	MinGreen   float64 `json:"min_green"`
	MaxGreen   float64 `json:"max_green"`
	Yellow     float64 `json:"yellow"`
	AllRed     float64 `json:"all_red"`
	GapSeconds float64 `json:"gap_seconds"`
}

// Snapshot 控制器状态的只读投影
// 说明：所有字段均为值拷贝，不暴露内部可变引用
type Snapshot struct {
	Phase            PhaseGroup       `json:"phase"`
	Stage            Stage            `json:"stage"`
	TimeInStage      float64          `json:"time_in_stage"`
	TimeToNextChange int              `json:"time_to_next_change"`
	Lights           Lights           `json:"lights"`
	Queues           map[Approach]int `json:"queues"`
	Occupancy        int              `json:"occupancy"`
	Switches         int              `json:"switches"`
	Throughput       int              `json:"throughput"`
	Waiting          int              `json:"waiting"`
	Config           SnapshotConfig   `json:"config"`
	Timestamp        int64            `json:"t"` // Unix毫秒时间戳
}

// deriveLights 由（相位，阶段）推导两个轴向的灯色
// 说明：黄灯只出现在即将失去通行权的轴向上；全红阶段两个轴向都是红灯
func deriveLights(phase PhaseGroup, stage Stage) (vertical, horizontal LightColor) {
	vertical, horizontal = LightRed, LightRed
	switch stage {
	case StageGreen:
		if phase == PhaseNS {
			vertical = LightGreen
		} else {
			horizontal = LightGreen
		}
	case StageYellow:
		if phase == PhaseNS {
			vertical = LightYellow
		} else {
			horizontal = LightYellow
		}
	}
	return
}

// Snapshot 获取控制器状态快照
// 功能：在锁内生成一份独立的状态投影
// 返回：状态快照
// 算法说明：
// 1. 灯色由（相位，阶段）推导
// 2. 距下次变化的时间是上界估计：绿灯阶段真实切换时间取决于未来到达，
//    只报告到最大绿的剩余时间；黄灯/全红报告各自的固定剩余
// 3. 排队映射为副本，等待总数为全部进口道排队之和
func (c *ActuatedController) Snapshot() Snapshot {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	tInStage := c.t - c.lastChange
	var toNext float64
	switch c.stage {
	case StageGreen:
		toNext = c.cfg.MaxGreen - tInStage
	case StageYellow:
		toNext = c.cfg.Yellow - tInStage
	default:
		toNext = c.cfg.AllRed - tInStage
	}

	vertical, horizontal := deriveLights(c.phase, c.stage)
	queues := make(map[Approach]int, len(c.queues))
	for a, v := range c.queues {
		queues[a] = v
	}

	return Snapshot{
		Phase:            c.phase,
		Stage:            c.stage,
		TimeInStage:      tInStage,
		TimeToNextChange: int(utils.NonNegative(toNext)),
		Lights:           Lights{Vertical: vertical, Horizontal: horizontal},
		Queues:           queues,
		Occupancy:        c.occupancy,
		Switches:         c.switches,
		Throughput:       c.throughput,
		Waiting:          lo.Sum(lo.Values(queues)),
		Config: SnapshotConfig{
			MinGreen:   c.cfg.MinGreen,
			MaxGreen:   c.cfg.MaxGreen,
			Yellow:     c.cfg.Yellow,
			AllRed:     c.cfg.AllRed,
			GapSeconds: c.cfg.GapSeconds,
		},
		Timestamp: time.Now().UnixMilli(),
	}
}
