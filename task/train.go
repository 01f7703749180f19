package task

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/controller"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/qlearn"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/recorder"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
)

// RunTraining 离线训练入口
// 功能：从决策日志批量训练动作价值表并落盘
// 参数：rc-运行时配置
// 返回：错误信息
// 算法说明：
// 1. 加载既有Q表（缺失/损坏降级为空表并告警）
// 2. 加载决策记录（CSV文件优先，其次MongoDB）
// 3. 将记录投影为训练样本并做一次前向遍历更新
// 4. 将更新后的Q表写回文件
func RunTraining(rc *config.RuntimeConfig) error {
	table, err := qlearn.LoadTable(rc.All.Storage.QTableFile)
	if err != nil {
		log.Warnf("load q-table failed, starting with empty table: %v", err)
		table = make(qlearn.Table)
	}

	records, err := recorder.Load(rc.All.Storage)
	if err != nil {
		return err
	}
	log.Infof("loaded %d transition records", len(records))

	samples := lo.Map(records, func(rec recorder.TransitionRecord, _ int) qlearn.Sample {
		action := controller.ActionStay
		if rec.Action == controller.ActionSwitch.String() {
			action = controller.ActionSwitch
		}
		return qlearn.Sample{
			VerticalWaiting:   float64(rec.VerticalWaiting),
			HorizontalWaiting: float64(rec.HorizontalWaiting),
			VerticalGreen:     rec.VerticalLight == string(controller.LightGreen),
			Action:            action,
			Reward:            rec.Reward,
		}
	})

	qlearn.Train(table, rc.All.QLearn, samples)

	if err := qlearn.SaveTable(rc.All.Storage.QTableFile, table); err != nil {
		return err
	}
	log.Infof("q-table saved to %s (%d states)", rc.All.Storage.QTableFile, len(table))
	return nil
}
