package qlearn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tsinghua-fib-lab/signalet-oss/utils/storage"
)

// 持久化格式：{"vBin,hBin,dir": {"stay": q0, "switch": q1}}
// 键由专用的FormatKey/ParseKey序列化，保证精确往返，绝不对存储内容做表达式求值

// FormatKey 序列化离散状态键
// 返回："vBin,hBin,dir"形式的字符串
func FormatKey(k StateKey) string {
	return fmt.Sprintf("%d,%d,%d", k.VBin, k.HBin, k.Dir)
}

// ParseKey 反序列化离散状态键
// 参数：s-FormatKey产出的字符串
// 返回：离散状态键与错误信息
// 说明：逐字段strconv解析，任何格式偏差都返回错误
func ParseKey(s string) (StateKey, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return StateKey{}, fmt.Errorf("qlearn: invalid state key %q", s)
	}
	fields := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return StateKey{}, fmt.Errorf("qlearn: invalid state key %q: %w", s, err)
		}
		fields[i] = v
	}
	return StateKey{VBin: fields[0], HBin: fields[1], Dir: fields[2]}, nil
}

// tableJSON Q表的JSON持久化形式
type tableJSON map[string]map[string]float64

// LoadTable 从文件加载动作价值表
// 功能：读取JSON文件并解析全部状态键
// 参数：path-文件路径
// 返回：动作价值表与错误信息
// 说明：文件缺失或损坏时返回错误，由调用方降级为空表
func LoadTable(path string) (Table, error) {
	var raw tableJSON
	if err := storage.LoadJSON(path, &raw); err != nil {
		return nil, err
	}
	table := make(Table, len(raw))
	for key, actions := range raw {
		k, err := ParseKey(key)
		if err != nil {
			return nil, err
		}
		table[k] = &ActionValues{
			Stay:   actions["stay"],
			Switch: actions["switch"],
		}
	}
	return table, nil
}

// SaveTable 将动作价值表保存到文件
// 参数：path-文件路径，table-动作价值表
// 返回：错误信息
func SaveTable(path string, table Table) error {
	raw := make(tableJSON, len(table))
	for k, v := range table {
		raw[FormatKey(k)] = map[string]float64{
			"stay":   v.Stay,
			"switch": v.Switch,
		}
	}
	return storage.SaveJSON(path, raw)
}
