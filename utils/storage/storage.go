// 本地JSON持久化，控制器状态与Q表的落盘和恢复都经过这里。
// 读取失败由调用方降级为缺省值，写入失败只记录告警，内存状态始终是权威数据。
package storage

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadJSON 从文件加载JSON数据
// 功能：读取并反序列化JSON文件到指定对象
// 参数：path-文件路径，v-目标对象指针
// 返回：错误信息，文件不存在或内容损坏时返回错误
// 说明：调用方负责在出错时回退到缺省状态，本函数不做panic
func LoadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", path, err)
	}
	return nil
}

// SaveJSON 将对象序列化为JSON并原子写入文件
// 功能：先写入临时文件再重命名，避免写入中断产生损坏文件
// 参数：path-文件路径，v-待保存对象
// 返回：错误信息
func SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("storage: rename %s: %w", tmp, err)
	}
	return nil
}

// Exists 判断文件是否存在
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
