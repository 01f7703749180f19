package recorder

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Load 加载全部决策记录
// 功能：按配置选择记录来源并读出按时间升序的记录序列
// 参数：cfg-持久化配置
// 返回：记录序列与错误信息
// 说明：CSV文件存在时优先于MongoDB（与输入数据加载的惯例一致）
func Load(cfg config.Storage) ([]TransitionRecord, error) {
	if storage.Exists(cfg.LogFile) {
		return ReadCSV(cfg.LogFile)
	}
	if cfg.URI != "" {
		return ReadMongo(cfg.URI, cfg.DB, cfg.Col)
	}
	return nil, fmt.Errorf("recorder: no transition log: file %s missing and no mongo uri", cfg.LogFile)
}

// ReadCSV 从CSV文件读取决策记录
// 功能：按表头定位各列并逐行解析
// 参数：path-文件路径
// 返回：按时间升序的记录序列与错误信息
// 说明：无法解析的行单独跳过并告警，不使整次读取失败
func ReadCSV(path string) ([]TransitionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("recorder: read header of %s: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	records := make([]TransitionRecord, 0)
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warnf("skip malformed csv line %d: %v", line, err)
			continue
		}
		ts, err := strconv.ParseFloat(field(row, "timestamp"), 64)
		if err != nil {
			log.Warnf("skip csv line %d: bad timestamp: %v", line, err)
			continue
		}
		v, err := strconv.Atoi(field(row, "vertical_waiting"))
		if err != nil {
			log.Warnf("skip csv line %d: bad vertical_waiting: %v", line, err)
			continue
		}
		h, err := strconv.Atoi(field(row, "horizontal_waiting"))
		if err != nil {
			log.Warnf("skip csv line %d: bad horizontal_waiting: %v", line, err)
			continue
		}
		reward, err := strconv.ParseFloat(field(row, "reward"), 64)
		if err != nil {
			log.Warnf("skip csv line %d: bad reward: %v", line, err)
			continue
		}
		records = append(records, TransitionRecord{
			Timestamp:         ts,
			IntersectionID:    field(row, "intersection_id"),
			VerticalWaiting:   v,
			HorizontalWaiting: h,
			VerticalLight:     field(row, "current_vertical_light"),
			HorizontalLight:   field(row, "current_horizontal_light"),
			Action:            field(row, "action_taken"),
			Reward:            reward,
		})
	}
	sortByTimestamp(records)
	return records, nil
}

// ReadMongo 从MongoDB集合读取决策记录
// 参数：uri-连接字符串，db-数据库名，col-集合名
// 返回：按时间升序的记录序列与错误信息
func ReadMongo(uri, db, col string) ([]TransitionRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("recorder: connect mongo: %w", err)
	}
	defer client.Disconnect(ctx)

	cur, err := client.Database(db).Collection(col).Find(
		ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("recorder: query mongo: %w", err)
	}
	var records []TransitionRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("recorder: decode mongo records: %w", err)
	}
	sortByTimestamp(records)
	return records, nil
}

// sortByTimestamp 按时间升序稳定排序
func sortByTimestamp(records []TransitionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})
}
