// 决策记录器：把控制器的每次绿灯决策追加到有序日志中，供离线训练消费
// 后端支持CSV文件（默认）与MongoDB集合（配置uri后启用），文件优先级高于MongoDB
package recorder

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tsinghua-fib-lab/signalet-oss/entity/controller"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// csvHeader CSV日志的列名，与既有日志格式保持兼容
var csvHeader = []string{
	"timestamp", "intersection_id", "vertical_waiting", "horizontal_waiting",
	"current_vertical_light", "current_horizontal_light", "action_taken", "reward",
}

// TransitionRecord 一条决策记录
// 说明：字段与CSV列一一对应；MongoDB中以同名bson字段存储
type TransitionRecord struct {
	Timestamp         float64 `bson:"timestamp"`
	IntersectionID    string  `bson:"intersection_id"`
	VerticalWaiting   int     `bson:"vertical_waiting"`
	HorizontalWaiting int     `bson:"horizontal_waiting"`
	VerticalLight     string  `bson:"current_vertical_light"`
	HorizontalLight   string  `bson:"current_horizontal_light"`
	Action            string  `bson:"action_taken"`
	Reward            float64 `bson:"reward"`
}

// sink 记录写入后端接口
type sink interface {
	append(rec TransitionRecord) error
	close() error
}

// Recorder 决策记录器
// 功能：实现控制器的决策记录接收器，经缓冲通道异步写入各后端
// 说明：Record永不阻塞控制循环；缓冲占满时丢弃并告警（尽力而为）
type Recorder struct {
	job   string
	ch    chan TransitionRecord
	done  chan struct{}
	sinks []sink
}

// New 创建决策记录器
// 功能：按配置装配写入后端并启动写协程
// 参数：cfg-持久化配置，job-路口名
// 返回：记录器实例与错误信息
// 算法说明：
// 1. CSV文件后端始终启用（log_file）
// 2. 配置了uri时追加MongoDB后端（db/col）
// 3. 写协程串行消费缓冲通道，单个后端写入失败只告警不中断
func New(cfg config.Storage, job string) (*Recorder, error) {
	r := &Recorder{
		job:  job,
		ch:   make(chan TransitionRecord, 1024),
		done: make(chan struct{}),
	}

	fileSink, err := newCSVSink(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	r.sinks = append(r.sinks, fileSink)

	if cfg.URI != "" {
		mongoSink, err := newMongoSink(cfg.URI, cfg.DB, cfg.Col)
		if err != nil {
			// MongoDB不可达降级为仅文件记录
			log.Warnf("mongo sink disabled: %v", err)
		} else {
			r.sinks = append(r.sinks, mongoSink)
		}
	}

	go r.run()
	return r, nil
}

// Record 接收一条控制器决策
// 功能：将决策转换为记录并投递到写协程
// 参数：d-控制器决策
// 说明：缓冲占满时丢弃本条记录，绝不阻塞评估循环
func (r *Recorder) Record(d controller.Decision) {
	rec := TransitionRecord{
		Timestamp:         d.Timestamp,
		IntersectionID:    r.job,
		VerticalWaiting:   d.VerticalWaiting,
		HorizontalWaiting: d.HorizontalWaiting,
		VerticalLight:     string(d.VerticalLight),
		HorizontalLight:   string(d.HorizontalLight),
		Action:            d.Action.String(),
		Reward:            d.Reward,
	}
	select {
	case r.ch <- rec:
	default:
		log.Warnf("record buffer full, transition dropped")
	}
}

// run 写协程，串行消费缓冲通道
func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.ch {
		for _, s := range r.sinks {
			if err := s.append(rec); err != nil {
				log.Warnf("append transition record: %v", err)
			}
		}
	}
}

// Close 关闭记录器
// 功能：排空缓冲并关闭全部后端
// 返回：错误信息
func (r *Recorder) Close() error {
	close(r.ch)
	<-r.done
	for _, s := range r.sinks {
		if err := s.close(); err != nil {
			log.Warnf("close record sink: %v", err)
		}
	}
	return nil
}

// csvSink CSV文件后端
type csvSink struct {
	f *os.File
	w *csv.Writer
}

// newCSVSink 打开（或创建）CSV日志文件
// 说明：新文件先写入表头；已有文件直接追加
func newCSVSink(path string) (*csvSink, error) {
	writeHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		writeHeader = true
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("recorder: open %s: %w", path, err)
	}
	s := &csvSink{f: f, w: csv.NewWriter(f)}
	if writeHeader {
		if err := s.w.Write(csvHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("recorder: write header: %w", err)
		}
		s.w.Flush()
	}
	return s, nil
}

func (s *csvSink) append(rec TransitionRecord) error {
	row := []string{
		strconv.FormatFloat(rec.Timestamp, 'f', -1, 64),
		rec.IntersectionID,
		strconv.Itoa(rec.VerticalWaiting),
		strconv.Itoa(rec.HorizontalWaiting),
		rec.VerticalLight,
		rec.HorizontalLight,
		rec.Action,
		strconv.FormatFloat(rec.Reward, 'f', -1, 64),
	}
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *csvSink) close() error {
	s.w.Flush()
	return s.f.Close()
}

// mongoSink MongoDB集合后端
type mongoSink struct {
	client *mongo.Client
	col    *mongo.Collection
}

// newMongoSink 连接MongoDB并定位集合
func newMongoSink(uri, db, col string) (*mongoSink, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("recorder: connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("recorder: ping mongo: %w", err)
	}
	return &mongoSink{client: client, col: client.Database(db).Collection(col)}, nil
}

func (s *mongoSink) append(rec TransitionRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := s.col.InsertOne(ctx, rec)
	return err
}

func (s *mongoSink) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
