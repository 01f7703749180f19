package recorder_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/controller"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/recorder"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
)

func testStorageConfig(t *testing.T) config.Storage {
	return config.Storage{
		LogFile: filepath.Join(t.TempDir(), "traffic_log.csv"),
	}
}

func TestRecordReadRoundTrip(t *testing.T) {
	cfg := testStorageConfig(t)
	r, err := recorder.New(cfg, "main")
	assert.NoError(t, err)

	r.Record(controller.Decision{
		Timestamp:         100.5,
		VerticalWaiting:   3,
		HorizontalWaiting: 7,
		VerticalLight:     controller.LightGreen,
		HorizontalLight:   controller.LightRed,
		Action:            controller.ActionStay,
		Reward:            0,
	})
	r.Record(controller.Decision{
		Timestamp:         101.5,
		VerticalWaiting:   0,
		HorizontalWaiting: 7,
		VerticalLight:     controller.LightGreen,
		HorizontalLight:   controller.LightRed,
		Action:            controller.ActionSwitch,
		Reward:            -7,
	})
	assert.NoError(t, r.Close())

	records, err := recorder.ReadCSV(cfg.LogFile)
	assert.NoError(t, err)
	assert.Len(t, records, 2)

	assert.Equal(t, 100.5, records[0].Timestamp)
	assert.Equal(t, "main", records[0].IntersectionID)
	assert.Equal(t, 3, records[0].VerticalWaiting)
	assert.Equal(t, 7, records[0].HorizontalWaiting)
	assert.Equal(t, "green", records[0].VerticalLight)
	assert.Equal(t, "red", records[0].HorizontalLight)
	assert.Equal(t, "stay", records[0].Action)
	assert.Equal(t, 0.0, records[0].Reward)

	assert.Equal(t, "switch", records[1].Action)
	assert.Equal(t, -7.0, records[1].Reward)
}

func TestAppendToExistingLog(t *testing.T) {
	cfg := testStorageConfig(t)
	r, err := recorder.New(cfg, "main")
	assert.NoError(t, err)
	r.Record(controller.Decision{Timestamp: 1, Action: controller.ActionStay})
	assert.NoError(t, r.Close())

	// 第二个记录器追加到同一文件，不重复写表头
	r, err = recorder.New(cfg, "main")
	assert.NoError(t, err)
	r.Record(controller.Decision{Timestamp: 2, Action: controller.ActionSwitch})
	assert.NoError(t, r.Close())

	records, err := recorder.ReadCSV(cfg.LogFile)
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1.0, records[0].Timestamp)
	assert.Equal(t, 2.0, records[1].Timestamp)
}

func TestReadCSVSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic_log.csv")
	content := "timestamp,intersection_id,vertical_waiting,horizontal_waiting," +
		"current_vertical_light,current_horizontal_light,action_taken,reward\n" +
		"1.5,main,2,3,green,red,stay,0\n" +
		"not-a-number,main,2,3,green,red,stay,0\n" +
		"2.5,main,4,oops,green,red,switch,-4\n" +
		"3.5,main,1,1,red,green,stay,0\n"
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := recorder.ReadCSV(path)
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1.5, records[0].Timestamp)
	assert.Equal(t, 3.5, records[1].Timestamp)
}

func TestReadCSVSortsByTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic_log.csv")
	content := "timestamp,intersection_id,vertical_waiting,horizontal_waiting," +
		"current_vertical_light,current_horizontal_light,action_taken,reward\n" +
		"5,main,1,1,green,red,stay,0\n" +
		"1,main,2,2,green,red,stay,0\n" +
		"3,main,3,3,green,red,stay,0\n"
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	records, err := recorder.ReadCSV(path)
	assert.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, 1.0, records[0].Timestamp)
	assert.Equal(t, 3.0, records[1].Timestamp)
	assert.Equal(t, 5.0, records[2].Timestamp)
}

func TestLoadPrefersFile(t *testing.T) {
	cfg := testStorageConfig(t)
	content := "timestamp,intersection_id,vertical_waiting,horizontal_waiting," +
		"current_vertical_light,current_horizontal_light,action_taken,reward\n" +
		"1,main,2,2,green,red,stay,0\n"
	assert.NoError(t, os.WriteFile(cfg.LogFile, []byte(content), 0o644))
	// uri配置了不可达的地址，但文件存在时不会触达MongoDB
	cfg.URI = "mongodb://127.0.0.1:1"

	records, err := recorder.Load(cfg)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadWithoutAnySource(t *testing.T) {
	cfg := testStorageConfig(t)
	_, err := recorder.Load(cfg)
	assert.Error(t, err)
}
