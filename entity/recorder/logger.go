package recorder

import "github.com/sirupsen/logrus"

// log 决策记录模块的日志记录器
// 功能：为recorder模块提供统一的日志记录功能
// 说明：使用logrus库，并添加"module"字段标识为"recorder"模块
var log = logrus.WithField("module", "recorder")
