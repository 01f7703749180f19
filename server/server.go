// 对外HTTP/WebSocket接口
// 传感器上报、状态读取、相位偏好与快照订阅都经过这里，控制逻辑全部委托给控制器
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/signalet-oss/entity/controller"
	"github.com/tsinghua-fib-lab/signalet-oss/utils/config"
)

// upgrader WebSocket升级器，跨域校验交给CORS配置
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server 对外接口服务
// 功能：承载HTTP API与WebSocket快照订阅
type Server struct {
	job  string
	ctrl *controller.ActuatedController
	hub  *Hub
	srv  *http.Server
}

// New 创建对外接口服务
// 功能：装配gin路由、CORS中间件与WebSocket集线器
// 参数：cfg-服务配置，job-路口名，ctrl-控制器
// 返回：服务实例
// 路由说明：
//   - POST /traffic    传感器上报（绝对计数或到达/离开增量）
//   - GET  /state      控制器状态快照
//   - POST /preference 相位偏好请求
//   - GET  /ws         WebSocket快照订阅
func New(cfg config.Server, job string, ctrl *controller.ActuatedController) *Server {
	s := &Server{
		job:  job,
		ctrl: ctrl,
		hub:  NewHub(),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), corsMiddleware(cfg.AllowOrigins))

	engine.POST("/traffic", s.handleTraffic)
	engine.GET("/state", s.handleState)
	engine.POST("/preference", s.handlePreference)
	engine.GET("/ws", s.handleWebSocket)

	s.srv = &http.Server{
		Addr:    cfg.Listen,
		Handler: engine,
	}
	return s
}

// Hub 获取广播集线器
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler 获取HTTP处理器
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run 启动HTTP服务
// 说明：阻塞直至服务关闭；正常关闭不视为错误
func (s *Server) Run() error {
	log.Infof("server listening at %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭HTTP服务与全部观察者连接
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.srv.Shutdown(ctx)
}

// corsMiddleware 跨域中间件
// 说明：按配置回显允许的来源；"*"表示全部放行
func corsMiddleware(allowOrigins []string) gin.HandlerFunc {
	allowAll := lo.Contains(allowOrigins, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if lo.Contains(allowOrigins, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// handleTraffic 处理传感器上报
// 功能：宽松解析上报字段并摄入控制器，单个字段解析失败不影响其余字段
func (s *Server) handleTraffic(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}
	s.ctrl.IngestSensor(controller.ParseSensorInput(raw))
	c.JSON(http.StatusOK, gin.H{"message": "traffic data updated for " + s.job})
}

// handleState 返回控制器状态快照
func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.Snapshot())
}

// preferenceRequest 相位偏好请求体
type preferenceRequest struct {
	Phase string `json:"phase"`
}

// handlePreference 处理相位偏好请求
// 说明：偏好是尽力而为的软请求，在下一次ALL_RED→GREEN边界至多被消费一次
func (s *Server) handlePreference(c *gin.Context) {
	var req preferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}
	phase := controller.PhaseGroup(req.Phase)
	if !phase.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phase must be NS or EW"})
		return
	}
	s.ctrl.RequestPhasePreference(phase)
	c.JSON(http.StatusOK, gin.H{"message": "phase preference recorded", "phase": phase})
}

// handleWebSocket 处理快照订阅
// 功能：升级连接、注册观察者、立即推送一份当前快照
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("failed to upgrade the websocket: %v", err)
		return
	}
	// 连接建立即推送当前快照（注册写协程之前，避免并发写）
	if err := conn.WriteJSON(s.ctrl.Snapshot()); err != nil {
		log.Warnf("failed to write initial snapshot: %v", err)
		conn.Close()
		return
	}
	cl := s.hub.add(conn)

	// 读协程只用于感知断开，忽略入站数据
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.remove(cl.id)
				return
			}
		}
	}()
}
