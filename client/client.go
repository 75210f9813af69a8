package client

import (
	"github.com/cloudflare/cfssl/log"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"

	"github.com/poolfund/chain"
	"github.com/poolfund/config"
	"github.com/poolfund/meta"
)

// InvokerHeader 请求头中携带调用者身份，例如 account:alice
const InvokerHeader = "X-Invoker"

// Server 对外提供合约调用和查询的 http 接口
type Server struct {
	host *chain.Host
	pool meta.Identifier
	hub  *Hub
	cfg  config.ClientConfig
}

func NewServer(host *chain.Host, pool meta.Identifier, hub *Hub, cfg config.ClientConfig) *Server {
	return &Server{host: host, pool: pool, hub: hub, cfg: cfg}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(Cors()) // 使用跨域组件
	if s.cfg.SSLRedirect {
		r.Use(TlsHandler(s.cfg.SSLHost)) // 重定向为https
	}

	token := r.Group("/token")
	token.POST("/initialize", s.tokenInitialize) // 创建代币
	token.POST("/mint", s.tokenMint)             // 铸币
	token.POST("/approve", s.tokenApprove)       // 授权额度
	token.GET("/balance", s.tokenBalance)        // 查询余额

	r.POST("/initialize", s.initialize) // 初始化奖池合约
	r.POST("/deposit", s.deposit)       // 存款
	r.POST("/attended", s.attended)     // 登记出席
	r.POST("/distribute", s.distribute) // 平分奖池
	r.POST("/refund", s.refund)         // 全额退款
	r.GET("/state", s.state)            // 合约状态
	r.GET("/receipts", s.receipts)      // 调用回执
	r.GET("/events", s.events)          // 通过websocket推送合约事件
	return r
}

// 监听用户请求
func (s *Server) Run() error {
	log.Info(" ---------------------------------------------------------------------------------")
	log.Infof("|  pool contract %s listening on %s  |", s.pool, s.cfg.Addr)
	log.Info(" ---------------------------------------------------------------------------------")
	r := s.Router()
	if s.cfg.TLS() {
		return r.RunTLS(s.cfg.Addr, s.cfg.CertFile, s.cfg.KeyFile)
	}
	return r.Run(s.cfg.Addr)
}

func TlsHandler(host string) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect: true,
		SSLHost:     host,
	})
	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)

		// If there was an error, do not continue.
		if err != nil {
			c.Abort()
			return
		}
		// Avoid header rewrite if response is a redirection.
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
