package client

import (
	"errors"
	"net/http"

	"github.com/cloudflare/cfssl/log"
	"github.com/gin-gonic/gin"

	"github.com/poolfund/account"
	"github.com/poolfund/chain"
	"github.com/poolfund/contract"
	"github.com/poolfund/meta"
)

func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method

		origin := c.Request.Header.Get("Origin")

		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type,AccessToken,X-CSRF-Token, Authorization, X-Invoker") //自定义 Header
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Content-Type")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if method == "OPTIONS" {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Headers", "Content-Type,AccessToken,X-CSRF-Token, Authorization, X-Invoker") //自定义 Header
			c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Content-Type")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type tokenInitializeReq struct {
	Token    meta.TokenID `json:"token" binding:"required"`
	Decimals uint32       `json:"decimals"`
	Name     string       `json:"name" binding:"required"`
	Symbol   string       `json:"symbol" binding:"required"`
}

type tokenMintReq struct {
	Token  meta.TokenID `json:"token" binding:"required"`
	To     string       `json:"to" binding:"required"`
	Amount int64        `json:"amount"`
}

type tokenApproveReq struct {
	Token   meta.TokenID `json:"token" binding:"required"`
	Spender string       `json:"spender"` // 默认为奖池合约
	Amount  int64        `json:"amount"`
}

type initializeReq struct {
	Admin string       `json:"admin"` // 默认为调用者
	Token meta.TokenID `json:"token" binding:"required"`
}

type depositReq struct {
	Participant string `json:"participant"` // 默认为调用者
	Amount      int64  `json:"amount"`
}

type attendedReq struct {
	Participant string `json:"participant" binding:"required"`
}

// 创建代币，调用者成为代币管理员
func (s *Server) tokenInitialize(ctx *gin.Context) {
	invoker, ok := invokerOf(ctx)
	if !ok {
		return
	}
	var req tokenInitializeReq
	if !bind(ctx, &req) {
		return
	}
	s.invoke(ctx, invoker, meta.Contract(req.Token.String()), "initialize", func(tx *chain.Tx) (interface{}, error) {
		return nil, tx.Token(req.Token).Initialize(invoker, req.Decimals, req.Name, req.Symbol)
	})
}

func (s *Server) tokenMint(ctx *gin.Context) {
	invoker, ok := invokerOf(ctx)
	if !ok {
		return
	}
	var req tokenMintReq
	if !bind(ctx, &req) {
		return
	}
	to, ok := identifier(ctx, req.To)
	if !ok {
		return
	}
	s.invoke(ctx, invoker, meta.Contract(req.Token.String()), "mint", func(tx *chain.Tx) (interface{}, error) {
		return nil, tx.Token(req.Token).Mint(invoker, to, req.Amount)
	})
}

// 调用者授权 spender 从自己账户划款
func (s *Server) tokenApprove(ctx *gin.Context) {
	invoker, ok := invokerOf(ctx)
	if !ok {
		return
	}
	var req tokenApproveReq
	if !bind(ctx, &req) {
		return
	}
	spender := s.pool
	if req.Spender != "" {
		if spender, ok = identifier(ctx, req.Spender); !ok {
			return
		}
	}
	s.invoke(ctx, invoker, meta.Contract(req.Token.String()), "approve", func(tx *chain.Tx) (interface{}, error) {
		return nil, tx.Token(req.Token).Approve(invoker, spender, req.Amount)
	})
}

func (s *Server) tokenBalance(ctx *gin.Context) {
	var token meta.TokenID
	if err := token.UnmarshalText([]byte(ctx.Query("token"))); err != nil {
		ctx.JSON(http.StatusBadRequest, errResponse("INVALID_PARAM", "token: "+err.Error()))
		return
	}
	id, ok := identifier(ctx, ctx.Query("id"))
	if !ok {
		return
	}
	var bal int64
	err := s.host.View(ctx.Request.Context(), id, func(tx *chain.Tx) error {
		var err error
		bal, err = tx.Token(token).Balance(id)
		return err
	})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, goodResponse(gin.H{"id": id.String(), "balance": bal}))
}

func (s *Server) initialize(ctx *gin.Context) {
	invoker, ok := invokerOf(ctx)
	if !ok {
		return
	}
	var req initializeReq
	if !bind(ctx, &req) {
		return
	}
	admin := invoker
	if req.Admin != "" {
		if admin, ok = identifier(ctx, req.Admin); !ok {
			return
		}
	}
	s.invoke(ctx, invoker, s.pool, "initialize", func(tx *chain.Tx) (interface{}, error) {
		return nil, tx.Distribution(s.pool).Initialize(admin, req.Token)
	})
}

func (s *Server) deposit(ctx *gin.Context) {
	invoker, ok := invokerOf(ctx)
	if !ok {
		return
	}
	var req depositReq
	if !bind(ctx, &req) {
		return
	}
	participant := invoker
	if req.Participant != "" {
		if participant, ok = identifier(ctx, req.Participant); !ok {
			return
		}
	}
	s.invoke(ctx, invoker, s.pool, "deposit", func(tx *chain.Tx) (interface{}, error) {
		return nil, tx.Distribution(s.pool).Deposit(participant, req.Amount)
	})
}

func (s *Server) attended(ctx *gin.Context) {
	invoker, ok := invokerOf(ctx)
	if !ok {
		return
	}
	var req attendedReq
	if !bind(ctx, &req) {
		return
	}
	participant, ok := identifier(ctx, req.Participant)
	if !ok {
		return
	}
	s.invoke(ctx, invoker, s.pool, "attended", func(tx *chain.Tx) (interface{}, error) {
		return nil, tx.Distribution(s.pool).Attended(participant)
	})
}

func (s *Server) distribute(ctx *gin.Context) {
	invoker, ok := invokerOf(ctx)
	if !ok {
		return
	}
	s.invoke(ctx, invoker, s.pool, "distribute", func(tx *chain.Tx) (interface{}, error) {
		return tx.Distribution(s.pool).Distribute()
	})
}

func (s *Server) refund(ctx *gin.Context) {
	invoker, ok := invokerOf(ctx)
	if !ok {
		return
	}
	s.invoke(ctx, invoker, s.pool, "refund", func(tx *chain.Tx) (interface{}, error) {
		total, err := tx.Distribution(s.pool).Refund()
		return gin.H{"total": total}, err
	})
}

func (s *Server) state(ctx *gin.Context) {
	var st meta.ContractState
	err := s.host.View(ctx.Request.Context(), meta.Identifier{}, func(tx *chain.Tx) error {
		var err error
		st, err = tx.Distribution(s.pool).State()
		return err
	})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, goodResponse(st))
}

func (s *Server) receipts(ctx *gin.Context) {
	receipts, err := s.host.Receipts(ctx.Request.Context())
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, goodResponse(receipts))
}

// invoke 在宿主事务中执行一次调用，成功时返回回执和调用结果
func (s *Server) invoke(ctx *gin.Context, invoker, target meta.Identifier, method string, fn func(tx *chain.Tx) (interface{}, error)) {
	var result interface{}
	call := chain.Call{Invoker: invoker, Contract: target, Method: method}
	receipt, err := s.host.Invoke(ctx.Request.Context(), call, func(tx *chain.Tx) error {
		var err error
		result, err = fn(tx)
		return err
	})
	if err != nil {
		s.fail(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, goodResponse(gin.H{"receipt": receipt, "result": result}))
}

func (s *Server) fail(ctx *gin.Context, err error) {
	status, code := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("[%s %s] %s", ctx.Request.Method, ctx.FullPath(), err)
	}
	ctx.JSON(status, errResponse(code, err.Error()))
}

// statusOf 将合约和账本错误映射到 http 状态码
func statusOf(err error) (int, string) {
	if code := contract.CodeOf(err); code != "" {
		switch code {
		case contract.CodeNotAuthorized:
			return http.StatusForbidden, string(code)
		case contract.CodeNotInitialized, contract.CodeUnknownParticipant:
			return http.StatusNotFound, string(code)
		case contract.CodeAlreadyInitialized, contract.CodeDuplicateDeposit, contract.CodeAlreadySettled:
			return http.StatusConflict, string(code)
		case contract.CodeInvalidAmount:
			return http.StatusBadRequest, string(code)
		case contract.CodeNoEligibleParticipants, contract.CodeLedgerOperationFailed:
			return http.StatusUnprocessableEntity, string(code)
		}
		return http.StatusInternalServerError, string(code)
	}
	switch {
	case errors.Is(err, account.ErrNotAuthorized):
		return http.StatusForbidden, "TOKEN_NOT_AUTHORIZED"
	case errors.Is(err, account.ErrNotInitialized):
		return http.StatusNotFound, "TOKEN_NOT_INITIALIZED"
	case errors.Is(err, account.ErrAlreadyInitialized):
		return http.StatusConflict, "TOKEN_ALREADY_INITIALIZED"
	case errors.Is(err, account.ErrNegativeAmount):
		return http.StatusBadRequest, "INVALID_AMOUNT"
	case errors.Is(err, account.ErrInsufficientBalance), errors.Is(err, account.ErrInsufficientAllowance),
		errors.Is(err, account.ErrOverflow):
		return http.StatusUnprocessableEntity, "TOKEN_REJECTED"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func invokerOf(ctx *gin.Context) (meta.Identifier, bool) {
	raw := ctx.GetHeader(InvokerHeader)
	if raw == "" {
		ctx.JSON(http.StatusUnauthorized, errResponse("MISSING_INVOKER", InvokerHeader+" header is required"))
		return meta.Identifier{}, false
	}
	id, err := meta.ParseIdentifier(raw)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errResponse("INVALID_PARAM", InvokerHeader+": "+err.Error()))
		return meta.Identifier{}, false
	}
	return id, true
}

func identifier(ctx *gin.Context, raw string) (meta.Identifier, bool) {
	id, err := meta.ParseIdentifier(raw)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errResponse("INVALID_PARAM", err.Error()))
		return meta.Identifier{}, false
	}
	return id, true
}

func bind(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		log.Infof("[bind] %s: %s", ctx.FullPath(), err)
		ctx.JSON(http.StatusBadRequest, errResponse("INVALID_PARAM", err.Error()))
		return false
	}
	return true
}

// 正常响应，返回数据
func goodResponse(data interface{}) meta.HttpResponse {
	res := meta.HttpResponse{
		Data: data,
	}
	return res
}

// 出现异常，返回异常信息
func errResponse(code, errMsg string) meta.HttpResponse {
	res := meta.HttpResponse{
		Error: errMsg,
		Code:  code,
		Data:  "",
	}
	return res
}
