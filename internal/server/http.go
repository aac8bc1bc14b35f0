// Package server exposes the gateway over HTTP/JSON. Venue-scale
// values (sizes, prices, native fees) travel as decimal strings;
// settlement amounts are int64 minor units.
package server

import (
	"errors"
	"math/big"
	"net/http"
	"time"

	"PerpGateway/internal/observability"
	"PerpGateway/internal/orchestrator"
	"PerpGateway/internal/venue"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Server struct {
	orch    *orchestrator.Orchestrator
	health  *observability.HealthChecker
	metrics *observability.Metrics
	log     zerolog.Logger
}

func New(orch *orchestrator.Orchestrator, health *observability.HealthChecker, metrics *observability.Metrics, log zerolog.Logger) *Server {
	return &Server{orch: orch, health: health, metrics: metrics, log: log}
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.observe())

	r.GET("/healthz", gin.WrapF(s.health.LivenessHandler))
	r.GET("/readyz", gin.WrapF(s.health.ReadinessHandler))

	api := r.Group("/api")

	api.POST("/accounts", s.handleCreateAccount)

	margin := api.Group("/margin")
	margin.POST("/transfer", s.handleTransferMargin)
	margin.POST("/withdraw", s.handleWithdrawMargin)

	positions := api.Group("/positions")
	positions.POST("/open", s.handleOpenPosition)
	positions.POST("/close", s.handleClosePosition)

	orders := api.Group("/orders")
	orders.GET("/:key", s.handleGetOrder)
	orders.POST("/:key/cancel", s.handleCancelOrder)

	users := api.Group("/users")
	users.GET("/:id/account", s.handleGetAccount)
	users.GET("/:id/balance", s.handleGetBalance)
	users.GET("/:id/positions", s.handleGetPositions)

	api.GET("/assets", s.handleGetAssets)
	api.GET("/fees/execution", s.handleMinExecutionFee)

	admin := api.Group("/admin")
	admin.POST("/whitelist/add", s.handleWhitelistAdd)
	admin.POST("/whitelist/remove", s.handleWhitelistRemove)
	admin.POST("/assets/add", s.handleAssetAdd)
	admin.POST("/assets/remove", s.handleAssetRemove)

	return r
}

// observe records request metrics by route template
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		s.metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, http.StatusText(c.Writer.Status())).Inc()
		s.metrics.HTTPDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// ------------------------------------------------------------------
// Requests
// ------------------------------------------------------------------

type userRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type marginRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Amount int64  `json:"amount" binding:"required"`
}

type openRequest struct {
	UserID          string `json:"user_id" binding:"required"`
	IndexAsset      string `json:"index_asset" binding:"required"`
	IsLong          bool   `json:"is_long"`
	Margin          int64  `json:"margin" binding:"required"`
	SizeDelta       string `json:"size_delta"`
	AcceptablePrice string `json:"acceptable_price"`
	MinOut          string `json:"min_out"`
	ExecutionFee    string `json:"execution_fee" binding:"required"`
	AttachedValue   string `json:"attached_value" binding:"required"`
}

type closeRequest struct {
	UserID          string `json:"user_id" binding:"required"`
	IndexAsset      string `json:"index_asset" binding:"required"`
	IsLong          bool   `json:"is_long"`
	CollateralDelta string `json:"collateral_delta"`
	SizeDelta       string `json:"size_delta"`
	AcceptablePrice string `json:"acceptable_price"`
	MinOut          string `json:"min_out"`
	Receiver        string `json:"receiver"`
	ExecutionFee    string `json:"execution_fee" binding:"required"`
	AttachedValue   string `json:"attached_value" binding:"required"`
}

type adminUserRequest struct {
	CallerID string `json:"caller_id" binding:"required"`
	UserID   string `json:"user_id" binding:"required"`
}

type adminAssetRequest struct {
	CallerID string `json:"caller_id" binding:"required"`
	Symbol   string `json:"symbol" binding:"required"`
}

// ------------------------------------------------------------------
// Handlers
// ------------------------------------------------------------------

func (s *Server) handleCreateAccount(c *gin.Context) {
	var req userRequest
	if !s.bind(c, &req) {
		return
	}
	userID, ok := s.parseUUID(c, req.UserID)
	if !ok {
		return
	}

	account, err := s.orch.CreateAccount(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"account": account})
}

func (s *Server) handleTransferMargin(c *gin.Context) {
	var req marginRequest
	if !s.bind(c, &req) {
		return
	}
	userID, ok := s.parseUUID(c, req.UserID)
	if !ok {
		return
	}

	if err := s.orch.TransferMargin(c.Request.Context(), userID, req.Amount); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.balanceBody(userID))
}

func (s *Server) handleWithdrawMargin(c *gin.Context) {
	var req marginRequest
	if !s.bind(c, &req) {
		return
	}
	userID, ok := s.parseUUID(c, req.UserID)
	if !ok {
		return
	}

	if err := s.orch.WithdrawMargin(c.Request.Context(), userID, req.Amount); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.balanceBody(userID))
}

func (s *Server) handleOpenPosition(c *gin.Context) {
	var req openRequest
	if !s.bind(c, &req) {
		return
	}
	userID, ok := s.parseUUID(c, req.UserID)
	if !ok {
		return
	}

	fee, ok := s.parseBig(c, "execution_fee", req.ExecutionFee)
	if !ok {
		return
	}
	attached, ok := s.parseBig(c, "attached_value", req.AttachedValue)
	if !ok {
		return
	}
	sizeDelta, ok := s.parseBigOptional(c, "size_delta", req.SizeDelta)
	if !ok {
		return
	}
	acceptable, ok := s.parseBigOptional(c, "acceptable_price", req.AcceptablePrice)
	if !ok {
		return
	}
	minOut, ok := s.parseBigOptional(c, "min_out", req.MinOut)
	if !ok {
		return
	}

	key, err := s.orch.OpenPosition(c.Request.Context(), userID, orchestrator.OpenParams{
		IndexAsset:      req.IndexAsset,
		IsLong:          req.IsLong,
		Margin:          req.Margin,
		SizeDelta:       sizeDelta,
		AcceptablePrice: acceptable,
		MinOut:          minOut,
		ExecutionFee:    fee,
		AttachedValue:   attached,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order_key": string(key)})
}

func (s *Server) handleClosePosition(c *gin.Context) {
	var req closeRequest
	if !s.bind(c, &req) {
		return
	}
	userID, ok := s.parseUUID(c, req.UserID)
	if !ok {
		return
	}

	fee, ok := s.parseBig(c, "execution_fee", req.ExecutionFee)
	if !ok {
		return
	}
	attached, ok := s.parseBig(c, "attached_value", req.AttachedValue)
	if !ok {
		return
	}
	collateralDelta, ok := s.parseBigOptional(c, "collateral_delta", req.CollateralDelta)
	if !ok {
		return
	}
	sizeDelta, ok := s.parseBigOptional(c, "size_delta", req.SizeDelta)
	if !ok {
		return
	}
	acceptable, ok := s.parseBigOptional(c, "acceptable_price", req.AcceptablePrice)
	if !ok {
		return
	}
	minOut, ok := s.parseBigOptional(c, "min_out", req.MinOut)
	if !ok {
		return
	}

	err := s.orch.ClosePosition(c.Request.Context(), userID, orchestrator.CloseParams{
		IndexAsset:      req.IndexAsset,
		IsLong:          req.IsLong,
		CollateralDelta: collateralDelta,
		SizeDelta:       sizeDelta,
		AcceptablePrice: acceptable,
		MinOut:          minOut,
		Receiver:        req.Receiver,
		ExecutionFee:    fee,
		AttachedValue:   attached,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "forwarded"})
}

func (s *Server) handleCancelOrder(c *gin.Context) {
	var req userRequest
	if !s.bind(c, &req) {
		return
	}
	userID, ok := s.parseUUID(c, req.UserID)
	if !ok {
		return
	}

	key := venue.OrderKey(c.Param("key"))
	err := s.orch.CancelOrder(c.Request.Context(), userID, key)
	if errors.Is(err, orchestrator.ErrOrderAlreadyExecuted) {
		// terminal outcome, escrow consumed; report it distinctly
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": "finalized"})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (s *Server) handleGetOrder(c *gin.Context) {
	order, err := s.orch.GetOrder(venue.OrderKey(c.Param("key")))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_key":     string(order.OrderKey),
		"owner":         order.Owner.String(),
		"account":       order.Account,
		"index_asset":   order.IndexAsset,
		"is_long":       order.IsLong,
		"margin":        order.Margin,
		"execution_fee": order.ExecutionFee.String(),
		"submitted_at":  order.SubmittedAt,
		"status":        order.Status.String(),
	})
}

func (s *Server) handleGetAccount(c *gin.Context) {
	userID, ok := s.parseUUID(c, c.Param("id"))
	if !ok {
		return
	}

	account, err := s.orch.GetUserAccount(userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID.String(), "account": account})
}

func (s *Server) handleGetBalance(c *gin.Context) {
	userID, ok := s.parseUUID(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.balanceBody(userID))
}

func (s *Server) handleGetPositions(c *gin.Context) {
	userID, ok := s.parseUUID(c, c.Param("id"))
	if !ok {
		return
	}

	indexAssets := c.QueryArray("index_asset")
	var isLong []bool
	for _, v := range c.QueryArray("is_long") {
		isLong = append(isLong, v == "true")
	}
	if len(indexAssets) == 0 {
		// default: both directions for every supported asset
		for _, asset := range s.orch.SupportedAssets() {
			indexAssets = append(indexAssets, asset, asset)
			isLong = append(isLong, true, false)
		}
	}
	if len(indexAssets) != len(isLong) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index_asset and is_long params must align"})
		return
	}

	positions, err := s.orch.GetPositions(c.Request.Context(), userID, indexAssets, isLong)
	if err != nil {
		s.fail(c, err)
		return
	}

	out := make([]gin.H, len(positions))
	for i, p := range positions {
		out[i] = gin.H{
			"index_asset":         indexAssets[i],
			"is_long":             isLong[i],
			"size":                p.Size.String(),
			"collateral":          p.Collateral.String(),
			"average_price":       p.AveragePrice.String(),
			"entry_funding_rate":  p.EntryFundingRate.String(),
			"has_realised_profit": p.HasRealisedProfit,
			"realised_pnl":        p.RealisedPnl.String(),
			"last_increased_time": p.LastIncreasedTime.String(),
			"has_profit":          p.HasProfit,
			"delta":               p.Delta.String(),
		}
	}
	c.JSON(http.StatusOK, gin.H{"positions": out})
}

func (s *Server) handleGetAssets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"assets": s.orch.SupportedAssets()})
}

func (s *Server) handleMinExecutionFee(c *gin.Context) {
	fee, err := s.orch.MinExecutionFee(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"min_execution_fee": fee.String()})
}

func (s *Server) handleWhitelistAdd(c *gin.Context) {
	s.adminWhitelist(c, true)
}

func (s *Server) handleWhitelistRemove(c *gin.Context) {
	s.adminWhitelist(c, false)
}

func (s *Server) adminWhitelist(c *gin.Context, add bool) {
	var req adminUserRequest
	if !s.bind(c, &req) {
		return
	}
	callerID, ok := s.parseUUID(c, req.CallerID)
	if !ok {
		return
	}
	userID, ok := s.parseUUID(c, req.UserID)
	if !ok {
		return
	}

	var err error
	if add {
		err = s.orch.AddToWhitelist(callerID, userID)
	} else {
		err = s.orch.RemoveFromWhitelist(callerID, userID)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"whitelisted": add})
}

func (s *Server) handleAssetAdd(c *gin.Context) {
	s.adminAsset(c, true)
}

func (s *Server) handleAssetRemove(c *gin.Context) {
	s.adminAsset(c, false)
}

func (s *Server) adminAsset(c *gin.Context, add bool) {
	var req adminAssetRequest
	if !s.bind(c, &req) {
		return
	}
	callerID, ok := s.parseUUID(c, req.CallerID)
	if !ok {
		return
	}

	var err error
	if add {
		err = s.orch.AddAsset(callerID, req.Symbol)
	} else {
		err = s.orch.RemoveAsset(callerID, req.Symbol)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": s.orch.SupportedAssets()})
}

// ------------------------------------------------------------------
// Helpers
// ------------------------------------------------------------------

func (s *Server) balanceBody(userID uuid.UUID) gin.H {
	bal := s.orch.GetUserBalance(userID)
	return gin.H{
		"user_id":    userID.String(),
		"collateral": bal.Collateral,
		"escrow":     bal.Escrow,
	}
}

func (s *Server) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (s *Server) parseUUID(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) parseBig(c *gin.Context, field, raw string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid decimal value for " + field})
		return nil, false
	}
	return v, true
}

func (s *Server) parseBigOptional(c *gin.Context, field, raw string) (*big.Int, bool) {
	if raw == "" {
		return new(big.Int), true
	}
	return s.parseBig(c, field, raw)
}

// fail maps sentinel errors to HTTP statuses
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, orchestrator.ErrUserNotWhitelisted),
		errors.Is(err, orchestrator.ErrNotOwner),
		errors.Is(err, orchestrator.ErrNotOrderOwner):
		status = http.StatusForbidden
	case errors.Is(err, orchestrator.ErrNoAccount),
		errors.Is(err, orchestrator.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, orchestrator.ErrAccountAlreadyExists),
		errors.Is(err, orchestrator.ErrOrderNotCancellable):
		status = http.StatusConflict
	case errors.Is(err, orchestrator.ErrCancellationTooEarly):
		status = http.StatusTooEarly
	case errors.Is(err, orchestrator.ErrInvalidAmount),
		errors.Is(err, orchestrator.ErrInsufficientBalance),
		errors.Is(err, orchestrator.ErrNativeFeeMismatch),
		errors.Is(err, orchestrator.ErrAssetNotSupported):
		status = http.StatusBadRequest
	default:
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
