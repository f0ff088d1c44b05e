package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/tix-rail/internal/domain"
	redisrepo "github.com/kirinyoku/tix-rail/internal/repository/redis"
	"github.com/kirinyoku/tix-rail/internal/service"
	"github.com/kirinyoku/tix-rail/internal/service/admin"
	"github.com/kirinyoku/tix-rail/internal/service/query"
	"github.com/kirinyoku/tix-rail/internal/service/reservation"
)

type AuthConfig struct {
	JWTSecret string
	AdminRole string
}

// NewRouter builds the HTTP API. idem may be nil, then Idempotency-Key is
// ignored.
func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	auth AuthConfig,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORS(),
		gzip.Gzip(gzip.DefaultCompression),
	)
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/trains/:id", handleQueryTrain(svcs))
	r.GET("/tickets", handleQueryTickets(svcs))
	r.GET("/transfers", handleQueryTransfer(svcs))

	authed := r.Group("/", Auth(auth.JWTSecret))
	{
		authed.POST("/orders", handlePurchase(svcs, idem))
		authed.GET("/orders", handleListOrders(svcs))
		authed.POST("/orders/refund", handleRefund(svcs))
	}

	adminGroup := r.Group("/admin", Auth(auth.JWTSecret), RequireRole(auth.AdminRole))
	{
		adminGroup.POST("/trains", handleCreateTrain(svcs))
		adminGroup.POST("/trains/:id/release", handleReleaseTrain(svcs))
		adminGroup.DELETE("/trains/:id", handleRemoveTrain(svcs))
		adminGroup.POST("/clean", handleClean(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Train timetable and seats for one sale date
// @Param    id    path   string  true  "Train ID"
// @Param    date  query  string  true  "Departure date at the origin, MM-DD"
// @Success  200  {object}  domain.TrainItinerary
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /trains/{id} [get]
func handleQueryTrain(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		date, ok := parseDayQuery(c, "date")
		if !ok {
			return
		}
		it, err := svcs.Query.QueryTrain(c.Request.Context(), c.Param("id"), date)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, it, "no-cache", true)
	}
}

// @Summary  Direct trains between two stations
// @Param    from  query  string  true   "Boarding station"
// @Param    to    query  string  true   "Destination station"
// @Param    date  query  string  true   "Departure date at the boarding station, MM-DD"
// @Param    sort  query  string  false  "time (default) or cost"
// @Success  200  {object}  TicketsResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /tickets [get]
func handleQueryTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, date, ok := parseRouteQuery(c)
		if !ok {
			return
		}
		tickets, err := svcs.Query.QueryTickets(
			c.Request.Context(),
			from,
			to,
			date,
			domain.SortKey(c.Query("sort")),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, TicketsResponse{Count: len(tickets), Tickets: tickets}, "no-cache", true)
	}
}

// @Summary  Best trip with one change of train
// @Param    from  query  string  true   "Boarding station"
// @Param    to    query  string  true   "Destination station"
// @Param    date  query  string  true   "Departure date at the boarding station, MM-DD"
// @Param    sort  query  string  false  "time (default) or cost"
// @Success  200  {object}  TransferResponse
// @Failure  400  {object}  ErrorResponse
// @Router   /transfers [get]
func handleQueryTransfer(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, date, ok := parseRouteQuery(c)
		if !ok {
			return
		}
		plan, err := svcs.Query.QueryTransfer(
			c.Request.Context(),
			from,
			to,
			date,
			domain.SortKey(c.Query("sort")),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, TransferResponse{Found: plan != nil, Plan: plan}, "no-cache", true)
	}
}

// @Summary  Buy tickets (idempotent)
// @Security BearerAuth
// @Param    req body  PurchaseRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} domain.Receipt "bought"
// @Success  202 {object} domain.Receipt "queued"
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "not enough seats / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /orders [post]
func handlePurchase(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PurchaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		date, err := domain.ParseDay(req.Date)
		if err != nil {
			badRequest(c, "invalid date (MM-DD)")
			return
		}

		username := c.GetString(ctxUsername)

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemPurchase(username, idemKey)

			if replayed := replayStored(c, idem, idemStorageKey, idemKey); replayed {
				return
			}

			locked, err := idem.AcquireLock(
				c.Request.Context(),
				idemStorageKey,
				60*time.Second,
			)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if replayStored(c, idem, idemStorageKey, idemKey) {
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(
					http.StatusConflict,
					ErrorResponse{Error: "idempotency key in progress"},
				)
				return
			}
		}

		receipt, err := svcs.Reservation.Purchase(c.Request.Context(), reservation.PurchaseRequest{
			Username:    username,
			TrainID:     req.TrainID,
			Date:        date,
			From:        req.From,
			To:          req.To,
			Seats:       req.Seats,
			QueueIfFull: req.Queue,
		})
		if err != nil {
			if idemStorageKey != "" {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		status := http.StatusCreated
		if receipt.Queued() {
			status = http.StatusAccepted
		}

		if idemStorageKey != "" {
			b, _ := json.Marshal(receipt)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, redisrepo.StoredResponse{Status: status, Body: b})
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(status, receipt)
	}
}

// @Summary  Order history, most recent first
// @Security BearerAuth
// @Success  200 {array} OrderResponse
// @Router   /orders [get]
func handleListOrders(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svcs.Orders.History(c.Request.Context(), c.GetString(ctxUsername))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponses(orders))
	}
}

// @Summary  Refund the nth most recent order
// @Security BearerAuth
// @Param    req body  RefundRequest false "payload"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "already refunded"
// @Router   /orders/refund [post]
func handleRefund(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefundRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, err.Error())
				return
			}
		}
		if req.N == 0 {
			req.N = 1
		}
		if err := svcs.Reservation.Refund(c.Request.Context(), c.GetString(ctxUsername), req.N); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Add an unreleased train
// @Security BearerAuth
// @Param    req body  CreateTrainRequest true "payload"
// @Success  201 {object} map[string]string
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /admin/trains [post]
func handleCreateTrain(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTrainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		spec, err := req.spec()
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := svcs.Admin.CreateTrain(c.Request.Context(), spec); err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": spec.ID})
	}
}

// @Summary  Put a train on sale
// @Security BearerAuth
// @Param    id  path  string  true  "Train ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /admin/trains/{id}/release [post]
func handleReleaseTrain(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Admin.ReleaseTrain(c.Request.Context(), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete an unreleased train
// @Security BearerAuth
// @Param    id  path  string  true  "Train ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse
// @Router   /admin/trains/{id} [delete]
func handleRemoveTrain(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Admin.RemoveTrain(c.Request.Context(), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Drop all trains and orders
// @Security BearerAuth
// @Success  204
// @Router   /admin/clean [post]
func handleClean(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Admin.Reset(c.Request.Context()); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func replayStored(c *gin.Context, idem *redisrepo.IdempotencyStore, key, idemKey string) bool {
	res, ok, _ := idem.GetResult(c.Request.Context(), key)
	if !ok {
		return false
	}
	c.Header("Idempotency-Key", idemKey)
	c.Data(res.Status, "application/json; charset=utf-8", res.Body)
	return true
}

func parseDayQuery(c *gin.Context, name string) (domain.Day, bool) {
	d, err := domain.ParseDay(c.Query(name))
	if err != nil {
		badRequest(c, "invalid "+name+" (MM-DD)")
		return 0, false
	}
	return d, true
}

func parseRouteQuery(c *gin.Context) (from, to string, date domain.Day, ok bool) {
	from, to = c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		badRequest(c, "from and to are required")
		return "", "", 0, false
	}
	date, ok = parseDayQuery(c, "date")
	return from, to, date, ok
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var limited reservation.RateLimitedError
	if errors.As(err, &limited) {
		c.Header("Retry-After", strconv.Itoa(max(1, int(math.Ceil(limited.RetryAfter.Seconds())))))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
		return
	}

	switch {
	// admin service
	case errors.Is(err, admin.ErrInvalidSpec):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid train spec"})
		return
	case errors.Is(err, admin.ErrDuplicateTrain):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "train already exists"})
		return
	case errors.Is(err, admin.ErrTrainNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "train not found"})
		return
	case errors.Is(err, admin.ErrAlreadyReleased):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "train already released"})
		return
	// query service
	case errors.Is(err, query.ErrTrainNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "train not found"})
		return
	case errors.Is(err, query.ErrDateOutOfRange):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "date outside the sale window"})
		return
	case errors.Is(err, query.ErrInvalidSort):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "sort must be time or cost"})
		return
	// reservation service
	case errors.Is(err, reservation.ErrTrainNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "train not found"})
		return
	case errors.Is(err, reservation.ErrNotReleased):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "train is not released"})
		return
	case errors.Is(err, reservation.ErrInvalidRoute):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "train does not run from origin to destination"})
		return
	case errors.Is(err, reservation.ErrDateOutOfRange):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "date outside the sale window"})
		return
	case errors.Is(err, reservation.ErrInsufficientSeats):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "not enough seats"})
		return
	case errors.Is(err, reservation.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "order not found"})
		return
	case errors.Is(err, reservation.ErrAlreadyRefunded):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "order already refunded"})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
