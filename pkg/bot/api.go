package bot

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/metrics"
	"dispatchbot/pkg/models"
	"dispatchbot/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cast"
)

const (
	secretHeader   = "X-Telegram-Bot-Api-Secret-Token"
	maxWebhookBody = 1 << 20
	updateTimeout  = time.Minute
)

func NewRouter(b *Bot) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/telegram/webhook", b.webhook)

	if b.Cfg.StoragePath != "" {
		r.Static("/storage", b.Cfg.StoragePath)
	}

	api := r.Group("/api")
	{
		api.POST("/trips", b.createTrip)
		api.GET("/trips/:id", b.getTrip)
		api.PATCH("/trips/:id", b.updateTrip)
		api.DELETE("/trips/:id", b.deleteTrip)
		api.POST("/trips/:id/notify", b.notifyTrip)

		api.POST("/drivers", b.createDriver)
		api.GET("/drivers/:id", b.getDriver)

		api.POST("/dispatchers", b.createDispatcher)
		api.GET("/dispatchers", b.listDispatchers)
	}
	return r
}

// RunServer serves the router until ctx is cancelled.
func RunServer(ctx context.Context, b *Bot) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", b.Cfg.AppPort),
		Handler:           NewRouter(b),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		b.Log.Info("http server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// webhook always answers 200 so Telegram never retries an update.
func (b *Bot) webhook(c *gin.Context) {
	ok := func() { c.JSON(http.StatusOK, gin.H{"status": "ok"}) }

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		b.Log.Error("failed to read webhook body", logger.Error(err))
		ok()
		return
	}

	if secret := b.Cfg.WebhookSecret; secret != "" {
		got := c.GetHeader(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			b.Log.Warning("webhook secret mismatch",
				logger.String("remote", c.ClientIP()),
				logger.String("content", string(body)),
			)
			ok()
			return
		}
	}
	b.Log.Info("telegram webhook called", logger.String("content", string(body)))

	upd, err := DecodeUpdate(body)
	if err != nil {
		b.Log.Error("failed to decode update", logger.Error(err))
		ok()
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), updateTimeout)
	defer cancel()
	b.HandleUpdate(ctx, upd)
	ok()
}

func apiError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrTripNotFound),
		errors.Is(err, service.ErrDriverNotFound),
		errors.Is(err, service.ErrDispatcherNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrNameRequired):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrDriverNotRegistered):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrDelivery):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := cast.ToInt64E(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (b *Bot) createTrip(c *gin.Context) {
	var trip models.Trip
	if err := c.ShouldBindJSON(&trip); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := b.Svc.Trip().Create(c.Request.Context(), &trip)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (b *Bot) getTrip(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	trip, err := b.Svc.Trip().Get(ctx, id)
	if err != nil {
		apiError(c, err)
		return
	}
	waybills, err := b.Svc.Waybill().List(ctx, id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip": trip, "waybills": waybills})
}

type tripPatch struct {
	Status      *models.TripStatus `json:"status"`
	DriverID    *int64             `json:"driver_id"`
	ClearDriver bool               `json:"clear_driver"`
	Comment     *string            `json:"comment"`
	Reason      *string            `json:"reason"`
}

func (p tripPatch) apply(trip *models.Trip) {
	if p.Status != nil {
		trip.Status = *p.Status
	}
	if p.DriverID != nil {
		id := *p.DriverID
		trip.DriverID = &id
	}
	if p.ClearDriver {
		trip.DriverID = nil
	}
	if p.Comment != nil {
		trip.Comment = *p.Comment
	}
	if p.Reason != nil {
		trip.Reason = *p.Reason
	}
}

func (b *Bot) updateTrip(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch tripPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	trip, err := b.Svc.Trip().Get(ctx, id)
	if err != nil {
		apiError(c, err)
		return
	}
	patch.apply(trip)

	updated, err := b.Svc.Trip().Update(ctx, trip)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (b *Bot) deleteTrip(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := b.Svc.Trip().Delete(c.Request.Context(), id); err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (b *Bot) notifyTrip(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := b.Svc.Notification().NotifyDriver(c.Request.Context(), id); err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func (b *Bot) createDriver(c *gin.Context) {
	var driver models.Driver
	if err := c.ShouldBindJSON(&driver); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := b.Svc.Driver().Create(c.Request.Context(), &driver)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (b *Bot) getDriver(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	driver, err := b.Svc.Driver().Get(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, driver)
}

func (b *Bot) createDispatcher(c *gin.Context) {
	var d models.Dispatcher
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := b.Svc.Dispatcher().Create(c.Request.Context(), &d)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (b *Bot) listDispatchers(c *gin.Context) {
	list, err := b.Svc.Dispatcher().List(c.Request.Context())
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
