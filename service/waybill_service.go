package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"dispatchbot/pkg/logger"
	"dispatchbot/pkg/metrics"
	"dispatchbot/pkg/models"
	"dispatchbot/pkg/telegram"
	"dispatchbot/storage"
)

const waybillDir = "waybills"

// IncomingFile describes a document or photo received from a chat.
type IncomingFile struct {
	FileID   string
	FileName string
	MimeType string
	Size     int64
	Photo    bool
}

type WaybillService interface {
	// RequestAttach marks the chat as expecting a waybill for the trip.
	RequestAttach(ctx context.Context, driver *models.Driver, chatID, tripID int64) (*models.Trip, error)
	Pending(ctx context.Context, chatID int64) (*models.PendingWaybill, error)
	// Ingest stores the file against the pending trip. On failure the flag
	// stays in place so the driver can simply resend.
	Ingest(ctx context.Context, chatID int64, in IncomingFile) (*models.Waybill, *models.Trip, error)
	List(ctx context.Context, tripID int64) ([]*models.Waybill, error)
}

type waybillService struct {
	stg     storage.IStorage
	pending storage.IPendingStorage
	blobs   storage.IBlobStorage
	gw      telegram.Gateway
	group   GroupNotifier
	opts    Options
	log     logger.ILogger
}

func NewWaybillService(
	stg storage.IStorage,
	pending storage.IPendingStorage,
	blobs storage.IBlobStorage,
	gw telegram.Gateway,
	group GroupNotifier,
	opts Options,
	log logger.ILogger,
) WaybillService {
	opts.setDefaults()
	return &waybillService{
		stg:     stg,
		pending: pending,
		blobs:   blobs,
		gw:      gw,
		group:   group,
		opts:    opts,
		log:     log,
	}
}

func (s *waybillService) ownedTrip(ctx context.Context, driver *models.Driver, tripID int64) (*models.Trip, error) {
	trip, err := s.stg.Trip().GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	if driver == nil || !trip.AssignedTo(driver.ID) {
		return nil, ErrNotTripOwner
	}
	return trip, nil
}

func (s *waybillService) RequestAttach(ctx context.Context, driver *models.Driver, chatID, tripID int64) (*models.Trip, error) {
	trip, err := s.ownedTrip(ctx, driver, tripID)
	if err != nil {
		return nil, err
	}
	err = s.pending.Set(ctx, models.PendingWaybill{
		ChatID:    chatID,
		TripID:    tripID,
		ExpiresAt: s.opts.Now().Add(s.opts.WaybillWaitTTL),
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *waybillService) Pending(ctx context.Context, chatID int64) (*models.PendingWaybill, error) {
	p, err := s.pending.Get(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoPendingWaybill
	}
	return p, err
}

func (s *waybillService) List(ctx context.Context, tripID int64) ([]*models.Waybill, error) {
	return s.stg.Waybill().GetByTrip(ctx, tripID)
}

// storedName builds waybill_<trip>_<unix>.<ext>; photos are always jpg.
func (s *waybillService) storedName(tripID int64, in IncomingFile) string {
	ext := "jpg"
	if !in.Photo {
		ext = strings.TrimPrefix(strings.ToLower(path.Ext(in.FileName)), ".")
		if ext == "" {
			ext = "pdf"
		}
	}
	return fmt.Sprintf("waybill_%d_%d.%s", tripID, s.opts.Now().Unix(), ext)
}

func (s *waybillService) Ingest(ctx context.Context, chatID int64, in IncomingFile) (*models.Waybill, *models.Trip, error) {
	source := "document"
	if in.Photo {
		source = "photo"
	}

	p, err := s.Pending(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}

	driver, err := s.stg.Driver().GetByChatID(ctx, chatID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, err
	}
	trip, err := s.ownedTrip(ctx, driver, p.TripID)
	if err != nil {
		s.log.Warning("waybill rejected", logger.Int64("chat_id", chatID), logger.Int64("trip_id", p.TripID), logger.Error(err))
		metrics.WaybillsIngested.WithLabelValues(source, "rejected").Inc()
		return nil, nil, err
	}

	log := s.log.With(logger.Int64("trip_id", trip.ID), logger.Int64("driver_id", driver.ID), logger.String("source", source))

	w, err := s.store(ctx, trip, driver, in)
	if err != nil {
		log.Error("failed to store waybill", logger.Error(err))
		metrics.WaybillsIngested.WithLabelValues(source, "failed").Inc()
		return nil, nil, err
	}

	if err := s.stg.Trip().SetHasWaybill(ctx, trip.ID, true); err != nil {
		log.Error("failed to flag trip waybill", logger.Error(err))
	}
	trip.HasWaybill = true
	if err := s.pending.Clear(ctx, chatID); err != nil {
		log.Warning("failed to clear pending waybill", logger.Error(err))
	}

	metrics.WaybillsIngested.WithLabelValues(source, "ok").Inc()
	log.Info("waybill attached", logger.String("path", w.FilePath), logger.Int64("size", w.FileSize))

	s.group.WaybillAttached(ctx, trip, driver)
	return w, trip, nil
}

func (s *waybillService) store(ctx context.Context, trip *models.Trip, driver *models.Driver, in IncomingFile) (*models.Waybill, error) {
	f, err := s.gw.GetFile(ctx, in.FileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	rc, err := s.gw.DownloadFile(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer rc.Close()

	name := s.storedName(trip.ID, in)
	blobPath := waybillDir + "/" + name
	size, err := s.blobs.Put(ctx, blobPath, rc)
	if err != nil {
		return nil, fmt.Errorf("put blob: %w", err)
	}

	original, mime := in.FileName, in.MimeType
	if in.Photo {
		original = fmt.Sprintf("photo_%d.jpg", s.opts.Now().Unix())
		mime = "image/jpeg"
	}
	if original == "" {
		original = name
	}

	w, err := s.stg.Waybill().Create(ctx, &models.Waybill{
		TripID:       trip.ID,
		DriverID:     driver.ID,
		FilePath:     blobPath,
		FileName:     name,
		OriginalName: original,
		FileSize:     size,
		MimeType:     mime,
		UploadedAt:   s.opts.Now(),
	})
	if err != nil {
		if derr := s.blobs.Delete(ctx, blobPath); derr != nil {
			s.log.Warning("orphan waybill blob left behind", logger.String("path", blobPath), logger.Error(derr))
		}
		return nil, fmt.Errorf("create waybill: %w", err)
	}
	return w, nil
}
