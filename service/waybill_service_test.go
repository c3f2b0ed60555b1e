package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchbot/pkg/models"
)

func TestIngestDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.driver(t, "Иван", "ivan", 1001)
	trip := f.trip(t, d, models.TripStatusInProgress)
	f.gw.Files["file-abc"] = []byte("%PDF-1.4")

	_, err := f.svc.Waybill().RequestAttach(ctx, d, 1001, trip.ID)
	require.NoError(t, err)

	w, got, err := f.svc.Waybill().Ingest(ctx, 1001, IncomingFile{
		FileID:   "file-abc",
		FileName: "Путевой.PDF",
		MimeType: "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, trip.ID, got.ID)
	assert.True(t, got.HasWaybill)

	wantName := fmt.Sprintf("waybill_%d_%d.pdf", trip.ID, f.now.Unix())
	assert.Equal(t, wantName, w.FileName)
	assert.Equal(t, "waybills/"+wantName, w.FilePath)
	assert.Equal(t, "Путевой.PDF", w.OriginalName)
	assert.Equal(t, int64(8), w.FileSize)
	assert.Equal(t, "application/pdf", w.MimeType)
	assert.Equal(t, []string{w.FilePath}, f.blobs.Paths())

	stored, err := f.svc.Trip().Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasWaybill)

	_, err = f.svc.Waybill().Pending(ctx, 1001)
	assert.ErrorIs(t, err, ErrNoPendingWaybill, "flag is cleared after success")
	assert.True(t, f.group.Contains(groupChat, "прикрепил путевой лист"))
}

func TestIngestPhotoNaming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.driver(t, "Иван", "ivan", 1001)
	trip := f.trip(t, d, models.TripStatusCompleted)
	f.gw.Files["photo-1"] = []byte{0xff, 0xd8}

	_, err := f.svc.Waybill().RequestAttach(ctx, d, 1001, trip.ID)
	require.NoError(t, err)
	w, _, err := f.svc.Waybill().Ingest(ctx, 1001, IncomingFile{FileID: "photo-1", Photo: true})
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("waybill_%d_%d.jpg", trip.ID, f.now.Unix()), w.FileName)
	assert.Equal(t, fmt.Sprintf("photo_%d.jpg", f.now.Unix()), w.OriginalName)
	assert.Equal(t, "image/jpeg", w.MimeType)
}

func TestIngestWithoutPendingFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.driver(t, "Иван", "ivan", 1001)

	_, _, err := f.svc.Waybill().Ingest(ctx, 1001, IncomingFile{FileID: "x"})
	assert.ErrorIs(t, err, ErrNoPendingWaybill)
	assert.Empty(t, f.blobs.Paths())
}

func TestPendingFlagExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.driver(t, "Иван", "ivan", 1001)
	trip := f.trip(t, d, models.TripStatusInProgress)
	f.gw.Files["late"] = []byte("late")

	_, err := f.svc.Waybill().RequestAttach(ctx, d, 1001, trip.ID)
	require.NoError(t, err)

	f.advance(4 * time.Minute)
	p, err := f.svc.Waybill().Pending(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, trip.ID, p.TripID)

	f.advance(2 * time.Minute)
	_, _, err = f.svc.Waybill().Ingest(ctx, 1001, IncomingFile{FileID: "late"})
	assert.ErrorIs(t, err, ErrNoPendingWaybill)
}

func TestRequestAttachRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.driver(t, "Иван", "ivan", 1001)
	other := f.driver(t, "Пётр", "petr", 2002)
	trip := f.trip(t, owner, models.TripStatusInProgress)

	_, err := f.svc.Waybill().RequestAttach(ctx, other, 2002, trip.ID)
	assert.ErrorIs(t, err, ErrNotTripOwner)
	_, err = f.svc.Waybill().RequestAttach(ctx, owner, 1001, 777)
	assert.ErrorIs(t, err, ErrTripNotFound)

	_, err = f.svc.Waybill().Pending(ctx, 2002)
	assert.ErrorIs(t, err, ErrNoPendingWaybill)
}

func TestIngestRejectsTripReassignedMeanwhile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.driver(t, "Иван", "ivan", 1001)
	other := f.driver(t, "Пётр", "petr", 2002)
	trip := f.trip(t, owner, models.TripStatusInProgress)
	f.gw.Files["f"] = []byte("data")

	_, err := f.svc.Waybill().RequestAttach(ctx, owner, 1001, trip.ID)
	require.NoError(t, err)

	trip.DriverID = &other.ID
	_, err = f.svc.Trip().Update(ctx, trip)
	require.NoError(t, err)

	_, _, err = f.svc.Waybill().Ingest(ctx, 1001, IncomingFile{FileID: "f"})
	assert.ErrorIs(t, err, ErrNotTripOwner)
	assert.Empty(t, f.blobs.Paths())
}

func TestIngestDownloadFailureKeepsFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.driver(t, "Иван", "ivan", 1001)
	trip := f.trip(t, d, models.TripStatusInProgress)
	f.gw.Files["f"] = []byte("data")
	f.gw.DownloadErr = errors.New("connection reset")

	_, err := f.svc.Waybill().RequestAttach(ctx, d, 1001, trip.ID)
	require.NoError(t, err)
	_, _, err = f.svc.Waybill().Ingest(ctx, 1001, IncomingFile{FileID: "f", FileName: "a.pdf"})
	require.Error(t, err)

	_, err = f.svc.Waybill().Pending(ctx, 1001)
	assert.NoError(t, err, "driver can resend while the flag lives")

	f.gw.DownloadErr = nil
	_, _, err = f.svc.Waybill().Ingest(ctx, 1001, IncomingFile{FileID: "f", FileName: "a.pdf"})
	assert.NoError(t, err)
}
