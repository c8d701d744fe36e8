package diag

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"cult-booker/booking"
)

const bookingPage = `<html><body>
<div class="header"><div class="location-text-wrap">Bangalore</div></div>
<div class="dates">
  <div class="booking-cell">Fri</div><div class="booking-cell">Sat</div>
  <div class="booking-cell">Sun</div><div class="booking-cell">Mon</div>
</div>
<div class="slots">
  <div class="booking-time-row-cell">
    <span class="time-text">06:00 AM</span>
    <div class="class-cell unavailable-theme">YOGA</div>
  </div>
  <div class="booking-time-row-cell">
    <span class="time-text">07:00 AM</span>
    <div class="class-cell">HRX</div>
  </div>
</div>
<button>CONFIRM &amp; BOOK</button>
</body></html>`

const centerModal = `<html><body>
<div class="modal"><h3>Select A Center</h3>
  <input placeholder="Search for names">
  <div class="card"><div><span>Cult Whitefield</span></div><button>SELECT</button></div>
  <div class="card"><div><span>Cult Indiranagar</span></div><button>SELECT</button></div>
</div>
<p>Complete your booking on the cult app</p>
</body></html>`

func TestInspectBookingPage(t *testing.T) {
	in, err := InspectLandmarks(strings.NewReader(bookingPage), booking.DefaultLandmarks(), "07:00 AM")
	require.NoError(t, err)

	assert.True(t, in.LocationTrigger, "valid members of the trigger group still match")
	assert.Equal(t, 4, in.DateCells)
	assert.Equal(t, 2, in.TimeRows)
	assert.Equal(t, 2, in.ClassCells)
	assert.Equal(t, 1, in.UnavailableCells)
	assert.Equal(t, 1, in.ConfirmControls)
	assert.True(t, in.TargetRow)
	assert.False(t, in.ModalTitle)
	assert.Empty(t, in.Missing())
}

func TestInspectMissingTargetRow(t *testing.T) {
	in, err := InspectLandmarks(strings.NewReader(bookingPage), booking.DefaultLandmarks(), "09:00 PM")
	require.NoError(t, err)
	assert.False(t, in.TargetRow)
}

func TestInspectCenterModal(t *testing.T) {
	in, err := InspectLandmarks(strings.NewReader(centerModal), booking.DefaultLandmarks(), "")
	require.NoError(t, err)

	assert.True(t, in.ModalTitle)
	assert.Equal(t, 2, in.SelectControls)
	assert.True(t, in.AppInterstitial)
	assert.False(t, in.LocationTrigger)
	assert.Equal(t, []string{"location_trigger", "date_cell", "time_row", "class_cell"}, in.Missing())
}

func TestInspectRejectsBadPattern(t *testing.T) {
	lm := booking.DefaultLandmarks()
	lm.ConfirmPattern = "("
	_, err := InspectLandmarks(strings.NewReader(bookingPage), lm, "")
	assert.Error(t, err)
}

func TestFileSinkWritesCaptures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "diagnostics")
	core, logs := observer.New(zap.InfoLevel)
	sink, err := NewFileSink(dir, booking.DefaultLandmarks(), "07:00 AM", zap.New(core))
	require.NoError(t, err)

	require.NoError(t, sink.Capture(booking.DiagNoSlot, []byte("png-bytes")))
	require.NoError(t, sink.Snapshot(booking.DiagNoSlot, centerModal))

	png, err := os.ReadFile(filepath.Join(dir, "no_slot_found.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(png))

	html, err := os.ReadFile(sink.Path(booking.DiagNoSlot, ".html"))
	require.NoError(t, err)
	assert.Equal(t, centerModal, string(html))

	entries := logs.FilterMessage("snapshot landmarks").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.EqualValues(t, 2, ctx["select_controls"])
	assert.Equal(t, true, ctx["modal_title"])
	assert.Contains(t, ctx, "missing")
}
