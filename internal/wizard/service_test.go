package wizard

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movequote-backend/internal/model"
	"movequote-backend/internal/pricing"
	"movequote-backend/internal/route"
)

// fakeDetector returns fixed counts after an optional delay.
type fakeDetector struct {
	counts model.ItemCounts
	delay  time.Duration
}

func (d *fakeDetector) Detect(ctx context.Context, images []model.ImagePayload) (model.ItemCounts, error) {
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return d.counts.Clone(), nil
}

// fakePlanner returns a fixed distance or a fixed error.
type fakePlanner struct {
	meters float64
	err    error
	delay  time.Duration
}

func (p *fakePlanner) Route(ctx context.Context, origin, destination model.Place) (route.Result, error) {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return route.Result{}, p.err
	}
	return route.Result{DistanceMeters: p.meters, Polyline: "poly"}, nil
}

// originPlanner resolves a distance per origin address, with optional
// per-origin delays.
type originPlanner struct {
	meters map[string]float64
	delays map[string]time.Duration
}

func (p *originPlanner) Route(ctx context.Context, origin, destination model.Place) (route.Result, error) {
	if d := p.delays[origin.Address]; d > 0 {
		time.Sleep(d)
	}
	return route.Result{DistanceMeters: p.meters[origin.Address]}, nil
}

func newTestService(detector *fakeDetector, planner *fakePlanner) *Service {
	engine := pricing.NewEngine(pricing.WithRand(rand.New(rand.NewSource(7))))
	if detector == nil {
		detector = &fakeDetector{counts: model.NewItemCounts()}
	}
	if planner == nil {
		planner = &fakePlanner{err: errors.New("no route")}
	}
	return NewService(engine, detector, planner, 0)
}

func setAddresses(t *testing.T, svc *Service, sess *Session, resolved bool) {
	t.Helper()
	origin := model.Place{Address: "12 Start St"}
	destination := model.Place{Address: "99 End Ave"}
	if resolved {
		origin.Lat, origin.Lng = 37.7749, -122.4194
		destination.Lat, destination.Lng = 37.8044, -122.2712
	}
	require.NoError(t, svc.SetAddresses(sess, origin, destination))
}

func waitForStep(t *testing.T, svc *Service, sess *Session, step model.Step) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = svc.Snapshot(sess)
		return snap.Step == step
	}, 2*time.Second, 5*time.Millisecond, "session never reached step %s", step)
	return snap
}

func TestUpdateCountClampsAtZero(t *testing.T) {
	svc := newTestService(nil, nil)
	sess := newSession(model.FlowManual)

	require.NoError(t, svc.UpdateCount(sess, model.ItemChairs, 2))
	require.NoError(t, svc.UpdateCount(sess, model.ItemChairs, -5))
	assert.Equal(t, 0, svc.Snapshot(sess).Counts[model.ItemChairs])

	err := svc.UpdateCount(sess, "pianos", 1)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestSubmitQuoteGuards(t *testing.T) {
	svc := newTestService(nil, nil)

	t.Run("No items selected", func(t *testing.T) {
		sess := newSession(model.FlowManual)
		setAddresses(t, svc, sess, false)

		var guardErr *GuardError
		err := svc.SubmitQuote(sess)
		require.ErrorAs(t, err, &guardErr)
		assert.Equal(t, model.StepEntry, svc.Snapshot(sess).Step)
	})

	t.Run("No photos uploaded", func(t *testing.T) {
		sess := newSession(model.FlowPhoto)
		setAddresses(t, svc, sess, false)

		var guardErr *GuardError
		err := svc.SubmitQuote(sess)
		require.ErrorAs(t, err, &guardErr)
	})

	t.Run("Missing origin address", func(t *testing.T) {
		sess := newSession(model.FlowManual)
		require.NoError(t, svc.UpdateCount(sess, model.ItemBedrooms, 1))

		var guardErr *GuardError
		err := svc.SubmitQuote(sess)
		require.ErrorAs(t, err, &guardErr)
		assert.Contains(t, guardErr.Message, "origin address")
	})

	t.Run("Missing destination address", func(t *testing.T) {
		sess := newSession(model.FlowManual)
		require.NoError(t, svc.UpdateCount(sess, model.ItemBedrooms, 1))
		require.NoError(t, svc.SetAddresses(sess, model.Place{Address: "12 Start St"}, model.Place{}))

		var guardErr *GuardError
		err := svc.SubmitQuote(sess)
		require.ErrorAs(t, err, &guardErr)
		assert.Contains(t, guardErr.Message, "destination address")
	})
}

func TestManualQuoteBreakdown(t *testing.T) {
	svc := newTestService(nil, nil)
	sess := newSession(model.FlowManual)

	require.NoError(t, svc.UpdateCount(sess, model.ItemBedrooms, 2))
	require.NoError(t, svc.UpdateCount(sess, model.ItemBathrooms, 1))
	setAddresses(t, svc, sess, false)

	require.NoError(t, svc.SubmitQuote(sess))
	snap := waitForStep(t, svc, sess, model.StepQuote)

	require.Contains(t, snap.Breakdown, model.ChargeKey(model.ItemBedrooms))
	require.Contains(t, snap.Breakdown, model.ChargeKey(model.ItemBathrooms))
	require.Contains(t, snap.Breakdown, model.ChargeServiceFee)
	assert.NotContains(t, snap.Breakdown, model.ChargeTravelFee)
	assert.Len(t, snap.Breakdown, 3)
	assert.Equal(t, snap.Breakdown.Total(), snap.Total)
}

func TestQuoteIncludesTravelFeeWhenRouted(t *testing.T) {
	planner := &fakePlanner{meters: 16093.4} // 10 miles
	svc := newTestService(nil, planner)
	sess := newSession(model.FlowManual)

	require.NoError(t, svc.UpdateCount(sess, model.ItemTables, 1))
	setAddresses(t, svc, sess, true)

	// Route completion is asynchronous.
	require.Eventually(t, func() bool {
		return svc.Snapshot(sess).Route.DistanceMeters != nil
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 5, svc.Snapshot(sess).Route.TravelFee)

	require.NoError(t, svc.SubmitQuote(sess))
	snap := waitForStep(t, svc, sess, model.StepQuote)

	require.Contains(t, snap.Breakdown, model.ChargeTravelFee)
	assert.Equal(t, 5, snap.Breakdown[model.ChargeTravelFee])
	assert.Equal(t, snap.Breakdown.Total(), snap.Total)
}

func TestRoutingFailureLeavesDistanceUnknown(t *testing.T) {
	planner := &fakePlanner{err: errors.New("ZERO_RESULTS")}
	svc := newTestService(nil, planner)
	sess := newSession(model.FlowManual)

	require.NoError(t, svc.UpdateCount(sess, model.ItemChairs, 2))
	setAddresses(t, svc, sess, true)

	time.Sleep(50 * time.Millisecond)
	snap := svc.Snapshot(sess)
	assert.Nil(t, snap.Route.DistanceMeters)
	assert.Equal(t, 0, snap.Route.TravelFee)

	require.NoError(t, svc.SubmitQuote(sess))
	snap = waitForStep(t, svc, sess, model.StepQuote)
	assert.NotContains(t, snap.Breakdown, model.ChargeTravelFee)
}

func TestPhotoFlowUsesDetectorCounts(t *testing.T) {
	counts := model.NewItemCounts()
	counts[model.ItemBedrooms] = 2
	counts[model.ItemChairs] = 6
	svc := newTestService(&fakeDetector{counts: counts}, nil)
	sess := newSession(model.FlowPhoto)

	require.NoError(t, svc.AddImages(sess, []model.ImagePayload{
		{ID: "img-1", Name: "living.jpg", URL: "data:image/jpeg;base64,AAAA"},
		{ID: "img-2", Name: "bedroom.jpg", URL: "data:image/jpeg;base64,BBBB"},
	}))
	setAddresses(t, svc, sess, false)

	require.NoError(t, svc.SubmitQuote(sess))
	snap := waitForStep(t, svc, sess, model.StepQuote)

	assert.Equal(t, 2, snap.Counts[model.ItemBedrooms])
	assert.Equal(t, 6, snap.Counts[model.ItemChairs])

	// Photo-flow quote screen lists detected items per category.
	require.Len(t, snap.DetectedItems, 2)
	assert.Equal(t, "Bedrooms", snap.DetectedItems[0].Name)
	assert.Equal(t, 2, snap.DetectedItems[0].Quantity)
	assert.Equal(t, "Chairs", snap.DetectedItems[1].Name)
}

func TestRemoveImage(t *testing.T) {
	svc := newTestService(nil, nil)
	sess := newSession(model.FlowPhoto)

	require.NoError(t, svc.AddImages(sess, []model.ImagePayload{
		{ID: "a"}, {ID: "b"}, {ID: "c"},
	}))
	require.NoError(t, svc.RemoveImage(sess, "b"))

	snap := svc.Snapshot(sess)
	require.Len(t, snap.Images, 2)
	assert.Equal(t, "a", snap.Images[0].ID)
	assert.Equal(t, "c", snap.Images[1].ID)
}

func TestFullManualLifecycle(t *testing.T) {
	svc := newTestService(nil, nil)
	sess := newSession(model.FlowManual)

	require.NoError(t, svc.UpdateCount(sess, model.ItemBedrooms, 2))
	require.NoError(t, svc.UpdateCount(sess, model.ItemBathrooms, 1))
	setAddresses(t, svc, sess, false)

	require.NoError(t, svc.SubmitQuote(sess))
	waitForStep(t, svc, sess, model.StepQuote)

	require.NoError(t, svc.BeginSchedule(sess))

	fieldErrors, err := svc.SubmitSchedule(sess, validForm())
	require.NoError(t, err)
	assert.Empty(t, fieldErrors)
	assert.Equal(t, model.StepPayment, svc.Snapshot(sess).Step)

	require.NoError(t, svc.CompletePayment(sess))
	assert.Equal(t, model.StepSuccess, svc.Snapshot(sess).Step)
}

func TestPhotoFlowSkipsPayment(t *testing.T) {
	svc := newTestService(&fakeDetector{counts: model.NewItemCounts()}, nil)
	sess := newSession(model.FlowPhoto)

	require.NoError(t, svc.AddImages(sess, []model.ImagePayload{{ID: "a"}}))
	setAddresses(t, svc, sess, false)
	require.NoError(t, svc.SubmitQuote(sess))
	waitForStep(t, svc, sess, model.StepQuote)

	require.NoError(t, svc.BeginSchedule(sess))
	fieldErrors, err := svc.SubmitSchedule(sess, validForm())
	require.NoError(t, err)
	assert.Empty(t, fieldErrors)
	assert.Equal(t, model.StepSuccess, svc.Snapshot(sess).Step)
}

func TestSubmitScheduleRejectsInvalidEmail(t *testing.T) {
	svc := newTestService(nil, nil)
	sess := newSession(model.FlowManual)

	require.NoError(t, svc.UpdateCount(sess, model.ItemTables, 1))
	setAddresses(t, svc, sess, false)
	require.NoError(t, svc.SubmitQuote(sess))
	waitForStep(t, svc, sess, model.StepQuote)
	require.NoError(t, svc.BeginSchedule(sess))

	form := validForm()
	form.Email = "jane.example.com"
	fieldErrors, err := svc.SubmitSchedule(sess, form)
	require.NoError(t, err)
	require.Contains(t, fieldErrors, "email")

	// Wizard must not advance.
	assert.Equal(t, model.StepSchedule, svc.Snapshot(sess).Step)

	// Editing the field clears only its own error.
	form2 := validForm()
	form2.Email = ""
	form2.Phone = ""
	fieldErrors, err = svc.SubmitSchedule(sess, form2)
	require.NoError(t, err)
	require.Contains(t, fieldErrors, "email")
	require.Contains(t, fieldErrors, "phone")

	require.NoError(t, svc.UpdateFormField(sess, "email", "jane@example.com"))
	snap := svc.Snapshot(sess)
	assert.NotContains(t, snap.FieldErrors, "email")
	assert.Contains(t, snap.FieldErrors, "phone")
}

func TestModifyReturnsToEntry(t *testing.T) {
	svc := newTestService(nil, nil)
	sess := newSession(model.FlowManual)

	require.NoError(t, svc.UpdateCount(sess, model.ItemChairs, 4))
	setAddresses(t, svc, sess, false)
	require.NoError(t, svc.SubmitQuote(sess))
	waitForStep(t, svc, sess, model.StepQuote)

	require.NoError(t, svc.Modify(sess))
	snap := svc.Snapshot(sess)
	assert.Equal(t, model.StepEntry, snap.Step)
	// Selections survive a modify round-trip.
	assert.Equal(t, 4, snap.Counts[model.ItemChairs])
}

func TestResetRestoresInitialState(t *testing.T) {
	svc := newTestService(nil, &fakePlanner{meters: 5000})
	sess := newSession(model.FlowManual)

	require.NoError(t, svc.UpdateCount(sess, model.ItemBedrooms, 3))
	setAddresses(t, svc, sess, true)
	require.NoError(t, svc.SubmitQuote(sess))
	waitForStep(t, svc, sess, model.StepQuote)
	require.NoError(t, svc.BeginSchedule(sess))
	_, err := svc.SubmitSchedule(sess, validForm())
	require.NoError(t, err)
	require.NoError(t, svc.CompletePayment(sess))

	svc.Reset(sess)

	snap := svc.Snapshot(sess)
	assert.Equal(t, model.StepEntry, snap.Step)
	assert.True(t, snap.Counts.Empty())
	assert.Empty(t, snap.Images)
	assert.Nil(t, snap.Breakdown)
	assert.Zero(t, snap.Total)
	assert.Equal(t, model.RouteInfo{}, snap.Route)
	assert.Equal(t, model.ScheduleForm{}, snap.Form)
	assert.Empty(t, snap.FieldErrors)
}

func TestStaleDetectionDiscardedAfterReset(t *testing.T) {
	counts := model.NewItemCounts()
	counts[model.ItemBedrooms] = 9
	detector := &fakeDetector{counts: counts, delay: 80 * time.Millisecond}
	svc := newTestService(detector, nil)
	sess := newSession(model.FlowPhoto)

	require.NoError(t, svc.AddImages(sess, []model.ImagePayload{{ID: "a"}}))
	setAddresses(t, svc, sess, false)
	require.NoError(t, svc.SubmitQuote(sess))

	// Restart the flow while detection is still in flight.
	svc.Reset(sess)

	time.Sleep(150 * time.Millisecond)
	snap := svc.Snapshot(sess)
	assert.Equal(t, model.StepEntry, snap.Step)
	assert.True(t, snap.Counts.Empty(), "stale detection result clobbered fresh state")
	assert.Nil(t, snap.Breakdown)
}

func TestStaleRouteDiscardedAfterReset(t *testing.T) {
	planner := &fakePlanner{meters: 8000, delay: 80 * time.Millisecond}
	svc := newTestService(nil, planner)
	sess := newSession(model.FlowManual)

	setAddresses(t, svc, sess, true)
	svc.Reset(sess)

	time.Sleep(150 * time.Millisecond)
	snap := svc.Snapshot(sess)
	assert.Nil(t, snap.Route.DistanceMeters)
	assert.Equal(t, 0, snap.Route.TravelFee)
}

func TestAddressChangeSupersedesInFlightRoute(t *testing.T) {
	planner := &originPlanner{
		meters: map[string]float64{"12 Old Rd": 999999, "34 New Rd": 1000},
		delays: map[string]time.Duration{"12 Old Rd": 100 * time.Millisecond},
	}
	engine := pricing.NewEngine(pricing.WithRand(rand.New(rand.NewSource(7))))
	svc := NewService(engine, &fakeDetector{counts: model.NewItemCounts()}, planner, 0)
	sess := newSession(model.FlowManual)

	destination := model.Place{Address: "99 End Ave", Lat: 37.8044, Lng: -122.2712}
	require.NoError(t, svc.SetAddresses(sess, model.Place{Address: "12 Old Rd", Lat: 37.77, Lng: -122.41}, destination))
	require.NoError(t, svc.SetAddresses(sess, model.Place{Address: "34 New Rd", Lat: 37.76, Lng: -122.39}, destination))

	require.Eventually(t, func() bool {
		return svc.Snapshot(sess).Route.DistanceMeters != nil
	}, 2*time.Second, 5*time.Millisecond)

	// Wait out the superseded call, then confirm its result was dropped.
	time.Sleep(150 * time.Millisecond)
	snap := svc.Snapshot(sess)
	require.NotNil(t, snap.Route.DistanceMeters)
	assert.Equal(t, 1000.0, *snap.Route.DistanceMeters,
		"route result for the replaced address pair clobbered the fresh distance")
	assert.Equal(t, "34 New Rd", snap.Route.Origin.Address)
}

func TestRouteResolvedDuringLoadingEntersBreakdown(t *testing.T) {
	planner := &fakePlanner{meters: 16093.4, delay: 30 * time.Millisecond} // 10 miles
	engine := pricing.NewEngine(pricing.WithRand(rand.New(rand.NewSource(7))))
	svc := NewService(engine, &fakeDetector{counts: model.NewItemCounts()}, planner, 120*time.Millisecond)
	sess := newSession(model.FlowManual)

	require.NoError(t, svc.UpdateCount(sess, model.ItemTables, 1))
	setAddresses(t, svc, sess, true)

	// Submit while the route call is still in flight; it lands during the
	// loading window.
	require.NoError(t, svc.SubmitQuote(sess))
	snap := waitForStep(t, svc, sess, model.StepQuote)

	require.NotNil(t, snap.Route.DistanceMeters)
	require.Contains(t, snap.Breakdown, model.ChargeTravelFee)
	assert.Equal(t, 5, snap.Breakdown[model.ChargeTravelFee])
	assert.Equal(t, snap.Route.TravelFee, snap.Breakdown[model.ChargeTravelFee])
	assert.Equal(t, snap.Breakdown.Total(), snap.Total)
}

func TestPhotoFlowRejectsItemCounts(t *testing.T) {
	svc := newTestService(nil, nil)
	sess := newSession(model.FlowPhoto)

	err := svc.UpdateCount(sess, model.ItemBedrooms, 1)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.True(t, svc.Snapshot(sess).Counts.Empty())
}

func TestIllegalTransitions(t *testing.T) {
	svc := newTestService(nil, nil)
	sess := newSession(model.FlowManual)

	assert.ErrorIs(t, svc.Modify(sess), ErrInvalidTransition)
	assert.ErrorIs(t, svc.BeginSchedule(sess), ErrInvalidTransition)
	assert.ErrorIs(t, svc.CompletePayment(sess), ErrInvalidTransition)

	_, err := svc.SubmitSchedule(sess, validForm())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = svc.AddImages(sess, []model.ImagePayload{{ID: "x"}})
	assert.ErrorIs(t, err, ErrInvalidTransition, "manual flow must reject image uploads")
}

func TestStoreCreateAndExpiry(t *testing.T) {
	store := NewStore(40*time.Millisecond, 10*time.Millisecond)

	sess := store.Create(model.FlowManual)
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, store.Count())

	got, found := store.Get(sess.ID)
	require.True(t, found)
	assert.Same(t, sess, got)

	_, found = store.Get("no-such-session")
	assert.False(t, found)

	time.Sleep(120 * time.Millisecond)
	_, found = store.Get(sess.ID)
	assert.False(t, found, "session survived its TTL")
}
