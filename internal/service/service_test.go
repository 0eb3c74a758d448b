package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/policy"
	"fleet_dispatch/internal/storage/postgres"
	"fleet_dispatch/internal/storage/storagetest"
)

type stubTokens struct{}

func (stubTokens) Issue(userID string, role models.Role) (string, error) {
	return "token-" + userID + "-" + string(role), nil
}

type recorder struct {
	mu     sync.Mutex
	events []interface{}
}

func (r *recorder) Broadcast(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, v)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type env struct {
	svc   IServiceManager
	ctx   context.Context
	hub   *recorder
	clock time.Time

	admin      policy.Actor
	dispatcher policy.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log, _ := test.NewNullLogger()
	e := &env{
		ctx:   context.Background(),
		hub:   &recorder{},
		clock: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	e.svc = New(postgres.New(storagetest.NewDB(t)), Options{
		Tokens:      stubTokens{},
		Broadcaster: e.hub,
		Now:         func() time.Time { return e.clock },
	}, log)

	admin, err := e.svc.Auth().CreateAdmin(e.ctx, "admin@fleet.test", "Admin", "admin-password")
	require.NoError(t, err)
	e.admin = policy.Actor{ID: admin.ID, Role: admin.Role}

	disp, _, err := e.svc.User().Create(e.ctx, e.admin, CreateUserInput{
		Email: "disp@fleet.test", FullName: "Dispatch", Role: models.RoleDispatcher, Password: strPtr("dispatch-pass"),
	})
	require.NoError(t, err)
	e.dispatcher = policy.Actor{ID: disp.ID, Role: disp.Role}
	return e
}

func (e *env) driver(t *testing.T, email, license string) (*models.Driver, policy.Actor) {
	t.Helper()
	d, _, err := e.svc.Driver().Create(e.ctx, e.dispatcher, CreateDriverInput{
		Email: email, FullName: email, LicenseNumber: license, LicenseExpiry: "2027-01-31",
	})
	require.NoError(t, err)
	return d, policy.Actor{ID: d.UserID, Role: models.RoleDriver}
}

func (e *env) vehicle(t *testing.T, plate string) *models.Vehicle {
	t.Helper()
	v, err := e.svc.Vehicle().Create(e.ctx, e.dispatcher, CreateVehicleInput{
		LicensePlate: plate, Make: "Isuzu", Model: "NPR", Year: 2021, FuelCapacity: 80,
	})
	require.NoError(t, err)
	return v
}

func (e *env) job(t *testing.T, driverID, vehicleID *string) *models.Job {
	t.Helper()
	pickup, delivery := e.clock.Add(time.Hour), e.clock.Add(4*time.Hour)
	j, err := e.svc.Job().Create(e.ctx, e.dispatcher, CreateJobInput{
		Title:             "Cold chain delivery",
		PickupLocation:    &LocationPayload{Address: "Depot", Latitude: f64(-1.2921), Longitude: f64(36.8219)},
		DropoffLocation:   &LocationPayload{Address: "Clinic", Latitude: f64(-1.3000), Longitude: f64(36.7800)},
		ScheduledPickup:   &pickup,
		ScheduledDelivery: &delivery,
		DriverID:          driverID,
		VehicleID:         vehicleID,
	})
	require.NoError(t, err)
	return j
}

func strPtr(s string) *string                        { return &s }
func f64(v float64) *float64                         { return &v }
func statusPtr(s models.JobStatus) *models.JobStatus { return &s }

func kindOf(err error) apperr.Kind { return apperr.KindOf(err) }

func TestResolveActor(t *testing.T) {
	e := newEnv(t)

	actor, err := e.svc.Auth().ResolveActor(e.ctx, e.dispatcher.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleDispatcher, actor.Role)

	_, err = e.svc.Auth().ResolveActor(e.ctx, "0b7e1c2a-0000-4000-8000-000000000000")
	assert.Equal(t, apperr.ProfileMissing, kindOf(err))

	_, err = e.svc.Auth().ResolveActor(e.ctx, "")
	assert.Equal(t, apperr.Unauthenticated, kindOf(err))
}

func TestLoginAndRegister(t *testing.T) {
	e := newEnv(t)

	sess, err := e.svc.Auth().Login(e.ctx, "ADMIN@fleet.test ", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, "token-"+e.admin.ID+"-admin", sess.Token)

	_, err = e.svc.Auth().Login(e.ctx, "admin@fleet.test", "wrong-password")
	assert.Equal(t, apperr.Unauthenticated, kindOf(err))

	sess, err = e.svc.Auth().Register(e.ctx, RegisterInput{
		Email: "new@fleet.test", Password: "long-enough", FullName: "New Driver",
		LicenseNumber: "DL-NEW", LicenseExpiry: "2026-12-31",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleDriver, sess.User.Role)

	drivers, err := e.svc.Driver().List(e.ctx, policy.Actor{ID: sess.User.ID, Role: models.RoleDriver})
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "DL-NEW", drivers[0].LicenseNumber)
}

func TestCreateDriverDuplicates(t *testing.T) {
	e := newEnv(t)
	e.driver(t, "drv@fleet.test", "DL-1")

	_, _, err := e.svc.Driver().Create(e.ctx, e.dispatcher, CreateDriverInput{
		Email: "other@fleet.test", FullName: "Other", LicenseNumber: "DL-1", LicenseExpiry: "2027-01-01",
	})
	require.Equal(t, apperr.Conflict, kindOf(err))
	assert.Equal(t, "A driver with this license number already exists", apperr.Message(err))

	_, _, err = e.svc.Driver().Create(e.ctx, e.dispatcher, CreateDriverInput{
		Email: "drv@fleet.test", FullName: "Dup", LicenseNumber: "DL-2", LicenseExpiry: "2027-01-01",
	})
	require.Equal(t, apperr.Conflict, kindOf(err))
	assert.Equal(t, "A user with this email already exists", apperr.Message(err))

	users, err := e.svc.User().List(e.ctx, e.admin)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestCreateDriverGeneratesPassword(t *testing.T) {
	e := newEnv(t)
	d, temp, err := e.svc.Driver().Create(e.ctx, e.dispatcher, CreateDriverInput{
		Email: "gen@fleet.test", FullName: "Gen", LicenseNumber: "DL-G", LicenseExpiry: "2027-01-01",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, temp)
	assert.Equal(t, models.DriverAvailable, d.Status)

	_, err = e.svc.Auth().Login(e.ctx, "gen@fleet.test", temp)
	assert.NoError(t, err)
}

func TestDuplicatePlate(t *testing.T) {
	e := newEnv(t)
	e.vehicle(t, "KDA 001")

	_, err := e.svc.Vehicle().Create(e.ctx, e.dispatcher, CreateVehicleInput{
		LicensePlate: "KDA 001", Make: "Toyota", Model: "Dyna", Year: 2018,
	})
	require.Equal(t, apperr.Conflict, kindOf(err))
	assert.Equal(t, "A vehicle with this license plate already exists", apperr.Message(err))

	all, err := e.svc.Vehicle().List(e.ctx, e.dispatcher)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserRoleChanges(t *testing.T) {
	e := newEnv(t)
	_, drvActor := e.driver(t, "drv@fleet.test", "DL-1")

	_, err := e.svc.User().Update(e.ctx, e.dispatcher, e.dispatcher.ID, UpdateUserInput{Role: (*models.Role)(strPtr("admin"))})
	assert.Equal(t, apperr.Forbidden, kindOf(err))

	_, err = e.svc.User().Update(e.ctx, drvActor, drvActor.ID, UpdateUserInput{Role: (*models.Role)(strPtr("dispatcher"))})
	assert.Equal(t, apperr.Forbidden, kindOf(err))

	u, err := e.svc.User().Update(e.ctx, e.dispatcher, e.dispatcher.ID, UpdateUserInput{FullName: strPtr("Dispatch Desk")})
	require.NoError(t, err)
	assert.Equal(t, "Dispatch Desk", u.FullName)

	_, err = e.svc.User().Update(e.ctx, e.dispatcher, drvActor.ID, UpdateUserInput{FullName: strPtr("x")})
	assert.Equal(t, apperr.Forbidden, kindOf(err))

	ops, _, err := e.svc.User().Create(e.ctx, e.admin, CreateUserInput{
		Email: "ops@fleet.test", FullName: "Ops", Role: models.RoleDispatcher, Password: strPtr("ops-password"),
	})
	require.NoError(t, err)
	u, err = e.svc.User().Update(e.ctx, e.admin, ops.ID, UpdateUserInput{Role: (*models.Role)(strPtr("admin"))})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	_, _, err = e.svc.User().Create(e.ctx, e.dispatcher, CreateUserInput{Email: "x@fleet.test", FullName: "X", Role: models.RoleDriver})
	assert.Equal(t, apperr.Forbidden, kindOf(err))
}

func TestDriverSelfStatus(t *testing.T) {
	e := newEnv(t)
	d, drvActor := e.driver(t, "drv@fleet.test", "DL-1")
	other, _ := e.driver(t, "other@fleet.test", "DL-2")

	bad := models.DriverStatus("urgent_delivery")
	_, err := e.svc.Driver().Update(e.ctx, drvActor, d.ID, UpdateDriverInput{Status: &bad})
	assert.Equal(t, apperr.ValidationFailed, kindOf(err))
	got, err := e.svc.Driver().Get(e.ctx, drvActor, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DriverAvailable, got.Status)

	brk := models.DriverBreak
	got, err = e.svc.Driver().Update(e.ctx, drvActor, d.ID, UpdateDriverInput{Status: &brk})
	require.NoError(t, err)
	assert.Equal(t, models.DriverBreak, got.Status)

	_, err = e.svc.Driver().Update(e.ctx, drvActor, d.ID, UpdateDriverInput{LicenseNumber: strPtr("FORGED")})
	assert.Equal(t, apperr.Forbidden, kindOf(err))

	_, err = e.svc.Driver().Update(e.ctx, drvActor, other.ID, UpdateDriverInput{Status: &brk})
	assert.Equal(t, apperr.Forbidden, kindOf(err))

	_, err = e.svc.Driver().Get(e.ctx, drvActor, other.ID)
	assert.Equal(t, apperr.Forbidden, kindOf(err))
}

func TestDriverJobVisibility(t *testing.T) {
	e := newEnv(t)
	a, actorA := e.driver(t, "a@fleet.test", "DL-A")
	_, actorB := e.driver(t, "b@fleet.test", "DL-B")
	jobA := e.job(t, &a.ID, nil)
	e.job(t, nil, nil)

	got, err := e.svc.Job().Get(e.ctx, actorA, jobA.ID)
	require.NoError(t, err)
	assert.Equal(t, jobA.ID, got.ID)

	_, err = e.svc.Job().Get(e.ctx, actorB, jobA.ID)
	assert.Equal(t, apperr.Forbidden, kindOf(err))

	listA, err := e.svc.Job().List(e.ctx, actorA, JobFilter{})
	require.NoError(t, err)
	require.Len(t, listA, 1)

	listB, err := e.svc.Job().List(e.ctx, actorB, JobFilter{})
	require.NoError(t, err)
	assert.Empty(t, listB)

	all, err := e.svc.Job().List(e.ctx, e.dispatcher, JobFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = e.svc.Job().List(e.ctx, e.dispatcher, JobFilter{Status: "lost"})
	assert.Equal(t, apperr.ValidationFailed, kindOf(err))

	_, err = e.svc.Vehicle().List(e.ctx, actorA)
	assert.Equal(t, apperr.Forbidden, kindOf(err))
}

func TestJobLifecycleThroughService(t *testing.T) {
	e := newEnv(t)
	d, drv := e.driver(t, "drv@fleet.test", "DL-1")
	v := e.vehicle(t, "KDA 001")
	job := e.job(t, &d.ID, &v.ID)
	require.Equal(t, models.JobAssigned, job.Status)

	// driver cannot cancel
	_, err := e.svc.Job().Update(e.ctx, drv, job.ID, UpdateJobInput{Status: statusPtr(models.JobCancelled)})
	assert.Equal(t, apperr.ValidationFailed, kindOf(err))

	// driver cannot edit fields
	_, err = e.svc.Job().Update(e.ctx, drv, job.ID, UpdateJobInput{Title: strPtr("mine now")})
	assert.Equal(t, apperr.Forbidden, kindOf(err))

	// status with other fields is rejected
	_, err = e.svc.Job().Update(e.ctx, e.dispatcher, job.ID, UpdateJobInput{Status: statusPtr(models.JobInProgress), Notes: strPtr("x")})
	assert.Equal(t, apperr.ValidationFailed, kindOf(err))

	started, err := e.svc.Job().Update(e.ctx, drv, job.ID, UpdateJobInput{Status: statusPtr(models.JobInProgress)})
	require.NoError(t, err)
	require.NotNil(t, started.ActualPickup)
	assert.Nil(t, started.ActualDelivery)

	e.clock = e.clock.Add(2 * time.Hour)
	done, err := e.svc.Job().Update(e.ctx, drv, job.ID, UpdateJobInput{Status: statusPtr(models.JobCompleted)})
	require.NoError(t, err)
	require.NotNil(t, done.ActualDelivery)
	assert.False(t, done.ActualDelivery.Before(*done.ActualPickup))
	assert.Equal(t, models.DriverAvailable, done.Driver.Status)
	assert.Equal(t, models.VehicleAvailable, done.Vehicle.Status)

	// terminal
	_, err = e.svc.Job().Update(e.ctx, e.dispatcher, job.ID, UpdateJobInput{Status: statusPtr(models.JobCancelled)})
	assert.Equal(t, apperr.ValidationFailed, kindOf(err))

	// the dispatcher who created the job heard about both changes
	ns, err := e.svc.Notification().List(e.ctx, e.dispatcher)
	require.NoError(t, err)
	assert.Len(t, ns, 2)
}

func TestPendingCannotSkipToInProgress(t *testing.T) {
	e := newEnv(t)
	job := e.job(t, nil, nil)

	_, err := e.svc.Job().Update(e.ctx, e.dispatcher, job.ID, UpdateJobInput{Status: statusPtr(models.JobInProgress)})
	assert.Equal(t, apperr.ValidationFailed, kindOf(err))

	got, err := e.svc.Job().Get(e.ctx, e.dispatcher, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, got.Status)
	assert.Nil(t, got.ActualPickup)
}

func TestAssignmentNotifiesDriver(t *testing.T) {
	e := newEnv(t)
	d, drv := e.driver(t, "drv@fleet.test", "DL-1")
	job := e.job(t, nil, nil)

	updated, err := e.svc.Job().Update(e.ctx, e.dispatcher, job.ID, UpdateJobInput{DriverID: &d.ID})
	require.NoError(t, err)
	assert.Equal(t, models.JobAssigned, updated.Status)

	ns, err := e.svc.Notification().List(e.ctx, drv)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Equal(t, "New job assigned", ns[0].Title)

	read, err := e.svc.Notification().MarkRead(e.ctx, drv, ns[0].ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	_, err = e.svc.Notification().MarkRead(e.ctx, e.dispatcher, ns[0].ID)
	assert.Equal(t, apperr.NotFound, kindOf(err))
}

func TestConcurrentAssignmentOfSameDriver(t *testing.T) {
	e := newEnv(t)
	d, _ := e.driver(t, "drv@fleet.test", "DL-1")
	jobs := []*models.Job{e.job(t, nil, nil), e.job(t, nil, nil), e.job(t, nil, nil)}

	var wg sync.WaitGroup
	errs := make([]error, len(jobs))
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = e.svc.Job().Update(e.ctx, e.dispatcher, id, UpdateJobInput{DriverID: &d.ID})
		}(i, j.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperr.Conflict, kindOf(err))
		assert.Equal(t, "Failed to assign job. Driver or vehicle may not be available.", apperr.Message(err))
	}
	assert.Equal(t, 1, succeeded)

	assigned, err := e.svc.Job().List(e.ctx, e.dispatcher, JobFilter{Status: string(models.JobAssigned)})
	require.NoError(t, err)
	assert.Len(t, assigned, 1)
}

func TestLocationUpdatesAndTrail(t *testing.T) {
	e := newEnv(t)
	d, drv := e.driver(t, "drv@fleet.test", "DL-1")

	_, err := e.svc.Driver().UpdateLocation(e.ctx, drv, d.ID, LocationInput{Latitude: f64(91), Longitude: f64(0)})
	assert.Equal(t, apperr.ValidationFailed, kindOf(err))

	first, err := e.svc.Driver().UpdateLocation(e.ctx, drv, d.ID, LocationInput{Latitude: f64(-1.2921), Longitude: f64(36.8219)})
	require.NoError(t, err)
	assert.True(t, first.Recorded)
	assert.Equal(t, models.EventInitial, first.EventType)

	// a metre away a second later: current location moves, trail does not grow
	e.clock = e.clock.Add(time.Second)
	jitter, err := e.svc.Driver().UpdateLocation(e.ctx, drv, d.ID, LocationInput{Latitude: f64(-1.29211), Longitude: f64(36.8219)})
	require.NoError(t, err)
	assert.False(t, jitter.Recorded)

	e.clock = e.clock.Add(30 * time.Second)
	moved, err := e.svc.Driver().UpdateLocation(e.ctx, drv, d.ID, LocationInput{Latitude: f64(-1.2950), Longitude: f64(36.8250)})
	require.NoError(t, err)
	assert.True(t, moved.Recorded)
	assert.Equal(t, models.EventMove, moved.EventType)
	assert.Equal(t, 3, e.hub.count())

	current, err := e.svc.Driver().Get(e.ctx, e.dispatcher, d.ID)
	require.NoError(t, err)
	assert.InDelta(t, -1.2950, *current.CurrentLatitude, 1e-9)

	trail, err := e.svc.Driver().Track(e.ctx, e.dispatcher, d.ID)
	require.NoError(t, err)
	require.Len(t, trail.Points, 2)
	assert.Equal(t, models.EventInitial, trail.Points[0].EventType)
	assert.Greater(t, trail.DistanceMeters, 400.0)

	var geometry struct {
		Type        string      `json:"type"`
		Coordinates [][]float64 `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal(trail.Geometry, &geometry))
	assert.Equal(t, "LineString", geometry.Type)
	require.Len(t, geometry.Coordinates, 2)
	assert.InDelta(t, 36.8219, geometry.Coordinates[0][0], 1e-9)

	_, otherActor := e.driver(t, "other@fleet.test", "DL-2")
	_, err = e.svc.Driver().UpdateLocation(e.ctx, otherActor, d.ID, LocationInput{Latitude: f64(0), Longitude: f64(0)})
	assert.Equal(t, apperr.Forbidden, kindOf(err))
}

func TestLocationUpdateRejectsForeignJob(t *testing.T) {
	e := newEnv(t)
	d, drv := e.driver(t, "drv@fleet.test", "DL-1")
	job := e.job(t, nil, nil)

	_, err := e.svc.Driver().UpdateLocation(e.ctx, drv, d.ID, LocationInput{Latitude: f64(0), Longitude: f64(0), JobID: &job.ID})
	assert.Equal(t, apperr.ValidationFailed, kindOf(err))
}

func TestVehicleRecordsAndDashboard(t *testing.T) {
	e := newEnv(t)
	d, drv := e.driver(t, "drv@fleet.test", "DL-1")
	v := e.vehicle(t, "KDA 001")
	other := e.vehicle(t, "KDA 002")
	e.job(t, &d.ID, &v.ID)

	got, err := e.svc.Vehicle().Get(e.ctx, drv, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VehicleInUse, got.Status)
	_, err = e.svc.Vehicle().Get(e.ctx, drv, other.ID)
	assert.Equal(t, apperr.Forbidden, kindOf(err))

	fuel, err := e.svc.Vehicle().AddFuel(e.ctx, drv, v.ID, FuelInput{Amount: 40, Cost: 7200, Mileage: 1500})
	require.NoError(t, err)
	assert.Equal(t, d.ID, fuel.DriverID)
	_, err = e.svc.Vehicle().AddFuel(e.ctx, drv, other.ID, FuelInput{Amount: 40})
	assert.Equal(t, apperr.Forbidden, kindOf(err))

	next := e.clock.Add(72 * time.Hour)
	_, err = e.svc.Vehicle().AddMaintenance(e.ctx, e.dispatcher, other.ID, MaintenanceInput{
		Type: models.MaintenanceInspection, Description: "Annual inspection", NextDue: &next,
	})
	require.NoError(t, err)
	_, err = e.svc.Vehicle().AddMaintenance(e.ctx, drv, v.ID, MaintenanceInput{Type: models.MaintenanceRepair, Description: "x"})
	assert.Equal(t, apperr.Forbidden, kindOf(err))

	recs, err := e.svc.Vehicle().ListMaintenance(e.ctx, e.dispatcher, other.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	err = e.svc.Vehicle().Delete(e.ctx, e.dispatcher, other.ID)
	assert.Equal(t, apperr.Forbidden, kindOf(err))
	err = e.svc.Vehicle().Delete(e.ctx, e.admin, v.ID)
	assert.Equal(t, apperr.Conflict, kindOf(err))

	stats, err := e.svc.Dashboard().Stats(e.ctx, e.dispatcher)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalJobs)
	assert.Equal(t, int64(1), stats.ActiveJobs)
	assert.Equal(t, int64(0), stats.AvailableDrivers)
	assert.Equal(t, int64(1), stats.AvailableVehicles)
	assert.Equal(t, int64(1), stats.MaintenanceDue)

	_, err = e.svc.Dashboard().Stats(e.ctx, drv)
	assert.Equal(t, apperr.Forbidden, kindOf(err))
}

func TestOwnDriverProfile(t *testing.T) {
	e := newEnv(t)
	d, self := e.driver(t, "own@fleet.test", "LIC-OWN")

	got, err := e.svc.Driver().Own(e.ctx, self)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	_, err = e.svc.Driver().Own(e.ctx, e.dispatcher)
	assert.Equal(t, apperr.Forbidden, kindOf(err))
}

func TestDriverRoleRequiresDriverProfile(t *testing.T) {
	e := newEnv(t)
	_, drvActor := e.driver(t, "drv@fleet.test", "DL-1")

	_, _, err := e.svc.User().Create(e.ctx, e.admin, CreateUserInput{
		Email: "bare@fleet.test", FullName: "Bare", Role: models.RoleDriver, Password: strPtr("bare-password"),
	})
	assert.Equal(t, apperr.ValidationFailed, kindOf(err))

	_, err = e.svc.User().Update(e.ctx, e.admin, e.dispatcher.ID, UpdateUserInput{Role: (*models.Role)(strPtr("driver"))})
	assert.Equal(t, apperr.ValidationFailed, kindOf(err))

	_, err = e.svc.User().Update(e.ctx, e.admin, drvActor.ID, UpdateUserInput{Role: (*models.Role)(strPtr("dispatcher"))})
	assert.Equal(t, apperr.ValidationFailed, kindOf(err))

	users, err := e.svc.User().List(e.ctx, e.admin)
	require.NoError(t, err)
	for _, u := range users {
		if u.Role == models.RoleDriver {
			assert.Equal(t, drvActor.ID, u.ID)
		}
	}
}

func vehicleStatusPtr(s models.VehicleStatus) *models.VehicleStatus { return &s }

func TestVehicleStatusFollowsAssignment(t *testing.T) {
	e := newEnv(t)
	d1, _ := e.driver(t, "one@fleet.test", "DL-1")
	d2, _ := e.driver(t, "two@fleet.test", "DL-2")
	v := e.vehicle(t, "KDA 100")
	spare := e.vehicle(t, "KDA 200")
	e.job(t, &d1.ID, &v.ID)

	_, err := e.svc.Vehicle().Update(e.ctx, e.dispatcher, v.ID, UpdateVehicleInput{Status: vehicleStatusPtr(models.VehicleAvailable)})
	assert.Equal(t, apperr.Conflict, kindOf(err))

	_, err = e.svc.Vehicle().Update(e.ctx, e.dispatcher, spare.ID, UpdateVehicleInput{Status: vehicleStatusPtr(models.VehicleInUse)})
	assert.Equal(t, apperr.Conflict, kindOf(err))

	_, err = e.svc.Vehicle().Create(e.ctx, e.dispatcher, CreateVehicleInput{
		LicensePlate: "KDA 300", Make: "Isuzu", Model: "NPR", Year: 2021, Status: vehicleStatusPtr(models.VehicleInUse),
	})
	assert.Equal(t, apperr.ValidationFailed, kindOf(err))

	got, err := e.svc.Vehicle().Update(e.ctx, e.dispatcher, spare.ID, UpdateVehicleInput{Status: vehicleStatusPtr(models.VehicleMaintenance)})
	require.NoError(t, err)
	assert.Equal(t, models.VehicleMaintenance, got.Status)

	// a second job cannot take the vehicle the first one holds
	pickup, delivery := e.clock.Add(time.Hour), e.clock.Add(2*time.Hour)
	_, err = e.svc.Job().Create(e.ctx, e.dispatcher, CreateJobInput{
		Title:             "Second run",
		PickupLocation:    &LocationPayload{Address: "Depot", Latitude: f64(-1.29), Longitude: f64(36.82)},
		DropoffLocation:   &LocationPayload{Address: "Yard", Latitude: f64(-1.31), Longitude: f64(36.79)},
		ScheduledPickup:   &pickup,
		ScheduledDelivery: &delivery,
		DriverID:          &d2.ID,
		VehicleID:         &v.ID,
	})
	assert.Equal(t, apperr.Conflict, kindOf(err))
}

func TestDriverCannotTakeVehicleOfAnotherActiveJob(t *testing.T) {
	e := newEnv(t)
	d1, _ := e.driver(t, "one@fleet.test", "DL-1")
	d2, _ := e.driver(t, "two@fleet.test", "DL-2")
	v := e.vehicle(t, "KDA 100")
	free := e.vehicle(t, "KDA 200")
	e.job(t, &d1.ID, &v.ID)

	_, err := e.svc.Driver().Update(e.ctx, e.dispatcher, d2.ID, UpdateDriverInput{VehicleID: &v.ID})
	assert.Equal(t, apperr.Conflict, kindOf(err))

	got, err := e.svc.Driver().Update(e.ctx, e.dispatcher, d1.ID, UpdateDriverInput{VehicleID: &v.ID})
	require.NoError(t, err)
	require.NotNil(t, got.VehicleID)
	assert.Equal(t, v.ID, *got.VehicleID)

	got, err = e.svc.Driver().Update(e.ctx, e.dispatcher, d2.ID, UpdateDriverInput{VehicleID: &free.ID})
	require.NoError(t, err)
	assert.Equal(t, free.ID, *got.VehicleID)
}
