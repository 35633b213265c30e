package sensor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantwatch/plantwatch/internal/api/models"
	"github.com/plantwatch/plantwatch/internal/report"
	"github.com/plantwatch/plantwatch/internal/sensor"
	"github.com/plantwatch/plantwatch/internal/user"
)

type fixture struct {
	svc     *sensor.Service
	users   *user.InMemoryRepository
	reports *report.InMemoryRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := user.NewInMemoryRepository()
	reports := report.NewInMemoryRepository()
	svc := sensor.NewService(sensor.ServiceConfig{
		Repo:    sensor.NewInMemoryRepository(),
		Users:   users,
		Reports: reports,
	})
	return &fixture{svc: svc, users: users, reports: reports}
}

func (f *fixture) addUser(t *testing.T, name string, expo *string) int64 {
	t.Helper()
	u := &user.User{Username: name, Gmail: name + "@x.com", PasswordHash: "x", ExpoToken: expo}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.ID
}

func sensorReq(id, name, desc string) *models.SensorCreateRequest {
	return &models.SensorCreateRequest{SensorID: id, SensorUsername: name, SensorDescripction: desc}
}

func TestService_Register(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice", nil)

	got, err := f.svc.Register(context.Background(), alice, sensorReq("S1", "Soil A", "desc"))
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, "S1", got.SensorID)
	assert.Equal(t, "Soil A", got.SensorUsername)
	assert.Equal(t, "desc", got.SensorDescripction)
	assert.Equal(t, alice, got.UsuarioID)
}

func TestService_Register_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), 1, sensorReq("", "", "d"))

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)
}

func TestService_Register_DuplicateAcrossUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice", nil)
	bob := f.addUser(t, "bob", nil)

	original, err := f.svc.Register(ctx, alice, sensorReq("S1", "Soil A", "desc"))
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, alice, sensorReq("S1", "again", "again"))
	assert.ErrorIs(t, err, sensor.ErrSensorExists)

	_, err = f.svc.Register(ctx, bob, sensorReq("S1", "stolen", "stolen"))
	assert.ErrorIs(t, err, sensor.ErrSensorExists)

	detail, err := f.svc.Get(ctx, alice, original.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soil A", detail.SensorUsername)
}

func TestService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice", nil)
	bob := f.addUser(t, "bob", nil)

	_, err := f.svc.Register(ctx, alice, sensorReq("S1", "Soil A", "a"))
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, bob, sensorReq("S2", "Soil B", "b"))
	require.NoError(t, err)

	got, err := f.svc.List(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []models.SensorSummary{{SensorID: "S1", SensorUsername: "Soil A"}}, got)

	empty, err := f.svc.List(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestService_Get_OwnershipIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice", nil)
	bob := f.addUser(t, "bob", nil)

	s, err := f.svc.Register(ctx, bob, sensorReq("S2", "Soil B", "b"))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, alice, s.ID)
	assert.ErrorIs(t, err, sensor.ErrSensorNotFound)

	_, err = f.svc.Get(ctx, bob, s.ID+100)
	assert.ErrorIs(t, err, sensor.ErrSensorNotFound)
}

func TestService_Get_ReadingsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice", nil)

	s, err := f.svc.Register(ctx, alice, sensorReq("S1", "Soil A", "a"))
	require.NoError(t, err)

	for _, v := range []float64{1, 2, 3} {
		require.NoError(t, f.reports.Create(ctx, &report.Report{SensorID: "S1", Valor: v}))
	}
	require.NoError(t, f.reports.Create(ctx, &report.Report{SensorID: "S2", Valor: 9}))

	detail, err := f.svc.Get(ctx, alice, s.ID)
	require.NoError(t, err)
	require.Len(t, detail.Reportes, 3)
	assert.Equal(t, 3.0, detail.Reportes[0].Valor)
	assert.Equal(t, 1.0, detail.Reportes[2].Valor)
}

func TestService_ListSensorInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.addUser(t, "alice", nil)

	_, err := f.svc.Register(ctx, alice, sensorReq("S1", "Soil A", "desc"))
	require.NoError(t, err)

	got, err := f.svc.ListSensorInfo(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []report.SensorInfo{{SensorID: "S1", SensorUsername: "Soil A", SensorDescripction: "desc"}}, got)
}

func TestService_OwnerContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	expo := "ExponentPushToken[a]"
	alice := f.addUser(t, "alice", &expo)

	_, err := f.svc.Register(ctx, alice, sensorReq("S1", "Soil A", "desc"))
	require.NoError(t, err)

	got, err := f.svc.OwnerContact(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "Soil A", got.SensorName)
	require.NotNil(t, got.ExpoToken)
	assert.Equal(t, expo, *got.ExpoToken)

	_, err = f.svc.OwnerContact(ctx, "missing")
	assert.ErrorIs(t, err, sensor.ErrSensorNotFound)

	_, err = f.svc.OwnerContact(ctx, "")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}
