package memstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Transporte-api/internal/domain"
	"github.com/jhoicas/Transporte-api/internal/domain/entity"
	"github.com/jhoicas/Transporte-api/internal/infrastructure/memstore"
	"github.com/jhoicas/Transporte-api/pkg/logger"
)

func TestInsert_AsignaIDYEsVisiblePorClave(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	id, err := s.Insert(ctx, &entity.Company{RUC: "20123456789", Name: "TRANSPORTES SUR"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.FindByNaturalKey(ctx, entity.KindCompany, "20123456789")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.GetMeta().ID)
	assert.True(t, got.GetMeta().Active)
	assert.False(t, got.GetMeta().CreatedAt.IsZero())
}

func TestInsert_ClaveDuplicadaEsConstraintViolation(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	_, err := s.Insert(ctx, &entity.Vehicle{Plate: "ABC-123"})
	require.NoError(t, err)

	_, err = s.Insert(ctx, &entity.Vehicle{Plate: "ABC-123"})
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestFindByNaturalKey_AusenteDevuelveNil(t *testing.T) {
	got, err := memstore.New().FindByNaturalKey(context.Background(), entity.KindResolution, "R-1")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeactivate_LapidaInvisibleYLiberaClave(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	id, err := s.Insert(ctx, &entity.Vehicle{Plate: "ABC-123"})
	require.NoError(t, err)
	require.NoError(t, s.Deactivate(ctx, entity.KindVehicle, id))

	got, err := s.FindByNaturalKey(ctx, entity.KindVehicle, "ABC-123")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.Insert(ctx, &entity.Vehicle{Plate: "ABC-123"})
	assert.NoError(t, err)
}

func TestUpdate_AplicaDiff(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	id, err := s.Insert(ctx, &entity.Company{RUC: "20123456789", Email: "old@x.pe"})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, entity.KindCompany, id, entity.Diff{"email": "new@x.pe"}))

	got, err := s.FindByNaturalKey(ctx, entity.KindCompany, "20123456789")
	require.NoError(t, err)
	assert.Equal(t, "new@x.pe", got.(*entity.Company).Email)
}

func TestUpdate_IDInexistente(t *testing.T) {
	err := memstore.New().Update(context.Background(), entity.KindCompany, "nope", entity.Diff{"email": "a@b.pe"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestArrays_SemanticaDeConjunto(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	id, err := s.Insert(ctx, &entity.Resolution{Number: "R-0001-2025"})
	require.NoError(t, err)

	require.NoError(t, s.AppendToArray(ctx, entity.KindResolution, id, "vehicle_ids", "v1"))
	require.NoError(t, s.AppendToArray(ctx, entity.KindResolution, id, "vehicle_ids", "v1"))
	require.NoError(t, s.AppendToArray(ctx, entity.KindResolution, id, "vehicle_ids", "v2"))

	got, err := s.FindByID(ctx, entity.KindResolution, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, got.(*entity.Resolution).VehicleIDs)

	require.NoError(t, s.RemoveFromArray(ctx, entity.KindResolution, id, "vehicle_ids", "v1"))
	require.NoError(t, s.RemoveFromArray(ctx, entity.KindResolution, id, "vehicle_ids", "ausente"))
	got, _ = s.FindByID(ctx, entity.KindResolution, id)
	assert.Equal(t, []string{"v2"}, got.(*entity.Resolution).VehicleIDs)
}

func TestAppendToArray_CampoInexistenteEsValidationReject(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	id, err := s.Insert(ctx, &entity.Resolution{Number: "R-1"})
	require.NoError(t, err)

	err = s.AppendToArray(ctx, entity.KindResolution, id, "no_existe", "x")
	assert.ErrorIs(t, err, domain.ErrValidationReject)
}

func TestWithFault_InyectaFalla(t *testing.T) {
	boom := errors.New("caído")
	s := memstore.New(memstore.WithFault(func(op memstore.Op, kind entity.Kind, _ string) error {
		if op == memstore.OpInsert && kind == entity.KindVehicle {
			return boom
		}
		return nil
	}))
	_, err := s.Insert(context.Background(), &entity.Vehicle{Plate: "ABC-123"})
	assert.ErrorIs(t, err, boom)

	_, err = s.Insert(context.Background(), &entity.Company{RUC: "20123456789"})
	assert.NoError(t, err)
}

func TestWithLogicalScope_PropagaCorrelacion(t *testing.T) {
	var seen string
	err := memstore.New().WithLogicalScope(context.Background(), func(ctx context.Context) error {
		seen = logger.CorrelationID(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, seen)
}

func TestList_OrdenaPorClave(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	for _, p := range []string{"XYZ-999", "ABC-123"} {
		_, err := s.Insert(ctx, &entity.Vehicle{Plate: p})
		require.NoError(t, err)
	}
	all, err := s.List(ctx, entity.KindVehicle)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ABC-123", all[0].NaturalKey())
}
