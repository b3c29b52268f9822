package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festahub/festahub/internal/authz"
	"github.com/festahub/festahub/internal/reqctx"
)

type mockRepository struct {
	rows []TimelineRow
}

func (m *mockRepository) TimelineWindow(_ context.Context, _ TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	if offset >= len(m.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.rows) {
		end = len(m.rows)
	}
	return m.rows[offset:end], nil
}

func (m *mockRepository) TimelineAll(context.Context, TimelineFilters) ([]TimelineRow, error) {
	return m.rows, nil
}

func adminContext() *reqctx.Context {
	return reqctx.NewWithActor(authz.NewActor("u-admin", authz.RoleAdministrator), nil)
}

func operatorContext() *reqctx.Context {
	return reqctx.NewWithActor(authz.NewActor("u-op", authz.RoleCommitteeOperator), nil)
}

func sampleRows(n int) []TimelineRow {
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := make([]TimelineRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, TimelineRow{
			At:       base.Add(-time.Duration(i) * time.Minute),
			ActorID:  "u-admin",
			Role:     "administrator",
			Action:   "UPDATE",
			Entity:   "project",
			EntityID: "p-1",
		})
	}
	return rows
}

func TestTimelineAdministratorOnly(t *testing.T) {
	svc := NewService(&mockRepository{rows: sampleRows(1)})

	_, err := svc.Timeline(context.Background(), operatorContext(), TimelineFilters{})
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	result, err := svc.Timeline(context.Background(), adminContext(), TimelineFilters{})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)
}

func TestTimelinePaging(t *testing.T) {
	svc := NewService(&mockRepository{rows: sampleRows(5)})

	first, err := svc.Timeline(context.Background(), adminContext(), TimelineFilters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, first.Rows, 2)
	assert.True(t, first.Paging.HasNext)
	assert.Equal(t, 2, first.Paging.NextPage)
	assert.Zero(t, first.Paging.PrevPage)

	last, err := svc.Timeline(context.Background(), adminContext(), TimelineFilters{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, last.Rows, 1)
	assert.False(t, last.Paging.HasNext)
	assert.Equal(t, 2, last.Paging.PrevPage)
}

func TestExportCSV(t *testing.T) {
	rows := sampleRows(1)
	rows[0].Meta = map[string]any{"role": "committee"}
	svc := NewService(&mockRepository{rows: rows})

	_, err := svc.ExportCSV(context.Background(), operatorContext(), TimelineFilters{})
	assert.ErrorIs(t, err, authz.ErrPermissionDenied)

	data, err := svc.ExportCSV(context.Background(), adminContext(), TimelineFilters{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "occurred_at,actor_id,actor_role,action,entity,entity_id,meta", lines[0])
	assert.Contains(t, lines[1], "u-admin")
	assert.Contains(t, lines[1], `""role"":""committee""`)
}
