package postgres

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novatech/repair-desk-backend/internal/core/domain"
	apperrors "github.com/novatech/repair-desk-backend/internal/core/errors"
	"github.com/novatech/repair-desk-backend/internal/core/ports"
)

// newTestOrderRepo is a helper to create the repo for a test.
func newTestOrderRepo(t *testing.T) ports.OrderRepository {
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")
	return NewOrderRepository(testPool)
}

// mustCreateOrder persists a minimal valid order for test setup.
func mustCreateOrder(t *testing.T, repo ports.OrderRepository, subject, department string) *domain.RepairOrder {
	t.Helper()

	order, err := domain.NewRepairOrder(domain.OrderParams{
		Subject:    subject,
		DeviceName: "ThinkPad T14",
		Department: department,
		ReportedBy: "Jordan Miles",
	})
	require.NoError(t, err)

	created, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return created
}

func TestOrderRepository_CreateAssignsOrderNo(t *testing.T) {
	repo := newTestOrderRepo(t)

	first := mustCreateOrder(t, repo, "Screen flickers", "Accounting")
	second := mustCreateOrder(t, repo, "No sound", "Accounting")

	// Order numbers follow RO-<year>-<seq> and are strictly increasing.
	assert.Regexp(t, `^RO-\d{4}-\d{4,}$`, first.OrderNo)
	assert.Regexp(t, `^RO-\d{4}-\d{4,}$`, second.OrderNo)
	assert.NotEqual(t, first.OrderNo, second.OrderNo)

	assert.Equal(t, domain.StatusPending, first.Status)
	assert.False(t, first.CreatedAt.IsZero())
	assert.False(t, first.LastModifiedAt.Before(first.CreatedAt))
}

func TestOrderRepository_GetByOrderNo(t *testing.T) {
	ctx := context.Background()
	repo := newTestOrderRepo(t)

	created := mustCreateOrder(t, repo, "Keyboard dead keys", "Support")

	found, err := repo.GetByOrderNo(ctx, created.OrderNo)
	require.NoError(t, err)

	assert.Equal(t, created.OrderNo, found.OrderNo)
	assert.Equal(t, "Keyboard dead keys", found.Subject)
	assert.Equal(t, "Support", found.Department)
}

func TestOrderRepository_GetByOrderNo_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestOrderRepo(t)

	_, err := repo.GetByOrderNo(ctx, "RO-2026-9999")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestOrderRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := newTestOrderRepo(t)

	created := mustCreateOrder(t, repo, "Fan noise", "Facilities")

	technician := "Sam Okafor"
	status := domain.StatusInProgress
	require.NoError(t, created.Apply(domain.OrderUpdate{
		Status:             &status,
		AssignedTechnician: &technician,
	}))

	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusInProgress, updated.Status)
	assert.Equal(t, "Sam Okafor", updated.AssignedTechnician)
	assert.True(t, updated.LastModifiedAt.After(updated.CreatedAt))
}

func TestOrderRepository_Update_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestOrderRepo(t)

	ghost, err := domain.NewRepairOrder(domain.OrderParams{
		Subject:    "Ghost order",
		DeviceName: "Printer",
		Department: "Legal",
		ReportedBy: "Nobody",
	})
	require.NoError(t, err)
	ghost.OrderNo = "RO-2026-0000"

	_, err = repo.Update(ctx, ghost)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestOrderRepository_DeleteDoesNotReuseOrderNo(t *testing.T) {
	ctx := context.Background()
	repo := newTestOrderRepo(t)

	created := mustCreateOrder(t, repo, "Cracked hinge", "Sales")

	require.NoError(t, repo.Delete(ctx, created.OrderNo))

	_, err := repo.GetByOrderNo(ctx, created.OrderNo)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)

	// The next order must mint a fresh number, not recycle the deleted one.
	next := mustCreateOrder(t, repo, "Replacement request", "Sales")
	assert.NotEqual(t, created.OrderNo, next.OrderNo)
}

func TestOrderRepository_Delete_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestOrderRepo(t)

	err := repo.Delete(ctx, "RO-2026-8888")
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestOrderRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestOrderRepo(t)

	dept := "Engineering-Filters"
	a := mustCreateOrder(t, repo, "Docking station dropouts", dept)
	b := mustCreateOrder(t, repo, "Monitor stuck pixels", dept)

	status := domain.StatusCompleted
	require.NoError(t, b.Apply(domain.OrderUpdate{Status: &status}))
	_, err := repo.Update(ctx, b)
	require.NoError(t, err)

	// Filter by department only.
	all, err := repo.List(ctx, ports.ListOrdersRepoParams{
		Department: &dept,
		Limit:      10,
	})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Newest first.
	assert.Equal(t, b.OrderNo, all[0].OrderNo)
	assert.Equal(t, a.OrderNo, all[1].OrderNo)

	// Filter by status within the department.
	completed := "completed"
	filtered, err := repo.List(ctx, ports.ListOrdersRepoParams{
		Status:     &completed,
		Department: &dept,
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, b.OrderNo, filtered[0].OrderNo)
}

func TestOrderRepository_ListSearch(t *testing.T) {
	ctx := context.Background()
	repo := newTestOrderRepo(t)

	created := mustCreateOrder(t, repo, "Trackpad drift on XDR-9000", "Design")

	search := strings.ToLower("XDR-9000")
	results, err := repo.List(ctx, ports.ListOrdersRepoParams{
		Search: &search,
		Limit:  10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, created.OrderNo, results[0].OrderNo)
}

func TestOrderRepository_ListPagination(t *testing.T) {
	ctx := context.Background()
	repo := newTestOrderRepo(t)

	dept := "Paging"
	for i := 0; i < 3; i++ {
		mustCreateOrder(t, repo, fmt.Sprintf("Paged issue %d", i), dept)
	}

	page, err := repo.List(ctx, ports.ListOrdersRepoParams{
		Department: &dept,
		Limit:      2,
		Offset:     0,
	})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := repo.List(ctx, ports.ListOrdersRepoParams{
		Department: &dept,
		Limit:      2,
		Offset:     2,
	})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
