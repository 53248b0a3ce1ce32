package manager_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horao-project/horao/pkg/domain"
	"github.com/horao-project/horao/pkg/manager"
	"github.com/horao-project/horao/pkg/scheduler"
	"github.com/horao-project/horao/pkg/storage"
)

func TestNewRestoresClockAcrossRestarts(t *testing.T) {
	store := storage.NewMemoryStore()

	r1, err := manager.New(manager.Config{Scheduler: scheduler.DefaultConfig()}, store)
	require.NoError(t, err)
	r1.Clock().Update(41)
	require.NoError(t, r1.PersistClock())

	r2, err := manager.New(manager.Config{Scheduler: scheduler.DefaultConfig()}, store)
	require.NoError(t, err)
	assert.Equal(t, r1.Clock().ID(), r2.Clock().ID())
	assert.GreaterOrEqual(t, r2.Clock().Read(), uint32(42))
}

func TestReplicaScheduleAdmitsWithinCapacity(t *testing.T) {
	store := storage.NewMemoryStore()
	cfg := manager.Config{Scheduler: scheduler.DefaultConfig()}
	r, err := manager.New(cfg, store)
	require.NoError(t, err)

	dc := domain.NewDataCenter("dc-1", r.Clock())
	net := domain.NewDataCenterNetwork("data-1", domain.NetworkData, true)
	net.Add(&domain.Server{Computer: domain.Computer{
		Hardware: domain.Hardware{SerialNumber: "srv1", Model: "server"},
		CPUs:     []domain.CPU{{Cores: 8}},
		RAMs:     []domain.RAM{{SizeGB: 64}},
	}})
	r.AddDataCenter(dc, []*domain.DataCenterNetwork{net})

	tenant := domain.Tenant{Name: "tenant-a"}
	now := time.Now()
	start := now.Add(time.Hour)
	end := now.Add(24 * time.Hour)
	claim := domain.Claim{
		Name:  "r1",
		Start: &start,
		End:   &end,
		Reservation: &domain.Reservation{
			EndUser:   "delegate-1",
			Resources: []any{domain.NewCompute(4, 4, false, 1)},
			HSNOnly:   true,
		},
	}

	got, err := r.Schedule(claim, tenant, now)
	require.NoError(t, err)
	assert.True(t, got.Equal(start))
	assert.Len(t, r.Infrastructure().Claims, 1)
}
