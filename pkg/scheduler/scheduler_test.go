package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horao-project/horao/pkg/domain"
	"github.com/horao-project/horao/pkg/scheduler"
)

// twoServerInfrastructure builds the S4/S5 fixture: one cabinet, two
// servers each with 2x4-core CPUs and 3x16GB RAM, for infrastructure
// totals of 16 cores and 96 GB of RAM.
func twoServerInfrastructure() *domain.LogicalInfrastructure {
	newServer := func(serial string) *domain.Server {
		return &domain.Server{Computer: domain.Computer{
			Hardware: domain.Hardware{SerialNumber: serial, Model: "server"},
			CPUs:     []domain.CPU{{Cores: 4}, {Cores: 4}},
			RAMs:     []domain.RAM{{SizeGB: 16}, {SizeGB: 16}, {SizeGB: 16}},
		}}
	}

	net := domain.NewDataCenterNetwork("data-1", domain.NetworkData, true)
	net.Add(newServer("srv1"))
	net.Add(newServer("srv2"))

	li := domain.NewLogicalInfrastructure()
	dc := domain.NewDataCenter("dc-1", nil)
	li.DataCenters[dc] = []*domain.DataCenterNetwork{net}
	return li
}

func reservationClaim(name string, start, end time.Time, cpu, ramGB int) domain.Claim {
	return domain.Claim{
		Name:  name,
		Start: &start,
		End:   &end,
		Reservation: &domain.Reservation{
			EndUser:   "delegate-1",
			Resources: []any{domain.NewCompute(cpu, ramGB, false, 1)},
			HSNOnly:   true,
		},
	}
}

func TestScheduleFixedStartAccepts(t *testing.T) {
	li := twoServerInfrastructure()
	s := scheduler.New(li, scheduler.DefaultConfig())

	now := time.Now()
	start := now.Add(time.Hour)
	end := now.Add(24 * time.Hour)
	claim := reservationClaim("r1", start, end, 4, 4)

	got, err := s.Schedule(claim, domain.Tenant{Name: "tenant-a"}, now)
	require.NoError(t, err)
	assert.True(t, got.Equal(start))
	assert.Len(t, li.Claims, 1)
}

func TestScheduleFixedStartExhaustion(t *testing.T) {
	li := twoServerInfrastructure()
	s := scheduler.New(li, scheduler.DefaultConfig())

	now := time.Now()
	start := now.Add(time.Hour)
	end := now.Add(24 * time.Hour)
	tenant := domain.Tenant{Name: "tenant-a"}

	_, err := s.Schedule(reservationClaim("r1", start, end, 8, 4), tenant, now)
	require.NoError(t, err)
	_, err = s.Schedule(reservationClaim("r2", start, end, 8, 4), tenant, now)
	require.NoError(t, err)

	_, err = s.Schedule(reservationClaim("r3", start, end, 8, 4), tenant, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds compute CPU infrastructure limits")
}

func TestScheduleNoStartWithoutDynamicStartRejected(t *testing.T) {
	li := twoServerInfrastructure()
	s := scheduler.New(li, scheduler.DefaultConfig())

	claim := domain.Claim{
		Name: "r1",
		Reservation: &domain.Reservation{
			EndUser:   "delegate-1",
			Resources: []any{domain.NewCompute(4, 4, false, 1)},
		},
	}
	_, err := s.Schedule(claim, domain.Tenant{Name: "tenant-a"}, time.Now())
	assert.ErrorIs(t, err, scheduler.ErrNoStartDate)
}

func TestScheduleDynamicStartDefersPastFullyBookedWindow(t *testing.T) {
	li := twoServerInfrastructure()
	now := time.Now()

	// Book the full 16 cores / 96 GB for [now, now+2h).
	blockEnd := now.Add(2 * time.Hour)
	li.Claims = append(li.Claims, domain.Claim{
		Name:  "blocking",
		Start: &now,
		End:   &blockEnd,
		Reservation: &domain.Reservation{
			Resources: []any{domain.NewCompute(16, 96, false, 1)},
			HSNOnly:   true,
		},
	})

	cfg := scheduler.DefaultConfig()
	cfg.DynamicStart = true
	cfg.PlanningInterval = 15 * time.Minute
	s := scheduler.New(li, cfg)

	end := now.Add(3 * time.Hour)
	claim := domain.Claim{
		Name: "deferred",
		End:  &end,
		Reservation: &domain.Reservation{
			EndUser:   "delegate-1",
			Resources: []any{domain.NewCompute(16, 96, false, 1)},
			HSNOnly:   true,
		},
	}

	start, err := s.Schedule(claim, domain.Tenant{Name: "tenant-a"}, now)
	require.NoError(t, err)
	assert.True(t, !start.Before(blockEnd), "expected start %s >= blockEnd %s", start, blockEnd)
}

func TestScheduleTenantConstraintRejection(t *testing.T) {
	li := twoServerInfrastructure()
	tenant := domain.Tenant{Name: "tenant-a"}
	li.Constraints[tenant.Name] = domain.Constraint{
		Target:        tenant,
		ComputeLimits: []domain.Compute{domain.NewCompute(4, 4, false, 1)},
	}
	s := scheduler.New(li, scheduler.DefaultConfig())

	now := time.Now()
	start := now.Add(time.Hour)
	end := now.Add(24 * time.Hour)
	claim := reservationClaim("r1", start, end, 8, 4)

	_, err := s.Schedule(claim, tenant, now)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claim exceeds tenant limits")
}
