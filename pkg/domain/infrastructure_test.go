package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/horao-project/horao/pkg/domain"
)

func TestTotalComputeAndStorageAcrossServerAndBlade(t *testing.T) {
	net := domain.NewDataCenterNetwork("data-1", domain.NetworkData, true)

	srv := &domain.Server{Computer: domain.Computer{
		Hardware: domain.Hardware{SerialNumber: "srv1", Model: "server"},
		CPUs:     []domain.CPU{{Cores: 8}},
		RAMs:     []domain.RAM{{SizeGB: 64}},
		Disks:    []domain.Disk{{SizeGB: 1000}},
	}}
	blade := &domain.Blade{
		Hardware: domain.Hardware{SerialNumber: "bl1", Model: "blade"},
		Nodes: []domain.Node{
			{
				Hardware: domain.Hardware{SerialNumber: "n1", Model: "node"},
				Modules: []domain.Module{
					{Computer: domain.Computer{
						Hardware: domain.Hardware{SerialNumber: "m1", Model: "module"},
						CPUs:     []domain.CPU{{Cores: 4}},
						RAMs:     []domain.RAM{{SizeGB: 32}},
						Disks:    []domain.Disk{{SizeGB: 500}},
					}},
				},
			},
		},
	}
	net.Add(srv)
	net.Add(blade)

	li := domain.NewLogicalInfrastructure()
	dc := domain.NewDataCenter("dc-1", nil)
	li.DataCenters[dc] = []*domain.DataCenterNetwork{net}

	compute := li.TotalCompute(false)
	assert.Len(t, compute, 2)

	storage := li.TotalStorage(false)
	assert.Len(t, storage, 2)

	var totalBlock int
	for _, s := range storage {
		totalBlock += s.Amount
	}
	assert.Equal(t, 1500, totalBlock)
}

func TestTotalComputeHSNOnlyFiltersNonHSNNetworks(t *testing.T) {
	net := domain.NewDataCenterNetwork("data-1", domain.NetworkData, false)
	net.Add(&domain.Server{Computer: domain.Computer{
		Hardware: domain.Hardware{SerialNumber: "srv1", Model: "server"},
		CPUs:     []domain.CPU{{Cores: 8}},
	}})

	li := domain.NewLogicalInfrastructure()
	dc := domain.NewDataCenter("dc-1", nil)
	li.DataCenters[dc] = []*domain.DataCenterNetwork{net}

	assert.Empty(t, li.TotalCompute(true))
	assert.Len(t, li.TotalCompute(false), 1)
}
