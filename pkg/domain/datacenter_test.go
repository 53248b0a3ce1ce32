package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horao-project/horao/pkg/clock"
	"github.com/horao-project/horao/pkg/domain"
)

func TestDataCenterAddAndReadRows(t *testing.T) {
	dc := domain.NewDataCenter("dc-1", clock.NewScalar())

	_, err := dc.AddCabinet(0, domain.Cabinet{Hardware: domain.Hardware{SerialNumber: "c1", Model: "cab"}})
	require.NoError(t, err)
	_, err = dc.AddCabinet(1, domain.Cabinet{Hardware: domain.Hardware{SerialNumber: "c2", Model: "cab"}})
	require.NoError(t, err)

	rows, err := dc.Rows()
	require.NoError(t, err)
	assert.Len(t, rows[0], 1)
	assert.Len(t, rows[1], 1)
}

func TestDataCenterMoveServerAcrossCabinets(t *testing.T) {
	dc := domain.NewDataCenter("dc-1", clock.NewScalar())

	from := domain.Cabinet{
		Hardware: domain.Hardware{SerialNumber: "c1", Model: "cab"},
		Servers:  []domain.Server{server("s1")},
	}
	to := domain.Cabinet{Hardware: domain.Hardware{SerialNumber: "c2", Model: "cab"}}

	_, err := dc.AddCabinet(0, from)
	require.NoError(t, err)
	_, err = dc.AddCabinet(0, to)
	require.NoError(t, err)

	require.NoError(t, dc.MoveServer("s1:srv", "c1:cab", "c2:cab"))

	fromAfter, err := dc.FindCabinet("c1:cab")
	require.NoError(t, err)
	assert.Empty(t, fromAfter.Servers)

	toAfter, err := dc.FindCabinet("c2:cab")
	require.NoError(t, err)
	assert.Len(t, toAfter.Servers, 1)
}

func TestDataCenterFindCabinetNotInstalled(t *testing.T) {
	dc := domain.NewDataCenter("dc-1", clock.NewScalar())

	_, err := dc.FindCabinet("missing:cab")
	require.Error(t, err)
	var notInstalled *domain.NotInstalledError
	require.ErrorAs(t, err, &notInstalled)
}
