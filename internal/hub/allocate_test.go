package hub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-compliance/internal/models"
)

func TestAllocate_PicksVehicleMeetingCapacity(t *testing.T) {
	store := newMemStore(
		bufferVehicle("B1", models.VehicleTypeVan, 1000, 5),
		bufferVehicle("B2", models.VehicleTypeTruck, 3000, 15),
	)
	p := newTestPool(newHub(2, "B1", "B2"), store)

	res := p.Allocate(AllocationRequest{MinCapacity: &models.Capacity{Weight: 2000, Volume: 10}})

	require.True(t, res.Success, res.Message)
	require.NotNil(t, res.Vehicle)
	assert.Equal(t, "B2", res.Vehicle.ID)
	assert.Equal(t, models.VehicleStatusInTransit, res.Vehicle.Status)
	assert.Equal(t, models.VehicleStatusInTransit, store.status("B2"))
	assert.Equal(t, models.VehicleStatusAvailable, store.status("B1"))
	assert.Equal(t, "Buffer vehicle B2 allocated successfully", res.Message)
	assert.True(t, p.HasBufferVehicle("B2"), "allocated vehicle stays listed")
}

func TestAllocate_InactiveHub(t *testing.T) {
	store := newMemStore(bufferVehicle("B1", models.VehicleTypeVan, 1000, 5))
	h := newHub(2, "B1")
	h.Status = models.HubStatusMaintenance
	p := newTestPool(h, store)

	res := p.Allocate(AllocationRequest{})
	assert.False(t, res.Success)
	assert.Equal(t, "Hub Okhla is not active (status: maintenance)", res.Message)
	assert.Equal(t, models.VehicleStatusAvailable, store.status("B1"))
}

func TestAllocate_NoAvailableVehicles(t *testing.T) {
	busy := bufferVehicle("B1", models.VehicleTypeVan, 1000, 5)
	busy.Status = models.VehicleStatusInTransit
	p := newTestPool(newHub(2, "B1", "ghost"), newMemStore(busy))

	res := p.Allocate(AllocationRequest{})
	assert.False(t, res.Success)
	assert.Equal(t, "No buffer vehicles available at this hub", res.Message)
	assert.Empty(t, res.Alternatives)
}

func TestAllocate_NoMatchReturnsAlternatives(t *testing.T) {
	store := newMemStore(
		bufferVehicle("B1", models.VehicleTypeVan, 1000, 5),
		bufferVehicle("B2", models.VehicleTypeVan, 1500, 8),
	)
	h := newHub(2, "B1", "B2")
	p := newTestPool(h, store)
	before := p.Snapshot()

	res := p.Allocate(AllocationRequest{VehicleType: models.VehicleTypeTruck})

	assert.False(t, res.Success)
	assert.Equal(t, "No buffer vehicles match the specified requirements", res.Message)
	require.Len(t, res.Alternatives, 2)
	assert.Equal(t, "B1", res.Alternatives[0].ID)
	assert.Equal(t, "B2", res.Alternatives[1].ID)
	assert.Equal(t, models.VehicleStatusAvailable, store.status("B1"))
	assert.Equal(t, models.VehicleStatusAvailable, store.status("B2"))
	assert.Equal(t, before, p.Snapshot(), "failed allocation leaves the hub untouched")
}

func TestAllocate_CapacityFilterNeedsBothDimensions(t *testing.T) {
	store := newMemStore(bufferVehicle("B1", models.VehicleTypeTruck, 5000, 9))
	p := newTestPool(newHub(1, "B1"), store)

	res := p.Allocate(AllocationRequest{MinCapacity: &models.Capacity{Weight: 2000, Volume: 10}})
	assert.False(t, res.Success)
	assert.Len(t, res.Alternatives, 1)
}

func TestAllocate_PrefersBS6(t *testing.T) {
	tight := bufferVehicle("B1", models.VehicleTypeVan, 1000, 5)
	loose := bufferVehicle("B2", models.VehicleTypeVan, 4000, 20)
	loose.Compliance.PollutionLevel = models.PollutionBS6
	p := newTestPool(newHub(2, "B1", "B2"), newMemStore(tight, loose))

	res := p.Allocate(AllocationRequest{MinCapacity: &models.Capacity{Weight: 900, Volume: 4}})
	require.True(t, res.Success)
	assert.Equal(t, "B2", res.Vehicle.ID)
}

func TestAllocate_BS6PreferenceIsOrderIndependent(t *testing.T) {
	bs6 := bufferVehicle("B1", models.VehicleTypeVan, 4000, 20)
	bs6.Compliance.PollutionLevel = models.PollutionBS6
	tight := bufferVehicle("B2", models.VehicleTypeVan, 1000, 5)
	p := newTestPool(newHub(2, "B1", "B2"), newMemStore(bs6, tight))

	res := p.Allocate(AllocationRequest{MinCapacity: &models.Capacity{Weight: 900, Volume: 4}})
	require.True(t, res.Success)
	assert.Equal(t, "B1", res.Vehicle.ID)
}

func TestAllocate_TightestFitAmongEquals(t *testing.T) {
	store := newMemStore(
		bufferVehicle("B1", models.VehicleTypeTruck, 8000, 40),
		bufferVehicle("B2", models.VehicleTypeTruck, 2500, 12),
		bufferVehicle("B3", models.VehicleTypeTruck, 4000, 20),
	)
	p := newTestPool(newHub(3, "B1", "B2", "B3"), store)

	res := p.Allocate(AllocationRequest{MinCapacity: &models.Capacity{Weight: 2000, Volume: 10}})
	require.True(t, res.Success)
	assert.Equal(t, "B2", res.Vehicle.ID)
}

func TestAllocate_NoRequirementKeepsFirst(t *testing.T) {
	store := newMemStore(
		bufferVehicle("B1", models.VehicleTypeVan, 1000, 5),
		bufferVehicle("B2", models.VehicleTypeTruck, 3000, 15),
	)
	p := newTestPool(newHub(2, "B1", "B2"), store)

	res := p.Allocate(AllocationRequest{})
	require.True(t, res.Success)
	assert.Equal(t, "B1", res.Vehicle.ID)
}

func TestAllocate_FallsBackWhenStatusFlipRaces(t *testing.T) {
	store := newMemStore(
		bufferVehicle("B1", models.VehicleTypeTruck, 8000, 40),
		bufferVehicle("B2", models.VehicleTypeTruck, 2500, 12),
	)
	store.steal = "B2"
	p := newTestPool(newHub(2, "B1", "B2"), store)

	res := p.Allocate(AllocationRequest{MinCapacity: &models.Capacity{Weight: 2000, Volume: 10}})
	require.True(t, res.Success)
	assert.Equal(t, "B1", res.Vehicle.ID)
	assert.Equal(t, models.VehicleStatusReserved, store.status("B2"))
}

func TestAllocate_ConcurrentCallsNeverShareAVehicle(t *testing.T) {
	store := newMemStore(
		bufferVehicle("B1", models.VehicleTypeVan, 1000, 5),
		bufferVehicle("B2", models.VehicleTypeVan, 1000, 5),
		bufferVehicle("B3", models.VehicleTypeVan, 1000, 5),
	)
	p := newTestPool(newHub(3, "B1", "B2", "B3"), store)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted = map[string]int{}
		failed  int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := p.Allocate(AllocationRequest{})
			mu.Lock()
			defer mu.Unlock()
			if res.Success {
				granted[res.Vehicle.ID]++
			} else {
				failed++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, granted, 3)
	for id, n := range granted {
		assert.Equal(t, 1, n, id)
	}
	assert.Equal(t, 7, failed)
}

func TestFitScore(t *testing.T) {
	v := bufferVehicle("B1", models.VehicleTypeTruck, 4000, 20)
	assert.Equal(t, 0.5, FitScore(v, nil))
	assert.Equal(t, 0.25, FitScore(v, &models.Capacity{Weight: 2000, Volume: 5}))
}
