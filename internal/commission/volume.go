package commission

import (
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/model"
	"github.com/icekubz/HFC-Dynamic-Protocol/internal/network"
)

// AggregateVolume sums the commissionable value of orders per buyer.
func AggregateVolume(orders []model.Order) network.Volumes {
	volumes := make(network.Volumes, len(orders))
	for _, o := range orders {
		volumes[o.BuyerID] = volumes.Of(o.BuyerID).Add(o.CV())
	}
	return volumes
}
