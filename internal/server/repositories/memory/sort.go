package memory

import (
	"sort"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// sortOwnerships matches the Postgres ORDER BY purchase_date, content_id.
func sortOwnerships(list []*models.Ownership) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].PurchaseDate.Equal(list[j].PurchaseDate) {
			return list[i].PurchaseDate.Before(list[j].PurchaseDate)
		}
		return list[i].ContentID < list[j].ContentID
	})
}
