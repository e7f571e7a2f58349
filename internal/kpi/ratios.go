package kpi

import "t12insight/internal/model"

// keyRatios derives the performance ratios the property formats share.
// Every ratio needs both operands and a non-zero base; anything else
// is omitted rather than reported as zero.
func keyRatios(summary *model.KPISummary) {
	current := summary.Current
	askingRent, hasAsking := current["Property Asking Rent"]
	effective, hasEffective := current["Effective Rental Income"]
	grossRent, hasGross := current["Gross Scheduled Rent"]
	lossToLease, hasLoss := current["Loss to lease"]
	vacancy, hasVacancy := current["Vacancy"]

	set := func(name string, v float64) {
		if summary.Ratios == nil {
			summary.Ratios = make(map[string]float64)
		}
		summary.Ratios[name] = v
	}

	if hasAsking && askingRent > 0 {
		if hasEffective {
			set("Collection Rate", effective/askingRent*100)
		}
		if hasLoss {
			set("Loss-to-Lease Rate", abs(lossToLease)/askingRent*100)
		}
		if hasVacancy {
			set("Vacancy Rate", abs(vacancy)/askingRent*100)
		}
	}
	if hasGross && grossRent > 0 && hasEffective {
		set("Economic Occupancy Rate", effective/grossRent*100)
	}
}
