package dashboard

import (
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/promowatch/reddit-collector/internal/storage"
)

// Handler renders the collection dashboard: partition dominance, the
// promotional/organic split per partition and recent run yield, read live
// from the store.
func Handler(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := store.PartitionCounts()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		// 1. Partition Dominance
		pie := charts.NewPie()
		pie.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: "Partition Dominance"}),
			charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		)

		var pieItems []opts.PieData
		for _, c := range counts {
			pieItems = append(pieItems, opts.PieData{Name: c.Partition, Value: c.Total})
		}
		pie.AddSeries("Posts", pieItems)

		// 2. Promotional vs Organic
		bar := charts.NewBar()
		bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Promotional vs Organic"}))

		var barX []string
		var promo, organic []opts.BarData
		for _, c := range counts {
			barX = append(barX, c.Partition)
			promo = append(promo, opts.BarData{Value: c.Promotional})
			organic = append(organic, opts.BarData{Value: c.Total - c.Promotional})
		}
		bar.SetXAxis(barX).
			AddSeries("Promotional", promo).
			AddSeries("Organic", organic)

		// 3. Recent Run Yield
		runs, err := store.RecentRuns(20)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		yield := charts.NewBar()
		yield.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Recent Run Yield"}))

		var runX []string
		var runY []opts.BarData
		for i := len(runs) - 1; i >= 0; i-- {
			runX = append(runX, runs[i].StartedAt.Format("01-02 15:04"))
			runY = append(runY, opts.BarData{Value: runs[i].ResultCount})
		}
		yield.SetXAxis(runX).AddSeries("Collected", runY)

		pie.Render(w)
		bar.Render(w)
		yield.Render(w)
	}
}

// StartServer serves the dashboard on the given port.
func StartServer(store *storage.Store, port string) error {
	http.HandleFunc("/", Handler(store))
	return http.ListenAndServe(":"+port, nil)
}
