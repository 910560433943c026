package priceanomaly_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aouyang1/go-priceanomaly"
	"github.com/aouyang1/go-priceanomaly/timedataset"
)

func ExamplePipeline_RunBatch() {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t := timedataset.GenerateDailyT(100, start)

	store := timedataset.NewStore()
	if err := store.AddSeries("FLAT", t, timedataset.GenerateConstY(100, 42.5)); err != nil {
		fmt.Println(err)
		return
	}
	if err := store.AddSeries("SHRT", t[:30], timedataset.GenerateConstY(30, 42.5)); err != nil {
		fmt.Println(err)
		return
	}

	p, err := priceanomaly.New(nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	b := p.RunBatch(context.Background(), store)
	fmt.Println("failed:", b.Failed())
	if err := b.Reports()[0].TablePrint(os.Stdout, "", "  "); err != nil {
		fmt.Println(err)
	}
	// Output:
	// failed: [SHRT]
	// FLAT:
	//   Outlier Model (0): none
	//   Forecast Deviation (0): none
}
