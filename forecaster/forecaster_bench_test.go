package forecaster

import (
	"testing"

	"github.com/pkg/profile"
)

var benchDeviation *DeviationResult

func BenchmarkFitDeviations(b *testing.B) {
	t, y := spikeSeries(1000, 600, 25)

	for b.Loop() {
		f, err := New(nil)
		if err != nil {
			b.Fatal(err)
		}
		if err := f.Fit(t, y); err != nil {
			b.Fatal(err)
		}
		benchDeviation, err = f.Deviations(DefaultDeviationK)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFitDeviationsProfile(b *testing.B) {
	t, y := spikeSeries(1000, 600, 25)
	defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()

	for b.Loop() {
		f, err := New(nil)
		if err != nil {
			b.Fatal(err)
		}
		if err := f.Fit(t, y); err != nil {
			b.Fatal(err)
		}
	}
}
