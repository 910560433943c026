package feature

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

type FourierComp string

const (
	FourierCompSin FourierComp = "sin"
	FourierCompCos FourierComp = "cos"
)

// Seasonality feature representing a single sine or cosine component of a Fourier series
type Seasonality struct {
	Name        string      `json:"name"`
	FourierComp FourierComp `json:"fourier_component"`
	Order       int         `json:"order"`
}

// NewSeasonality creates a new seasonality feature given a name, Fourier component and order
func NewSeasonality(name string, fcomp FourierComp, order int) *Seasonality {
	return &Seasonality{name, fcomp, order}
}

// String returns the string representation of the seasonality feature
func (s Seasonality) String() string {
	return fmt.Sprintf("seas_%s_%02d_%s", s.Name, s.Order, s.FourierComp)
}

// Get returns the value of an arbitrary label and returns the value along with whether
// the label exists
func (s Seasonality) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return s.Name, true
	case "fourier_component":
		return string(s.FourierComp), true
	case "order":
		return strconv.Itoa(s.Order), true
	}
	return "", false
}

// Type returns the type of this feature
func (s Seasonality) Type() FeatureType {
	return FeatureTypeSeasonality
}

// Decode converts the feature into a map of label values
func (s Seasonality) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = s.Name
	res["fourier_component"] = string(s.FourierComp)
	res["order"] = strconv.Itoa(s.Order)
	return res
}

// UnmarshalJSON is the custom unmarshalling to convert a map[string]string
// to a seasonality feature
func (s *Seasonality) UnmarshalJSON(data []byte) error {
	var labelStr struct {
		Name        string `json:"name"`
		FourierComp string `json:"fourier_component"`
		Order       string `json:"order"`
	}
	err := json.Unmarshal(data, &labelStr)
	if err != nil {
		return err
	}
	s.Name = labelStr.Name
	s.FourierComp = FourierComp(labelStr.FourierComp)
	s.Order, err = strconv.Atoi(labelStr.Order)
	if err != nil {
		return err
	}
	return nil
}

// Generate computes the Fourier component of the given order for a period in seconds
// from epoch seconds.
func (s Seasonality) Generate(epoch []float64, period float64) []float64 {
	omega := 2.0 * math.Pi * float64(s.Order) / period
	res := make([]float64, len(epoch))
	for i, tFeat := range epoch {
		rad := omega * tFeat
		switch s.FourierComp {
		case FourierCompSin:
			res[i] = math.Sin(rad)
		case FourierCompCos:
			res[i] = math.Cos(rad)
		}
	}
	return res
}
