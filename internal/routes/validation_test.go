package routes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/map-directions/pkg/validation"
)

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		fields []string
	}{
		{name: "defaults", opts: DefaultOptions()},
		{name: "zero value", opts: Options{}},
		{name: "unknown mode", opts: Options{Mode: "FLY"}, fields: []string{"mode"}},
		{name: "bad units and language", opts: Options{Units: "FURLONGS", LanguageCode: "english!"}, fields: []string{"units", "language_code"}},
		{name: "bad extra computation", opts: Options{ExtraComputations: []string{ExtraComputationTolls, "WEATHER"}}, fields: []string{"extra_computations[1]"}},
		{name: "bad emission type", opts: Options{RouteModifiers: &RouteModifiers{VehicleInfo: &VehicleInfo{EmissionType: "STEAM"}}}, fields: []string{"route_modifiers.vehicleInfo.emissionType"}},
		{name: "transit preferences", opts: Options{TransitPreferences: &TransitPreferences{AllowedTravelModes: []string{TransitModeBus}, RoutingPreference: TransitFewerTransfers}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.ValidateStruct(tt.opts)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *validation.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			for _, field := range tt.fields {
				assert.Contains(t, verr.Errors, field)
			}
		})
	}
}
